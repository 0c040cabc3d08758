package model

import "time"

// AccessCredential is a one-time, expiring link granting access to one interview.
type AccessCredential struct {
	ID           string
	InvitationID string
	ExpiresAt    time.Time
	Revoked      bool
	Valid        bool
	CreatedAt    time.Time
}

func NewAccessCredential(id, invitationID string, ttl time.Duration) *AccessCredential {
	now := time.Now()
	return &AccessCredential{
		ID:           id,
		InvitationID: invitationID,
		ExpiresAt:    now.Add(ttl),
		Valid:        true,
		CreatedAt:    now,
	}
}

// Usable reports whether the credential can still open or resume a session.
func (c *AccessCredential) Usable(at time.Time) bool {
	return c.Valid && !c.Revoked && at.Before(c.ExpiresAt)
}

// Invitation links a candidate to a job under an agency.
type Invitation struct {
	ID             string
	AgencyID       string
	JobID          string
	CandidateID    string
	CandidateName  string
	CandidateEmail string
	Language       Language // preferred interview language, may be empty
}
