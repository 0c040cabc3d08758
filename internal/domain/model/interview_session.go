package model

import (
	"fmt"
	"time"

	"ai-interview-engine/internal/domain"
)

type InterviewStatus string

const (
	InterviewActive    InterviewStatus = "active"
	InterviewCompleted InterviewStatus = "completed"
	InterviewCancelled InterviewStatus = "cancelled"
	InterviewPostponed InterviewStatus = "postponed"
)

// IsTerminal reports whether no further transition is allowed out of s.
func (s InterviewStatus) IsTerminal() bool {
	return s == InterviewCompleted || s == InterviewCancelled || s == InterviewPostponed
}

// InterviewSession is the aggregate root of one candidate interview.
// It is the permanent record of the interaction and is never deleted.
type InterviewSession struct {
	ID             string
	CredentialID   string
	InvitationID   string
	AgencyID       string
	JobID          string
	CandidateID    string
	Language       Language
	Status         InterviewStatus
	Ledger         TurnLedger
	ChunkNamespace string
	// LastGroup is the highest answer group already transcribed into the ledger.
	LastGroup      int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	EndedAt        *time.Time
}

func NewInterviewSession(id string, cred *AccessCredential, ictx *InterviewContext, lang Language, namespace string) *InterviewSession {
	now := time.Now()
	return &InterviewSession{
		ID:             id,
		CredentialID:   cred.ID,
		InvitationID:   cred.InvitationID,
		AgencyID:       ictx.Agency.ID,
		JobID:          ictx.Job.ID,
		CandidateID:    ictx.Invitation.CandidateID,
		Language:       lang,
		Status:         InterviewActive,
		Ledger:         make(TurnLedger, 0, 8),
		ChunkNamespace: namespace,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *InterviewSession) IsActive() bool { return s.Status == InterviewActive }

// Transition moves an active session into one of its terminal states.
func (s *InterviewSession) Transition(to InterviewStatus, at time.Time) error {
	if s.Status != InterviewActive {
		return fmt.Errorf("%w: session %s is %s", domain.ErrInvalidSessionState, s.ID, s.Status)
	}
	if !to.IsTerminal() {
		return fmt.Errorf("%w: cannot move to %s", domain.ErrInvalidSessionState, to)
	}
	s.Status = to
	s.UpdatedAt = at
	s.EndedAt = &at
	return nil
}

// Reconcile corrects language and agency in place when the backing resources changed.
// It returns true if anything was modified.
func (s *InterviewSession) Reconcile(lang Language, agencyID string) bool {
	changed := false
	if lang != "" && s.Language != lang {
		s.Language = lang
		changed = true
	}
	if agencyID != "" && s.AgencyID != agencyID {
		s.AgencyID = agencyID
		changed = true
	}
	if changed {
		s.UpdatedAt = time.Now()
	}
	return changed
}

// Elapsed returns how long the session has existed at the given instant.
func (s *InterviewSession) Elapsed(at time.Time) time.Duration {
	return at.Sub(s.CreatedAt)
}
