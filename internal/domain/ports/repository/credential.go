package repository

import (
	"context"

	"ai-interview-engine/internal/domain/model"
)

type CredentialRepository interface {
	Create(ctx context.Context, tx Tx, c *model.AccessCredential) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.AccessCredential, error)
	// Invalidate revokes one credential and marks it invalid.
	Invalidate(ctx context.Context, tx Tx, id string) error
	// RevokeAllForInvitation revokes every non-revoked credential of an invitation.
	RevokeAllForInvitation(ctx context.Context, tx Tx, invitationID string) (int64, error)
	CountActiveForInvitation(ctx context.Context, tx Tx, invitationID string) (int, error)
}

// InvitationRepository resolves the job, agency and resume reachable from an invitation.
type InvitationRepository interface {
	FindContext(ctx context.Context, tx Tx, invitationID string) (*model.InterviewContext, error)
}
