package repository

import (
	"context"

	"ai-interview-engine/internal/domain/model"
)

type InterviewSessionRepository interface {
	// Create inserts s unless its credential already owns a session, in which
	// case the existing session is returned with created=false.
	Create(ctx context.Context, tx Tx, s *model.InterviewSession) (stored *model.InterviewSession, created bool, err error)
	Save(ctx context.Context, tx Tx, s *model.InterviewSession) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.InterviewSession, error)
	// FindByIDForUpdate row-locks the session inside tx.
	FindByIDForUpdate(ctx context.Context, tx Tx, id string) (*model.InterviewSession, error)
	FindByCredential(ctx context.Context, tx Tx, credentialID string) (*model.InterviewSession, error)
	CountPostponed(ctx context.Context, tx Tx, candidateID, jobID string) (int, error)
}

type InterviewResourcesRepository interface {
	FindByCredential(ctx context.Context, tx Tx, credentialID string) (*model.InterviewResources, error)
	Save(ctx context.Context, tx Tx, r *model.InterviewResources) error
}
