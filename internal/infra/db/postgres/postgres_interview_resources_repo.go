package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-interview-engine/internal/domain"
	"ai-interview-engine/internal/domain/model"
	"ai-interview-engine/internal/domain/ports/repository"
	"ai-interview-engine/internal/infra/security"
)

var _ repository.InterviewResourcesRepository = (*interviewResourcesRepo)(nil)

// interviewResourcesRepo stores one snapshot per credential. When an
// encryption service is configured the snapshot (which carries resume PII) is
// sealed at rest with the credential id as associated data.
type interviewResourcesRepo struct {
	pool *pgxpool.Pool
	enc  *security.EncryptionService
}

func NewInterviewResourcesRepo(pool *pgxpool.Pool, enc *security.EncryptionService) *interviewResourcesRepo {
	return &interviewResourcesRepo{pool: pool, enc: enc}
}

func (r *interviewResourcesRepo) Save(ctx context.Context, tx repository.Tx, res *model.InterviewResources) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal resources: %w", err)
	}
	payload, sealed := string(raw), false
	if r.enc != nil {
		if payload, err = r.enc.Seal(raw, []byte(res.CredentialID)); err != nil {
			return fmt.Errorf("seal resources: %w", err)
		}
		sealed = true
	}
	const q = `
INSERT INTO interview_resources (credential_id, language, snapshot, sealed, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (credential_id) DO UPDATE SET
  language = EXCLUDED.language,
  snapshot = EXCLUDED.snapshot,
  sealed = EXCLUDED.sealed,
  created_at = EXCLUDED.created_at;`
	if _, err := execSQL(ctx, r.pool, tx, q, res.CredentialID, string(res.Language), payload, sealed, res.CreatedAt); err != nil {
		return fmt.Errorf("save resources: %w", err)
	}
	return nil
}

func (r *interviewResourcesRepo) FindByCredential(ctx context.Context, tx repository.Tx, credentialID string) (*model.InterviewResources, error) {
	const q = `SELECT snapshot, sealed FROM interview_resources WHERE credential_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, credentialID)
	if err != nil {
		return nil, err
	}
	var (
		payload string
		sealed  bool
	)
	if err := row.Scan(&payload, &sealed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	raw := []byte(payload)
	if sealed {
		if r.enc == nil {
			return nil, fmt.Errorf("resources for %s are sealed but no encryption key is configured", credentialID)
		}
		if raw, err = r.enc.Open(payload, []byte(credentialID)); err != nil {
			return nil, fmt.Errorf("open resources: %w", err)
		}
	}
	var res model.InterviewResources
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode resources: %w", err)
	}
	return &res, nil
}
