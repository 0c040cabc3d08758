package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-interview-engine/internal/domain"
	"ai-interview-engine/internal/domain/model"
	"ai-interview-engine/internal/domain/ports/repository"
)

var _ repository.CredentialRepository = (*credentialRepo)(nil)

type credentialRepo struct {
	pool *pgxpool.Pool
}

func NewCredentialRepo(pool *pgxpool.Pool) *credentialRepo {
	return &credentialRepo{pool: pool}
}

func (r *credentialRepo) Create(ctx context.Context, tx repository.Tx, c *model.AccessCredential) error {
	const q = `
INSERT INTO access_credentials (id, invitation_id, expires_at, revoked, valid, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	_, err := execSQL(ctx, r.pool, tx, q, c.ID, c.InvitationID, c.ExpiresAt, c.Revoked, c.Valid, c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

func (r *credentialRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.AccessCredential, error) {
	const q = `
SELECT id, invitation_id, expires_at, revoked, valid, created_at
  FROM access_credentials WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	c := &model.AccessCredential{}
	if err := row.Scan(&c.ID, &c.InvitationID, &c.ExpiresAt, &c.Revoked, &c.Valid, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}

func (r *credentialRepo) Invalidate(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE access_credentials SET revoked=TRUE, valid=FALSE WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return fmt.Errorf("invalidate credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *credentialRepo) RevokeAllForInvitation(ctx context.Context, tx repository.Tx, invitationID string) (int64, error) {
	const q = `
UPDATE access_credentials SET revoked=TRUE, valid=FALSE
 WHERE invitation_id=$1 AND revoked=FALSE;`
	tag, err := execSQL(ctx, r.pool, tx, q, invitationID)
	if err != nil {
		return 0, fmt.Errorf("revoke credentials: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *credentialRepo) CountActiveForInvitation(ctx context.Context, tx repository.Tx, invitationID string) (int, error) {
	const q = `
SELECT COUNT(*) FROM access_credentials
 WHERE invitation_id=$1 AND revoked=FALSE AND valid=TRUE AND expires_at > NOW();`
	row, err := pickRow(ctx, r.pool, tx, q, invitationID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
