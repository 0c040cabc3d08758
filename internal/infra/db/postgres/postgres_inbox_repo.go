package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"

	"ai-interview-engine/internal/domain"
	"ai-interview-engine/internal/domain/ports/repository"
)

var _ repository.InboxRepository = (*inboxRepo)(nil)

type inboxRepo struct {
	pool *pgxpool.Pool
}

func NewInboxRepo(pool *pgxpool.Pool) repository.InboxRepository {
	return &inboxRepo{pool: pool}
}

// Save assigns a ULID when n.ID is empty so ids sort by creation time.
func (r *inboxRepo) Save(ctx context.Context, tx repository.Tx, n *repository.InboxNotification) error {
	if n.ID == "" {
		n.ID = ulid.Make().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("marshal inbox payload: %w", err)
	}
	const q = `
INSERT INTO inbox_notifications (id, agency_id, kind, payload, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err = execSQL(ctx, r.pool, tx, q, n.ID, n.AgencyID, n.Kind, string(payload), n.CreatedAt)
	return err
}

func (r *inboxRepo) ListByAgency(ctx context.Context, tx repository.Tx, agencyID string, limit int) ([]*repository.InboxNotification, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, agency_id, kind, payload, created_at
  FROM inbox_notifications
 WHERE agency_id = $1
 ORDER BY id DESC
 LIMIT $2`
	rows, err := queryRows(ctx, r.pool, tx, q, agencyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*repository.InboxNotification
	for rows.Next() {
		var (
			n   repository.InboxNotification
			raw []byte
		)
		if err := rows.Scan(&n.ID, &n.AgencyID, &n.Kind, &raw, &n.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &n.Payload); err != nil {
				return nil, fmt.Errorf("decode inbox payload: %w", err)
			}
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}
