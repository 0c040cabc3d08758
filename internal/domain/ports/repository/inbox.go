package repository

import (
	"context"
	"time"
)

type InboxNotification struct {
	ID        string
	AgencyID  string
	Kind      string
	Payload   map[string]any
	CreatedAt time.Time
}

type InboxRepository interface {
	Save(ctx context.Context, tx Tx, n *InboxNotification) error
	ListByAgency(ctx context.Context, tx Tx, agencyID string, limit int) ([]*InboxNotification, error)
}
