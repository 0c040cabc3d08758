package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"ai-interview-engine/internal/domain/ports/adapter"
	"ai-interview-engine/internal/domain/ports/repository"
)

var _ adapter.InboxNotifier = (*InboxNotifier)(nil)

// InboxNotifier persists notifications into the agency inbox table.
type InboxNotifier struct {
	repo repository.InboxRepository
	log  *zerolog.Logger
}

func NewInboxNotifier(repo repository.InboxRepository, logger *zerolog.Logger) *InboxNotifier {
	return &InboxNotifier{repo: repo, log: logger}
}

func (n *InboxNotifier) Notify(ctx context.Context, agencyID, kind string, payload map[string]any) error {
	if agencyID == "" {
		return errors.New("inbox notify: agency id is empty")
	}
	return n.repo.Save(ctx, repository.NoTX, &repository.InboxNotification{
		AgencyID:  agencyID,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now(),
	})
}

var _ adapter.InboxNotifier = (*MultiNotifier)(nil)

// MultiNotifier fans one notification out to several channels. Every channel
// is attempted; the joined error reports the ones that failed.
type MultiNotifier struct {
	targets []adapter.InboxNotifier
}

func NewMultiNotifier(targets ...adapter.InboxNotifier) *MultiNotifier {
	out := make([]adapter.InboxNotifier, 0, len(targets))
	for _, t := range targets {
		if t != nil {
			out = append(out, t)
		}
	}
	return &MultiNotifier{targets: out}
}

func (m *MultiNotifier) Notify(ctx context.Context, agencyID, kind string, payload map[string]any) error {
	var errs []error
	for _, t := range m.targets {
		if err := t.Notify(ctx, agencyID, kind, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
