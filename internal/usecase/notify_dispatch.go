package usecase

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"ai-interview-engine/internal/domain/model"
	"ai-interview-engine/internal/domain/ports/adapter"
	"ai-interview-engine/internal/infra/i18n"
	"ai-interview-engine/internal/infra/metrics"
	"ai-interview-engine/internal/infra/worker"
)

// TaskSubmitter is the slice of worker.Pool the dispatcher uses.
type TaskSubmitter interface {
	Submit(task worker.Task) error
}

const sideEffectTimeout = 15 * time.Second

// Dispatcher runs best-effort side effects (inbox, email) off the request
// path. Failures are logged and counted, never returned.
type Dispatcher struct {
	pool   TaskSubmitter
	inbox  adapter.InboxNotifier
	mailer adapter.Mailer
	bundle *i18n.Bundle
	log    *zerolog.Logger
}

func NewDispatcher(pool TaskSubmitter, inbox adapter.InboxNotifier, mailer adapter.Mailer, bundle *i18n.Bundle, logger *zerolog.Logger) *Dispatcher {
	l := logger.With().Str("component", "dispatcher").Logger()
	return &Dispatcher{pool: pool, inbox: inbox, mailer: mailer, bundle: bundle, log: &l}
}

// NotifySession sends kind for s to the agency inbox.
func (d *Dispatcher) NotifySession(kind string, s *model.InterviewSession, candidateName, jobTitle string, extra map[string]any) {
	if d.inbox == nil || s.AgencyID == "" {
		return
	}
	payload := map[string]any{
		"session_id":   s.ID,
		"job_id":       s.JobID,
		"candidate_id": s.CandidateID,
		"language":     string(s.Language),
		"text":         d.bundle.T(string(s.Language), "notify_"+kind, nonEmpty(candidateName, s.CandidateID), nonEmpty(jobTitle, s.JobID)),
	}
	for k, v := range extra {
		payload[k] = v
	}
	agencyID := s.AgencyID
	d.run("inbox", func(ctx context.Context) error {
		return d.inbox.Notify(ctx, agencyID, kind, payload)
	})
}

func (d *Dispatcher) Mail(to, subject, body string) {
	if d.mailer == nil || to == "" {
		return
	}
	d.run("email", func(ctx context.Context) error {
		return d.mailer.Send(ctx, to, subject, body)
	})
}

// run prefers the pool; a saturated or absent pool falls back to a goroutine.
func (d *Dispatcher) run(channel string, fn func(ctx context.Context) error) {
	task := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
		defer cancel()
		err := d.safe(ctx, channel, fn)
		if err != nil {
			metrics.IncNotificationFailure(channel)
			d.log.Warn().Err(err).Str("channel", channel).Msg("side effect failed")
		}
		return nil
	}
	if d.pool != nil {
		if err := d.pool.Submit(task); err == nil {
			return
		}
		d.log.Debug().Str("channel", channel).Msg("worker pool unavailable; running inline goroutine")
	}
	go func() { _ = task(context.Background()) }()
}

func (d *Dispatcher) safe(ctx context.Context, channel string, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Str("channel", channel).Interface("panic", r).Bytes("stack", debug.Stack()).Msg("side effect panicked")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}
