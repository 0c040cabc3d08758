package usecase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-interview-engine/internal/domain"
	"ai-interview-engine/internal/domain/model"
	"ai-interview-engine/internal/domain/ports/adapter"
	"ai-interview-engine/internal/domain/ports/repository"
	"ai-interview-engine/internal/infra/i18n"
	"ai-interview-engine/internal/infra/metrics"
)

// Compile-time check
var _ PostponeUseCase = (*postponeUC)(nil)

type PostponeResult struct {
	NewExpiry  time.Time
	Schedule   *time.Time
	Mode       model.PostponeMode
	AccessLink string
}

type PostponeUseCase interface {
	Postpone(ctx context.Context, sessionID string, mode model.PostponeMode, scheduledFor *time.Time) (*PostponeResult, error)
}

type PostponeConfig struct {
	LockWindow        time.Duration
	MaxPerJob         int
	CredentialTTL     time.Duration
	AccessLinkBaseURL string
}

type postponeUC struct {
	sessions    repository.InterviewSessionRepository
	creds       repository.CredentialRepository
	invitations repository.InvitationRepository
	tokens      AccessTokens
	tm          repository.TransactionManager
	dispatch    *Dispatcher
	bundle      *i18n.Bundle
	cfg         PostponeConfig
	log         *zerolog.Logger
	now         func() time.Time
}

func NewPostponeUseCase(
	sessions repository.InterviewSessionRepository,
	creds repository.CredentialRepository,
	invitations repository.InvitationRepository,
	tokens AccessTokens,
	tm repository.TransactionManager,
	dispatch *Dispatcher,
	bundle *i18n.Bundle,
	cfg PostponeConfig,
	logger *zerolog.Logger,
) *postponeUC {
	if cfg.MaxPerJob <= 0 {
		cfg.MaxPerJob = 1
	}
	if cfg.CredentialTTL <= 0 {
		cfg.CredentialTTL = 24 * time.Hour
	}
	l := logger.With().Str("component", "postpone").Logger()
	return &postponeUC{
		sessions: sessions, creds: creds, invitations: invitations, tokens: tokens,
		tm: tm, dispatch: dispatch, bundle: bundle, cfg: cfg, log: &l, now: time.Now,
	}
}

func (u *postponeUC) Postpone(ctx context.Context, sessionID string, mode model.PostponeMode, scheduledFor *time.Time) (*PostponeResult, error) {
	res, err := u.postpone(ctx, sessionID, mode, scheduledFor)
	if err != nil {
		metrics.IncPostponement(string(mode), "rejected")
		return nil, err
	}
	metrics.IncPostponement(string(mode), "ok")
	return res, nil
}

func (u *postponeUC) postpone(ctx context.Context, sessionID string, mode model.PostponeMode, scheduledFor *time.Time) (*PostponeResult, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: postpone mode %q", domain.ErrInvalidArgument, mode)
	}
	now := u.now()

	s, err := u.sessions.FindByID(ctx, repository.NoTX, sessionID)
	if err != nil {
		return nil, err
	}
	if !s.IsActive() {
		return nil, fmt.Errorf("%w: session %s is %s", domain.ErrInvalidSessionState, s.ID, s.Status)
	}
	if s.Elapsed(now) < u.cfg.LockWindow {
		return nil, fmt.Errorf("%w: session younger than %s", domain.ErrPostponeNotEligible, u.cfg.LockWindow)
	}

	ictx, err := u.invitations.FindContext(ctx, repository.NoTX, s.InvitationID)
	if err != nil {
		return nil, err
	}
	job := ictx.Job
	if !job.IsActive || !job.DeactivatesAt.After(now) {
		return nil, fmt.Errorf("%w: job %s is no longer open", domain.ErrPostponeNotEligible, job.ID)
	}
	n, err := u.sessions.CountPostponed(ctx, repository.NoTX, s.CandidateID, s.JobID)
	if err != nil {
		return nil, err
	}
	if n >= u.cfg.MaxPerJob {
		return nil, fmt.Errorf("%w: %d prior postponements for this job", domain.ErrPostponeNotEligible, n)
	}

	schedule, err := scheduleFor(mode, scheduledFor, now, job.DeactivatesAt)
	if err != nil {
		return nil, err
	}
	expiry := newExpiry(now, schedule, u.cfg.CredentialTTL, job.DeactivatesAt)

	var (
		committed *model.InterviewSession
		token     string
	)
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.tm.LockKey(ctx, tx, fmt.Sprintf("postpone:%s:%s", s.CandidateID, s.JobID)); err != nil {
			return err
		}
		cur, err := u.sessions.FindByIDForUpdate(ctx, tx, s.ID)
		if err != nil {
			return err
		}
		if !cur.IsActive() {
			return fmt.Errorf("%w: session %s is %s", domain.ErrInvalidSessionState, cur.ID, cur.Status)
		}
		n, err := u.sessions.CountPostponed(ctx, tx, cur.CandidateID, cur.JobID)
		if err != nil {
			return err
		}
		if n >= u.cfg.MaxPerJob {
			return fmt.Errorf("%w: %d prior postponements for this job", domain.ErrPostponeNotEligible, n)
		}

		if _, err := u.creds.RevokeAllForInvitation(ctx, tx, cur.InvitationID); err != nil {
			return err
		}
		cred := model.NewAccessCredential(uuid.NewString(), cur.InvitationID, expiry.Sub(now))
		cred.CreatedAt, cred.ExpiresAt = now, expiry
		if err := u.creds.Create(ctx, tx, cred); err != nil {
			return err
		}
		if token, err = u.tokens.Mint(cred.ID, cred.InvitationID, cred.ExpiresAt); err != nil {
			return err
		}

		cur.Ledger.AppendPostponement(model.PostponementMarker{
			Mode:         mode,
			ScheduledFor: schedule,
			NewExpiry:    expiry,
			At:           now,
		})
		if err := cur.Transition(model.InterviewPostponed, now); err != nil {
			return err
		}
		if err := u.sessions.Save(ctx, tx, cur); err != nil {
			return err
		}
		committed = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	link := u.accessLink(token)
	metrics.IncTransition(string(model.InterviewPostponed))
	u.notify(committed, ictx, mode, schedule, expiry, link)
	u.log.Info().Str("session_id", committed.ID).Str("mode", string(mode)).Time("new_expiry", expiry).Msg("interview postponed")

	return &PostponeResult{NewExpiry: expiry, Schedule: schedule, Mode: mode, AccessLink: link}, nil
}

func (u *postponeUC) notify(s *model.InterviewSession, ictx *model.InterviewContext, mode model.PostponeMode, schedule *time.Time, expiry time.Time, link string) {
	l := string(s.Language)
	when := u.bundle.T(l, "postpone_schedule_now")
	switch {
	case schedule != nil && mode == model.PostponePickDate:
		when = schedule.Format("2006-01-02")
	case schedule != nil:
		when = schedule.Format("2006-01-02 15:04 MST")
	}
	name := nonEmpty(ictx.Invitation.CandidateName, ictx.Resume.CandidateName)
	u.dispatch.Mail(
		ictx.Invitation.CandidateEmail,
		u.bundle.T(l, "postpone_email_subject", ictx.Job.Title),
		u.bundle.T(l, "postpone_email_body", name, ictx.Job.Title, when, expiry.Format("2006-01-02 15:04 MST"), link),
	)

	extra := map[string]any{"mode": string(mode), "new_expiry": expiry.Format(time.RFC3339)}
	if schedule != nil {
		extra["scheduled_for"] = schedule.Format(time.RFC3339)
	}
	u.dispatch.NotifySession(adapter.NotifyInterviewPostponed, s, name, ictx.Job.Title, extra)
}

func (u *postponeUC) accessLink(token string) string {
	if u.cfg.AccessLinkBaseURL == "" {
		return token
	}
	base, err := url.Parse(u.cfg.AccessLinkBaseURL)
	if err != nil {
		return u.cfg.AccessLinkBaseURL + "?token=" + url.QueryEscape(token)
	}
	q := base.Query()
	q.Set("token", token)
	base.RawQuery = q.Encode()
	return base.String()
}

// scheduleFor validates the requested date for the pick modes. Dates are
// compared as calendar days in UTC: [today, deactivation day - 1].
func scheduleFor(mode model.PostponeMode, requested *time.Time, now, deactivatesAt time.Time) (*time.Time, error) {
	if mode == model.PostponeImmediate {
		return nil, nil
	}
	if requested == nil {
		return nil, fmt.Errorf("%w: %s requires a date", domain.ErrInvalidArgument, mode)
	}
	day := calendarDay(*requested)
	first := calendarDay(now)
	last := calendarDay(deactivatesAt).AddDate(0, 0, -1)
	if day.Before(first) || day.After(last) {
		return nil, fmt.Errorf("%w: %s not within %s..%s", domain.ErrInvalidScheduleWindow,
			day.Format("2006-01-02"), first.Format("2006-01-02"), last.Format("2006-01-02"))
	}
	if mode == model.PostponePickDate {
		return &day, nil
	}
	at := requested.UTC()
	return &at, nil
}

// newExpiry gives the new credential ttl past the scheduled moment (or past
// now), never beyond the job's deactivation.
func newExpiry(now time.Time, schedule *time.Time, ttl time.Duration, deactivatesAt time.Time) time.Time {
	base := now
	if schedule != nil && schedule.After(now) {
		base = *schedule
	}
	exp := base.Add(ttl)
	if exp.After(deactivatesAt) {
		exp = deactivatesAt
	}
	return exp
}

func calendarDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
