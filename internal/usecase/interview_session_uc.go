package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"ai-interview-engine/internal/domain"
	"ai-interview-engine/internal/domain/model"
	"ai-interview-engine/internal/domain/ports/adapter"
	"ai-interview-engine/internal/domain/ports/repository"
	"ai-interview-engine/internal/infra/i18n"
	"ai-interview-engine/internal/infra/metrics"
	"ai-interview-engine/internal/infra/security"
)

// Compile-time check
var _ SessionUseCase = (*sessionUC)(nil)

// AccessTokens mints and verifies signed access tokens.
type AccessTokens interface {
	Mint(credentialID, invitationID string, expiresAt time.Time) (string, error)
	Parse(token string) (*security.AccessClaims, error)
}

type StartResult struct {
	SessionID string
	Language  model.Language
	Question  string
	Resumed   bool
}

type SessionUseCase interface {
	StartOrResume(ctx context.Context, token string) (*StartResult, error)
	Cancel(ctx context.Context, sessionID string) error
	Complete(ctx context.Context, sessionID string) error
	Get(ctx context.Context, sessionID string) (*model.InterviewSession, error)
}

type sessionUC struct {
	tokens      AccessTokens
	creds       repository.CredentialRepository
	invitations repository.InvitationRepository
	sessions    repository.InterviewSessionRepository
	resources   ResourceUseCase
	audio       AudioBufferUseCase
	tm          repository.TransactionManager
	dispatch    *Dispatcher
	bundle      *i18n.Bundle
	locks       *KeyedMutex
	log         *zerolog.Logger
	now         func() time.Time
}

func NewSessionUseCase(
	tokens AccessTokens,
	creds repository.CredentialRepository,
	invitations repository.InvitationRepository,
	sessions repository.InterviewSessionRepository,
	resources ResourceUseCase,
	audio AudioBufferUseCase,
	tm repository.TransactionManager,
	dispatch *Dispatcher,
	bundle *i18n.Bundle,
	logger *zerolog.Logger,
) *sessionUC {
	l := logger.With().Str("component", "session").Logger()
	return &sessionUC{
		tokens:      tokens,
		creds:       creds,
		invitations: invitations,
		sessions:    sessions,
		resources:   resources,
		audio:       audio,
		tm:          tm,
		dispatch:    dispatch,
		bundle:      bundle,
		locks:       NewKeyedMutex(),
		log:         &l,
		now:         time.Now,
	}
}

func (u *sessionUC) StartOrResume(ctx context.Context, token string) (*StartResult, error) {
	claims, err := u.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	credentialID := claims.Subject

	// One start per credential at a time; the unique constraint on
	// credential_id covers other processes.
	unlock := u.locks.Lock("credential:" + credentialID)
	defer unlock()

	cred, err := u.creds.FindByID(ctx, repository.NoTX, credentialID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown credential", domain.ErrCredentialInvalid)
		}
		return nil, err
	}
	if cred.InvitationID != claims.InvitationID || !cred.Usable(u.now()) {
		return nil, fmt.Errorf("%w: credential %s", domain.ErrCredentialInvalid, cred.ID)
	}

	ictx, err := u.invitations.FindContext(ctx, repository.NoTX, cred.InvitationID)
	if err != nil {
		return nil, err
	}

	existing, err := u.sessions.FindByCredential(ctx, repository.NoTX, cred.ID)
	switch {
	case err == nil:
		return u.resume(ctx, existing, cred, ictx)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	res, err := u.resources.Ensure(ctx, cred, ictx)
	if err != nil {
		return nil, err
	}

	s := model.NewInterviewSession(uuid.NewString(), cred, ictx, res.Language, ulid.Make().String())
	s.Ledger.PushQuestion(u.openingQuestion(res))

	stored, created, err := u.sessions.Create(ctx, repository.NoTX, s)
	if err != nil {
		return nil, err
	}
	if !created {
		return u.resume(ctx, stored, cred, ictx)
	}

	if err := u.audio.EnsureGroup(ctx, s.ChunkNamespace, 1); err != nil {
		u.log.Warn().Err(err).Str("session_id", s.ID).Msg("could not pre-create first answer group")
	}
	metrics.IncTransition(string(model.InterviewActive))
	u.dispatch.NotifySession(adapter.NotifyInterviewStarted, s, ictx.Invitation.CandidateName, ictx.Job.Title, nil)
	u.log.Info().Str("session_id", s.ID).Str("credential_id", cred.ID).Str("language", string(s.Language)).Msg("interview started")

	q, _ := s.Ledger.Pending()
	return &StartResult{SessionID: s.ID, Language: s.Language, Question: q.Question}, nil
}

// resume returns the pending question of an existing active session after
// reconciling its language and agency with the current context. The row is
// re-read under lock so a concurrent finish or turn is never overwritten.
func (u *sessionUC) resume(ctx context.Context, s *model.InterviewSession, cred *model.AccessCredential, ictx *model.InterviewContext) (*StartResult, error) {
	if !s.IsActive() {
		return nil, fmt.Errorf("%w: session %s is %s", domain.ErrInvalidSessionState, s.ID, s.Status)
	}
	res, err := u.resources.Ensure(ctx, cred, ictx)
	if err != nil {
		return nil, err
	}

	var (
		cur     *model.InterviewSession
		changed bool
	)
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if cur, err = u.sessions.FindByIDForUpdate(ctx, tx, s.ID); err != nil {
			return err
		}
		if !cur.IsActive() {
			return fmt.Errorf("%w: session %s is %s", domain.ErrInvalidSessionState, cur.ID, cur.Status)
		}
		changed = cur.Reconcile(res.Language, ictx.Agency.ID)
		if _, ok := cur.Ledger.Pending(); !ok {
			// Last turn committed an answer but its question never landed.
			q := u.openingQuestion(res)
			if len(cur.Ledger.Turns()) > 0 {
				q = u.bundle.T(string(cur.Language), "fallback_question")
				if unused := res.UnusedQuestions(cur.Ledger); len(unused) > 0 {
					q = unused[0]
				}
			}
			cur.Ledger.PushQuestion(q)
			changed = true
		}
		if !changed {
			return nil
		}
		cur.UpdatedAt = u.now()
		return u.sessions.Save(ctx, tx, cur)
	})
	if err != nil {
		return nil, err
	}

	pending, _ := cur.Ledger.Pending()
	u.log.Info().Str("session_id", cur.ID).Bool("reconciled", changed).Msg("interview resumed")
	return &StartResult{SessionID: cur.ID, Language: cur.Language, Question: pending.Question, Resumed: true}, nil
}

func (u *sessionUC) openingQuestion(res *model.InterviewResources) string {
	if len(res.PreparedQuestions) > 0 {
		return res.PreparedQuestions[0]
	}
	l := string(res.Language)
	if name := res.Resume.CandidateName; name != "" {
		return u.bundle.T(l, "opening_question", name, res.Job.Title)
	}
	return u.bundle.T(l, "opening_question_anonymous", res.Job.Title)
}

func (u *sessionUC) Cancel(ctx context.Context, sessionID string) error {
	return u.finish(ctx, sessionID, model.InterviewCancelled, adapter.NotifyInterviewCancelled)
}

func (u *sessionUC) Complete(ctx context.Context, sessionID string) error {
	return u.finish(ctx, sessionID, model.InterviewCompleted, adapter.NotifyInterviewCompleted)
}

// finish moves the session to a terminal status and retires its credential
// in the same transaction.
func (u *sessionUC) finish(ctx context.Context, sessionID string, to model.InterviewStatus, kind string) error {
	var s *model.InterviewSession
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if s, err = u.sessions.FindByIDForUpdate(ctx, tx, sessionID); err != nil {
			return err
		}
		if err := s.Transition(to, u.now()); err != nil {
			return err
		}
		if err := u.sessions.Save(ctx, tx, s); err != nil {
			return err
		}
		return u.creds.Invalidate(ctx, tx, s.CredentialID)
	})
	if err != nil {
		return err
	}

	metrics.IncTransition(string(to))
	name, title := "", ""
	if res, err := u.resources.Get(ctx, s.CredentialID); err == nil {
		name, title = res.Resume.CandidateName, res.Job.Title
	}
	u.dispatch.NotifySession(kind, s, name, title, nil)
	u.log.Info().Str("session_id", s.ID).Str("status", string(to)).Msg("interview finished")
	return nil
}

func (u *sessionUC) Get(ctx context.Context, sessionID string) (*model.InterviewSession, error) {
	return u.sessions.FindByID(ctx, repository.NoTX, sessionID)
}
