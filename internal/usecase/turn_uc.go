package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-interview-engine/internal/domain"
	"ai-interview-engine/internal/domain/lang"
	"ai-interview-engine/internal/domain/model"
	"ai-interview-engine/internal/domain/ports/adapter"
	"ai-interview-engine/internal/domain/ports/repository"
	"ai-interview-engine/internal/infra/i18n"
	"ai-interview-engine/internal/infra/metrics"
)

// Compile-time check
var _ TurnUseCase = (*turnUC)(nil)

type TurnResult struct {
	Ended            bool
	NextQuestion     string
	ClosingMessage   string
	Transcript       string
	Audio            []byte
	AudioContentType string
	GroupIndex       int
}

type TurnUseCase interface {
	// CompleteTurn transcribes the answer group, records it and produces the
	// next question or the closing message. A nil group means the latest one.
	CompleteTurn(ctx context.Context, sessionID string, group *int) (*TurnResult, error)
}

type TurnConfig struct {
	TranscriptionTimeout time.Duration
	LockTTL              time.Duration
	AudioExtension       string
	SynthesizeReplies    bool
	Voice                string
	Format               string
}

type turnUC struct {
	sessions  repository.InterviewSessionRepository
	creds     repository.CredentialRepository
	resources ResourceUseCase
	audio     AudioBufferUseCase
	speech    adapter.SpeechService
	gen       QuestionGenerator
	locker    adapter.Locker
	tm        repository.TransactionManager
	dispatch  *Dispatcher
	bundle    *i18n.Bundle
	cfg       TurnConfig
	log       *zerolog.Logger
}

func NewTurnUseCase(
	sessions repository.InterviewSessionRepository,
	creds repository.CredentialRepository,
	resources ResourceUseCase,
	audio AudioBufferUseCase,
	speech adapter.SpeechService,
	gen QuestionGenerator,
	locker adapter.Locker,
	tm repository.TransactionManager,
	dispatch *Dispatcher,
	bundle *i18n.Bundle,
	cfg TurnConfig,
	logger *zerolog.Logger,
) *turnUC {
	if cfg.TranscriptionTimeout <= 0 {
		cfg.TranscriptionTimeout = 60 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	if cfg.AudioExtension == "" {
		cfg.AudioExtension = "webm"
	}
	l := logger.With().Str("component", "turn").Logger()
	return &turnUC{
		sessions: sessions, creds: creds, resources: resources, audio: audio,
		speech: speech, gen: gen, locker: locker, tm: tm, dispatch: dispatch,
		bundle: bundle, cfg: cfg, log: &l,
	}
}

var errLedgerAdvanced = errors.New("ledger changed while the turn was processed")

func (u *turnUC) CompleteTurn(ctx context.Context, sessionID string, group *int) (*TurnResult, error) {
	lockKey := "turn:" + sessionID
	token, err := u.locker.TryLock(ctx, lockKey, u.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockBusy) {
			return nil, fmt.Errorf("%w: turn already in progress for %s", domain.ErrInvalidSessionState, sessionID)
		}
		return nil, err
	}
	defer func() {
		if err := u.locker.Unlock(context.WithoutCancel(ctx), lockKey, token); err != nil {
			u.log.Warn().Err(err).Str("session_id", sessionID).Msg("turn unlock failed")
		}
	}()

	s, err := u.sessions.FindByID(ctx, repository.NoTX, sessionID)
	if err != nil {
		return nil, err
	}
	if !s.IsActive() {
		return nil, fmt.Errorf("%w: session %s is %s", domain.ErrInvalidSessionState, s.ID, s.Status)
	}
	log := u.log.With().Str("session_id", s.ID).Logger()

	g, err := u.resolveGroup(ctx, s.ChunkNamespace, group)
	if err != nil {
		return nil, err
	}
	if g <= s.LastGroup {
		return nil, fmt.Errorf("%w: group %d already transcribed (last %d)", domain.ErrInvalidSessionState, g, s.LastGroup)
	}
	loc, err := u.audio.Combine(ctx, s.ChunkNamespace, g)
	if err != nil {
		return nil, err
	}
	data, err := u.audio.Read(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("read combined audio: %w", err)
	}

	transcript, err := u.transcribe(ctx, s, g, data)
	if err != nil {
		metrics.IncTurn("failed")
		return nil, err
	}

	res, err := u.resources.Get(ctx, s.CredentialID)
	if err != nil {
		return nil, fmt.Errorf("load resources: %w", err)
	}

	// Decide on a copy; the stored ledger changes only inside the commit.
	draft := s.Ledger.Clone()
	answered := draft.RecordAnswer(transcript)
	closing := lang.IsSalaryQuestion(answered, s.Language)

	var reply string
	if closing {
		reply = u.bundle.T(string(s.Language), "closing_message", nonEmpty(res.Agency.Name, "us"))
	} else {
		reply = u.gen.GenerateNext(ctx, res, draft)
	}

	baseLen := len(s.Ledger)
	var committed *model.InterviewSession
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		cur, err := u.sessions.FindByIDForUpdate(ctx, tx, s.ID)
		if err != nil {
			return err
		}
		if !cur.IsActive() {
			return fmt.Errorf("%w: session %s is %s", domain.ErrInvalidSessionState, cur.ID, cur.Status)
		}
		if len(cur.Ledger) != baseLen || g <= cur.LastGroup {
			return fmt.Errorf("%w: %v", domain.ErrInvalidSessionState, errLedgerAdvanced)
		}
		cur.Ledger.RecordAnswer(transcript)
		cur.Ledger.PushQuestion(reply)
		cur.LastGroup = g
		cur.UpdatedAt = time.Now()
		if closing {
			if err := cur.Transition(model.InterviewCompleted, cur.UpdatedAt); err != nil {
				return err
			}
		}
		if err := u.sessions.Save(ctx, tx, cur); err != nil {
			return err
		}
		if closing {
			if err := u.creds.Invalidate(ctx, tx, cur.CredentialID); err != nil {
				return err
			}
		}
		committed = cur
		return nil
	})
	if err != nil {
		metrics.IncTurn("failed")
		return nil, err
	}

	out := &TurnResult{Ended: closing, Transcript: transcript, GroupIndex: g}
	if closing {
		out.ClosingMessage = reply
		metrics.IncTurn("closed")
		metrics.IncTransition(string(model.InterviewCompleted))
		u.dispatch.NotifySession(adapter.NotifyInterviewCompleted, committed, res.Resume.CandidateName, res.Job.Title, nil)
		log.Info().Int("turns", len(committed.Ledger.Turns())).Msg("interview closed on compensation topic")
	} else {
		out.NextQuestion = reply
		metrics.IncTurn("continued")
		if err := u.audio.EnsureGroup(ctx, s.ChunkNamespace, g+1); err != nil {
			log.Warn().Err(err).Int("group", g+1).Msg("could not pre-create next answer group")
		}
	}

	if u.cfg.SynthesizeReplies {
		audio, ct, err := u.speech.Synthesize(ctx, reply, u.cfg.Voice, u.cfg.Format, string(s.Language))
		if err != nil {
			log.Warn().Err(err).Msg("reply synthesis failed; returning text only")
		} else {
			out.Audio, out.AudioContentType = audio, ct
		}
	}
	return out, nil
}

func (u *turnUC) resolveGroup(ctx context.Context, namespace string, group *int) (int, error) {
	if group != nil {
		return *group, nil
	}
	g, err := u.audio.LatestGroup(ctx, namespace)
	if err != nil {
		return 0, err
	}
	if g < 1 {
		return 0, fmt.Errorf("%w: %s has no groups", domain.ErrGroupNotFound, namespace)
	}
	return g, nil
}

func (u *turnUC) transcribe(ctx context.Context, s *model.InterviewSession, group int, data []byte) (string, error) {
	start := time.Now()
	filename := fmt.Sprintf("g%04d.%s", group, u.cfg.AudioExtension)
	text, err := within(ctx, u.cfg.TranscriptionTimeout, func(ctx context.Context) (string, error) {
		return u.speech.Transcribe(ctx, data, filename, string(s.Language))
	})
	metrics.ObserveTranscription(string(s.Language), int(time.Since(start).Milliseconds()), err == nil)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return text, nil
}
