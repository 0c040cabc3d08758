package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ai-interview-engine/internal/domain"
	"ai-interview-engine/internal/domain/model"
	"ai-interview-engine/internal/infra/logging"
	red "ai-interview-engine/internal/infra/redis"
	"ai-interview-engine/internal/usecase"
)

// AttemptLimiter throttles start attempts per access token.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type StartLimit struct {
	Attempts int
	Window   time.Duration
}

// InterviewFacade is the surface a transport drives: one method per
// candidate action. Any limiter may be nil.
type InterviewFacade struct {
	Sessions  usecase.SessionUseCase
	Audio     usecase.AudioBufferUseCase
	Turns     usecase.TurnUseCase
	Postponer usecase.PostponeUseCase

	limiter AttemptLimiter
	limit   StartLimit
	log     *zerolog.Logger
}

func NewInterviewFacade(
	sessions usecase.SessionUseCase,
	audio usecase.AudioBufferUseCase,
	turns usecase.TurnUseCase,
	postpone usecase.PostponeUseCase,
	limiter AttemptLimiter,
	limit StartLimit,
	logger *zerolog.Logger,
) *InterviewFacade {
	if limit.Attempts <= 0 {
		limit.Attempts = 10
	}
	if limit.Window <= 0 {
		limit.Window = time.Minute
	}
	return &InterviewFacade{
		Sessions:  sessions,
		Audio:     audio,
		Turns:     turns,
		Postponer: postpone,
		limiter:   limiter,
		limit:     limit,
		log:       logging.Component(logger, "interview_facade"),
	}
}

// StartOrResume opens the interview behind token, or resumes it.
func (f *InterviewFacade) StartOrResume(ctx context.Context, token string) (*usecase.StartResult, error) {
	if f.limiter != nil {
		ok, err := f.limiter.Allow(ctx, red.AccessAttemptKey(token), f.limit.Attempts, f.limit.Window)
		if err != nil {
			// Limiter outage must not lock candidates out.
			f.log.Warn().Err(err).Msg("start limiter unavailable")
		} else if !ok {
			return nil, fmt.Errorf("%w: start", domain.ErrRateLimited)
		}
	}
	return f.Sessions.StartOrResume(ctx, token)
}

func (f *InterviewFacade) WriteChunk(ctx context.Context, sessionID string, group *int, data []byte) (usecase.ChunkReceipt, error) {
	return f.Audio.WriteChunk(ctx, sessionID, group, data)
}

func (f *InterviewFacade) CompleteTurn(ctx context.Context, sessionID string, group *int) (*usecase.TurnResult, error) {
	ctx = logging.WithSessionID(ctx, sessionID)
	defer logging.TraceDuration(logging.With(ctx, f.log), "InterviewFacade.CompleteTurn")()
	return f.Turns.CompleteTurn(ctx, sessionID, group)
}

func (f *InterviewFacade) Postpone(ctx context.Context, sessionID string, mode model.PostponeMode, scheduledFor *time.Time) (*usecase.PostponeResult, error) {
	return f.Postponer.Postpone(ctx, sessionID, mode, scheduledFor)
}

func (f *InterviewFacade) Cancel(ctx context.Context, sessionID string) error {
	return f.Sessions.Cancel(ctx, sessionID)
}

func (f *InterviewFacade) Complete(ctx context.Context, sessionID string) error {
	return f.Sessions.Complete(ctx, sessionID)
}

// Transcript returns the question/answer turns of a session with markers removed.
func (f *InterviewFacade) Transcript(ctx context.Context, sessionID string) ([]model.TurnEntry, model.InterviewStatus, error) {
	s, err := f.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	return s.Ledger.Turns(), s.Status, nil
}
