package usecase

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"ai-interview-engine/internal/domain"
	"ai-interview-engine/internal/domain/ports/repository"
	"ai-interview-engine/internal/infra/metrics"
)

// Compile-time check
var _ AudioBufferUseCase = (*audioBufferUC)(nil)

// ChunkReceipt acknowledges one accepted chunk.
type ChunkReceipt struct {
	Namespace string
	Group     int
	Seq       int
	Size      int
}

type AudioBufferUseCase interface {
	// WriteChunk appends to the session's namespace; the session must be active.
	WriteChunk(ctx context.Context, sessionID string, group *int, data []byte) (ChunkReceipt, error)
	// WriteChunkTo appends to namespace. A nil group targets the latest group, or 1.
	WriteChunkTo(ctx context.Context, namespace string, group *int, data []byte) (ChunkReceipt, error)
	// Combine concatenates a group's chunks in accepted order and returns the artifact location.
	Combine(ctx context.Context, namespace string, group int) (string, error)
	Read(ctx context.Context, location string) ([]byte, error)
	LatestGroup(ctx context.Context, namespace string) (int, error)
	EnsureGroup(ctx context.Context, namespace string, group int) error
}

type audioBufferUC struct {
	store    repository.AudioChunkStore
	sessions repository.InterviewSessionRepository
	locks    *KeyedMutex
	log      *zerolog.Logger
}

func NewAudioBufferUseCase(store repository.AudioChunkStore, sessions repository.InterviewSessionRepository, logger *zerolog.Logger) *audioBufferUC {
	l := logger.With().Str("component", "audio_buffer").Logger()
	return &audioBufferUC{store: store, sessions: sessions, locks: NewKeyedMutex(), log: &l}
}

func (u *audioBufferUC) WriteChunk(ctx context.Context, sessionID string, group *int, data []byte) (ChunkReceipt, error) {
	s, err := u.sessions.FindByID(ctx, repository.NoTX, sessionID)
	if err != nil {
		return ChunkReceipt{}, err
	}
	if !s.IsActive() {
		return ChunkReceipt{}, fmt.Errorf("%w: session %s is %s", domain.ErrInvalidSessionState, s.ID, s.Status)
	}
	return u.WriteChunkTo(ctx, s.ChunkNamespace, group, data)
}

func (u *audioBufferUC) WriteChunkTo(ctx context.Context, namespace string, group *int, data []byte) (ChunkReceipt, error) {
	if len(data) == 0 {
		return ChunkReceipt{}, fmt.Errorf("%w: empty chunk", domain.ErrInvalidArgument)
	}
	g, err := u.resolveGroup(ctx, namespace, group)
	if err != nil {
		return ChunkReceipt{}, err
	}

	unlock := u.locks.Lock(groupKey(namespace, g))
	defer unlock()

	seq, err := u.store.Append(ctx, namespace, g, data)
	if err != nil {
		return ChunkReceipt{}, fmt.Errorf("append chunk: %w", err)
	}
	metrics.ObserveChunk(len(data))
	return ChunkReceipt{Namespace: namespace, Group: g, Seq: seq, Size: len(data)}, nil
}

func (u *audioBufferUC) Combine(ctx context.Context, namespace string, group int) (string, error) {
	if group < 1 {
		return "", fmt.Errorf("%w: group %d", domain.ErrInvalidArgument, group)
	}
	// Holding the group lock keeps a concurrent append out of the artifact.
	unlock := u.locks.Lock(groupKey(namespace, group))
	defer unlock()

	chunks, err := u.store.Chunks(ctx, namespace, group)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("%w: %s group %d", domain.ErrGroupNotFound, namespace, group)
	}
	loc, err := u.store.WriteCombined(ctx, namespace, group, bytes.Join(chunks, nil))
	if err != nil {
		return "", fmt.Errorf("write combined: %w", err)
	}
	u.log.Debug().Str("namespace", namespace).Int("group", group).Int("chunks", len(chunks)).Msg("group combined")
	return loc, nil
}

func (u *audioBufferUC) Read(ctx context.Context, location string) ([]byte, error) {
	return u.store.ReadCombined(ctx, location)
}

func (u *audioBufferUC) LatestGroup(ctx context.Context, namespace string) (int, error) {
	return u.store.LatestGroup(ctx, namespace)
}

func (u *audioBufferUC) EnsureGroup(ctx context.Context, namespace string, group int) error {
	return u.store.EnsureGroup(ctx, namespace, group)
}

func (u *audioBufferUC) resolveGroup(ctx context.Context, namespace string, group *int) (int, error) {
	if group != nil {
		if *group < 1 {
			return 0, fmt.Errorf("%w: group %d", domain.ErrInvalidArgument, *group)
		}
		return *group, nil
	}
	latest, err := u.store.LatestGroup(ctx, namespace)
	if err != nil {
		return 0, err
	}
	if latest < 1 {
		return 1, nil
	}
	return latest, nil
}

func groupKey(namespace string, group int) string {
	return fmt.Sprintf("%s/%d", namespace, group)
}
