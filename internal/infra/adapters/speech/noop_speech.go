package speech

import (
	"context"

	"github.com/rs/zerolog"

	"ai-interview-engine/internal/domain/ports/adapter"
)

var _ adapter.SpeechService = (*NoopSpeech)(nil)

// NoopSpeech is used in dev runs without a speech key. Audio is treated as
// UTF-8 text, which makes local end-to-end runs scriptable.
type NoopSpeech struct {
	log *zerolog.Logger
}

func NewNoopSpeech(logger *zerolog.Logger) *NoopSpeech {
	return &NoopSpeech{log: logger}
}

func (n *NoopSpeech) Transcribe(ctx context.Context, audio []byte, filename, languageHint string) (string, error) {
	n.log.Debug().Int("bytes", len(audio)).Str("file", filename).Msg("noop transcribe")
	return string(audio), ctx.Err()
}

func (n *NoopSpeech) Synthesize(ctx context.Context, text, voice, format, language string) ([]byte, string, error) {
	return nil, "", nil
}
