package ai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-interview-engine/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAIAdapter)(nil)

// NoopAIAdapter answers locally for dev runs without provider keys. Prompts
// asking for a JSON list get a canned English question bank; everything else
// gets a single follow-up question.
type NoopAIAdapter struct {
	log *zerolog.Logger
}

func NewNoopAIAdapter(logger *zerolog.Logger) *NoopAIAdapter {
	return &NoopAIAdapter{log: logger}
}

var noopQuestions = []string{
	"Can you walk me through your most recent role?",
	"Which project are you most proud of and why?",
	"How do you approach learning a new technology?",
	"Describe a disagreement with a teammate and how you resolved it.",
	"What are your salary expectations for this position?",
}

func (a *NoopAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	n := 0
	for _, m := range messages {
		n += len(strings.Fields(m.Content))
	}
	return n, nil
}

func (a *NoopAIAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := a.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (a *NoopAIAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	// Simulate slight processing time and respect ctx
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return "", adapter.Usage{}, ctx.Err()
	}
	var prompt string
	if len(messages) > 0 {
		prompt = messages[len(messages)-1].Content
	}
	a.log.Debug().Int("messages", len(messages)).Msg("noop ai chat")

	reply := "Could you tell me more about that?"
	if strings.Contains(strings.ToLower(prompt), "json") {
		b, _ := json.Marshal(map[string][]string{"questions": noopQuestions})
		reply = string(b)
	}
	n, _ := a.CountTokens(ctx, model, messages)
	out := len(strings.Fields(reply))
	return reply, adapter.Usage{PromptTokens: n, CompletionTokens: out, TotalTokens: n + out}, nil
}
