package ai

import (
	"context"
	"time"

	"ai-interview-engine/internal/domain/ports/adapter"
	"ai-interview-engine/internal/infra/metrics"
)

var _ adapter.AIServiceAdapter = (*instrumentedAI)(nil)

type instrumentedAI struct {
	inner    adapter.AIServiceAdapter
	provider string
	model    string
}

// NewInstrumentedAI records token usage and latency for every chat call.
func NewInstrumentedAI(inner adapter.AIServiceAdapter, provider, defaultModel string) adapter.AIServiceAdapter {
	return &instrumentedAI{inner: inner, provider: provider, model: defaultModel}
}

func (i *instrumentedAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return i.inner.CountTokens(ctx, model, messages)
}

func (i *instrumentedAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := i.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (i *instrumentedAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	start := time.Now()
	reply, u, err := i.inner.ChatWithUsage(ctx, model, messages)
	metrics.ObserveChatUsage(i.provider, modelOrDefault(model, i.model),
		u.PromptTokens, u.CompletionTokens, u.TotalTokens,
		int(time.Since(start).Milliseconds()), err == nil)
	return reply, u, err
}
