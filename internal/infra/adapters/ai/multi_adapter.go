package ai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ai-interview-engine/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*MultiAIAdapter)(nil)

var errNoProvider = errors.New("ai: no provider configured")

// MultiAIAdapter sends interview prompts to the provider that owns the
// requested model and, when that provider fails while the caller still has
// time, retries the remaining providers in name order. Retries pass an empty
// model so each provider uses its own default.
type MultiAIAdapter struct {
	defaultProvider string
	byProvider      map[string]adapter.AIServiceAdapter
	names           []string
}

func NewMultiAIAdapter(defaultProvider string, byProvider map[string]adapter.AIServiceAdapter) *MultiAIAdapter {
	names := make([]string, 0, len(byProvider))
	for n, a := range byProvider {
		if a != nil {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return &MultiAIAdapter{
		defaultProvider: strings.ToLower(defaultProvider),
		byProvider:      byProvider,
		names:           names,
	}
}

func (m *MultiAIAdapter) resolveProvider(model string) string {
	l := strings.ToLower(model)
	switch {
	case strings.HasPrefix(l, "gemini"):
		return "gemini"
	case strings.HasPrefix(l, "gpt"), strings.HasPrefix(l, "o1"), strings.HasPrefix(l, "o3"):
		return "openai"
	default:
		return m.defaultProvider
	}
}

// order lists providers to try: the owner of model first, then the rest.
func (m *MultiAIAdapter) order(model string) (owner string, names []string) {
	owner = m.resolveProvider(model)
	names = make([]string, 0, len(m.names))
	if m.byProvider[owner] != nil {
		names = append(names, owner)
	}
	for _, n := range m.names {
		if n != owner {
			names = append(names, n)
		}
	}
	return owner, names
}

func failover[T any](ctx context.Context, m *MultiAIAdapter, model string, call func(a adapter.AIServiceAdapter, model string) (T, error)) (T, error) {
	var zero T
	owner, names := m.order(model)
	if len(names) == 0 {
		return zero, errNoProvider
	}
	var errs error
	for _, n := range names {
		mdl := ""
		if n == owner {
			mdl = model
		}
		v, err := call(m.byProvider[n], mdl)
		if err == nil {
			return v, nil
		}
		errs = errors.Join(errs, fmt.Errorf("%s: %w", n, err))
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}
	return zero, errs
}

func (m *MultiAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return failover(ctx, m, model, func(a adapter.AIServiceAdapter, mdl string) (int, error) {
		return a.CountTokens(ctx, mdl, messages)
	})
}

func (m *MultiAIAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	return failover(ctx, m, model, func(a adapter.AIServiceAdapter, mdl string) (string, error) {
		return a.Chat(ctx, mdl, messages)
	})
}

type chatResult struct {
	text  string
	usage adapter.Usage
}

func (m *MultiAIAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	r, err := failover(ctx, m, model, func(a adapter.AIServiceAdapter, mdl string) (chatResult, error) {
		text, u, err := a.ChatWithUsage(ctx, mdl, messages)
		return chatResult{text: text, usage: u}, err
	})
	return r.text, r.usage, err
}
