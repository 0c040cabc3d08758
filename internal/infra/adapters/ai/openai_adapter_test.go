package ai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ai-interview-engine/internal/domain/ports/adapter"
	ai "ai-interview-engine/internal/infra/adapters/ai"
)

func TestOpenAIAdapter_ChatWithUsage(t *testing.T) {
	var (
		mu    sync.Mutex
		auths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auths = append(auths, r.Header.Get("Authorization"))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "Why Go?"},
			}},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15},
		})
	}))
	defer srv.Close()

	a, err := ai.NewOpenAIAdapter([]string{"k1", "k2"}, srv.URL+"/", "gpt-4o-mini", 64)
	if err != nil {
		t.Fatalf("constructor: %v", err)
	}
	msgs := []adapter.Message{{Role: "system", Content: "You interview."}, {Role: "user", Content: "Next?"}}

	t.Run("should return the reply and provider usage", func(t *testing.T) {
		// Act
		reply, u, err := a.ChatWithUsage(context.Background(), "", msgs)

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply != "Why Go?" {
			t.Errorf("expected reply %q, got %q", "Why Go?", reply)
		}
		if u.PromptTokens != 12 || u.CompletionTokens != 3 || u.TotalTokens != 15 {
			t.Errorf("unexpected usage: %+v", u)
		}
	})

	t.Run("should rotate api keys across calls", func(t *testing.T) {
		// Arrange
		mu.Lock()
		auths = nil
		mu.Unlock()

		// Act
		_, _ = a.Chat(context.Background(), "", msgs)
		_, _ = a.Chat(context.Background(), "", msgs)

		// Assert
		mu.Lock()
		defer mu.Unlock()
		if len(auths) != 2 || auths[0] == auths[1] {
			t.Fatalf("expected two distinct keys, got %v", auths)
		}
	})
}

func TestKeyRotator(t *testing.T) {
	t.Run("should reject an empty key list", func(t *testing.T) {
		if _, err := ai.NewKeyRotator([]string{" ", ""}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("should cycle through keys", func(t *testing.T) {
		r, _ := ai.NewKeyRotator([]string{"a", "b", "c"})
		got := []int{r.Next(), r.Next(), r.Next(), r.Next()}
		want := []int{0, 1, 2, 0}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, got)
			}
		}
	})
}

type slowAI struct {
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (s *slowAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return 0, nil
}
func (s *slowAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	r, _, err := s.ChatWithUsage(ctx, model, messages)
	return r, err
}
func (s *slowAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.peak {
		s.peak = s.inFlight
	}
	s.mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	return "ok", adapter.Usage{}, nil
}

func TestLimitedAI(t *testing.T) {
	t.Run("should cap concurrent calls", func(t *testing.T) {
		// Arrange
		inner := &slowAI{}
		limited := ai.NewLimitedAI(inner, 2)
		var wg sync.WaitGroup

		// Act
		for i := 0; i < 6; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = limited.Chat(context.Background(), "", nil)
			}()
		}
		wg.Wait()

		// Assert
		if inner.peak > 2 {
			t.Fatalf("expected at most 2 concurrent calls, got %d", inner.peak)
		}
	})

	t.Run("should give up waiting when the context ends", func(t *testing.T) {
		// Arrange
		inner := &slowAI{}
		limited := ai.NewLimitedAI(inner, 1)
		go func() { _, _ = limited.Chat(context.Background(), "", nil) }()
		time.Sleep(5 * time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancel()

		// Act
		_, err := limited.Chat(ctx, "", nil)

		// Assert
		if err == nil {
			t.Fatal("expected context error while queued")
		}
	})
}
