//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-interview-engine/internal/domain"
	"ai-interview-engine/internal/domain/model"
	"ai-interview-engine/internal/domain/ports/adapter"
	"ai-interview-engine/internal/domain/ports/repository"
	"ai-interview-engine/internal/infra/lock"
)

const salaryQuestionEN = "What are your salary expectations?"

// nextReply makes the AI return q for every next-question prompt while the
// default bank stays in place.
func nextReply(h *harness, q string) {
	h.ai.ChatFunc = func(ctx context.Context, m string, msgs []adapter.Message) (string, error) {
		if wantsQuestionBank(msgs) {
			return `{"questions": ["Tell me about your experience with Go.", "How do you approach code reviews?", "What are your salary expectations?"]}`, nil
		}
		return q, nil
	}
}

func TestTurnUseCase_CompleteTurn(t *testing.T) {
	t.Run("should record the answer and leave exactly one new question pending", func(t *testing.T) {
		// --- Arrange ---
		h := newHarness(t)
		res := h.start()
		h.answer(res.SessionID, "I have built ")
		h.answer(res.SessionID, "payment services in Go.")

		// --- Act ---
		out, err := h.turnUC(nil).CompleteTurn(h.ctx, res.SessionID, nil)

		// --- Assert ---
		if err != nil {
			t.Fatalf("complete turn: %v", err)
		}
		if out.Ended {
			t.Fatal("did not expect the interview to end")
		}
		if out.Transcript != "I have built payment services in Go." {
			t.Errorf("chunks not combined in order: %q", out.Transcript)
		}
		if out.NextQuestion != "What motivates you in this role?" {
			t.Errorf("unexpected next question %q", out.NextQuestion)
		}
		s := h.session(res.SessionID)
		turns := s.Ledger.Turns()
		if len(turns) != 2 {
			t.Fatalf("expected 2 ledger entries, got %d", len(turns))
		}
		if turns[0].Answer != out.Transcript {
			t.Errorf("answer not recorded on the opening question: %+v", turns[0])
		}
		if s.Ledger.PendingCount() != 1 {
			t.Errorf("expected one pending question, got %d", s.Ledger.PendingCount())
		}
		if latest, _ := h.chunks.LatestGroup(h.ctx, s.ChunkNamespace); latest != 2 {
			t.Errorf("expected next answer group 2 to be prepared, latest=%d", latest)
		}
	})

	t.Run("should reject a repeated boundary for an already transcribed group", func(t *testing.T) {
		// --- Arrange ---
		h := newHarness(t)
		res := h.start()
		uc := h.turnUC(nil)
		h.answer(res.SessionID, "Ten years of backend work.")
		group := 1
		if _, err := uc.CompleteTurn(h.ctx, res.SessionID, &group); err != nil {
			t.Fatalf("first turn: %v", err)
		}
		transcribed := 0
		h.speech.TranscribeFunc = func(ctx context.Context, audio []byte, filename, hint string) (string, error) {
			transcribed++
			return string(audio), nil
		}
		before := h.session(res.SessionID)

		// --- Act ---
		_, err := uc.CompleteTurn(h.ctx, res.SessionID, &group)

		// --- Assert ---
		if !errors.Is(err, domain.ErrInvalidSessionState) {
			t.Fatalf("expected ErrInvalidSessionState, got %v", err)
		}
		if transcribed != 0 {
			t.Errorf("expected no transcription for a stale group, got %d", transcribed)
		}
		after := h.session(res.SessionID)
		if after.LastGroup != 1 {
			t.Errorf("expected last group 1, got %d", after.LastGroup)
		}
		pending, ok := after.Ledger.Pending()
		if !ok || pending.Answer != "" || len(after.Ledger) != len(before.Ledger) {
			t.Errorf("expected the pending second question untouched, got %+v", after.Ledger)
		}
	})

	t.Run("should close the interview after the salary answer in english", func(t *testing.T) {
		// --- Arrange ---
		h := newHarness(t)
		nextReply(h, salaryQuestionEN)
		res := h.start()
		uc := h.turnUC(nil)
		h.answer(res.SessionID, "Mostly Go and Postgres.")
		first, err := uc.CompleteTurn(h.ctx, res.SessionID, nil)
		if err != nil || first.NextQuestion != salaryQuestionEN {
			t.Fatalf("setup turn: %v %+v", err, first)
		}
		h.answer(res.SessionID, "Around the market rate.")

		// --- Act ---
		out, err := uc.CompleteTurn(h.ctx, res.SessionID, nil)

		// --- Assert ---
		if err != nil {
			t.Fatalf("closing turn: %v", err)
		}
		if !out.Ended {
			t.Fatal("expected the interview to end")
		}
		if want := h.bundle.T("en", "closing_message", "Acme"); out.ClosingMessage != want {
			t.Errorf("expected closing %q, got %q", want, out.ClosingMessage)
		}
		s := h.session(res.SessionID)
		if s.Status != model.InterviewCompleted {
			t.Errorf("expected completed, got %s", s.Status)
		}
		cred, _ := h.creds.FindByID(h.ctx, repository.NoTX, testCredential)
		if cred.Usable(time.Now()) {
			t.Error("expected credential to be invalidated on completion")
		}
		kinds := h.inbox.kinds()
		if kinds[len(kinds)-1] != adapter.NotifyInterviewCompleted {
			t.Errorf("expected a completed notification, got %v", kinds)
		}
	})

	t.Run("should close the interview after the salary answer in arabic", func(t *testing.T) {
		// --- Arrange ---
		h := newHarness(t)
		h.setLanguage(model.LanguageArabic, "مهندس خلفية", "بناء خدمات")
		h.ai.ChatFunc = func(ctx context.Context, m string, msgs []adapter.Message) (string, error) {
			if wantsQuestionBank(msgs) {
				return `{"questions": ["حدثني عن خبرتك في تطوير الخدمات."]}`, nil
			}
			return "ما هي توقعاتك بخصوص الراتب؟", nil
		}
		res := h.start()
		uc := h.turnUC(nil)
		h.answer(res.SessionID, "عملت على خدمات الدفع")
		if _, err := uc.CompleteTurn(h.ctx, res.SessionID, nil); err != nil {
			t.Fatalf("setup turn: %v", err)
		}
		h.answer(res.SessionID, "حسب السوق")

		// --- Act ---
		out, err := uc.CompleteTurn(h.ctx, res.SessionID, nil)

		// --- Assert ---
		if err != nil {
			t.Fatalf("closing turn: %v", err)
		}
		if !out.Ended {
			t.Fatal("expected the arabic interview to end on the salary topic")
		}
		if want := h.bundle.T("ar", "closing_message", "Acme"); out.ClosingMessage != want {
			t.Errorf("expected arabic closing %q, got %q", want, out.ClosingMessage)
		}
	})

	t.Run("should fail with ErrGroupNotFound when the group has no chunks", func(t *testing.T) {
		// --- Arrange ---
		h := newHarness(t)
		res := h.start()

		// --- Act ---
		_, err := h.turnUC(nil).CompleteTurn(h.ctx, res.SessionID, nil)

		// --- Assert ---
		if !errors.Is(err, domain.ErrGroupNotFound) {
			t.Errorf("expected ErrGroupNotFound, got %v", err)
		}
	})

	t.Run("should leave the ledger untouched when transcription times out", func(t *testing.T) {
		// --- Arrange ---
		h := newHarness(t)
		h.turnCfg.TranscriptionTimeout = 20 * time.Millisecond
		h.speech.TranscribeFunc = func(ctx context.Context, audio []byte, filename, hint string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}
		res := h.start()
		h.answer(res.SessionID, "hello")
		before := h.session(res.SessionID).Ledger

		// --- Act ---
		_, err := h.turnUC(nil).CompleteTurn(h.ctx, res.SessionID, nil)

		// --- Assert ---
		if !errors.Is(err, domain.ErrUpstreamTimeout) {
			t.Fatalf("expected ErrUpstreamTimeout, got %v", err)
		}
		after := h.session(res.SessionID).Ledger
		if len(after) != len(before) || after.PendingCount() != 1 {
			t.Errorf("ledger changed on failure: before=%+v after=%+v", before, after)
		}
	})

	t.Run("should reject a concurrent turn on the same session", func(t *testing.T) {
		// --- Arrange ---
		h := newHarness(t)
		res := h.start()
		h.answer(res.SessionID, "hello")
		locker := lock.NewLocal()
		if _, err := locker.TryLock(h.ctx, "turn:"+res.SessionID, time.Minute); err != nil {
			t.Fatalf("pre-lock: %v", err)
		}

		// --- Act ---
		_, err := h.turnUC(locker).CompleteTurn(h.ctx, res.SessionID, nil)

		// --- Assert ---
		if !errors.Is(err, domain.ErrInvalidSessionState) {
			t.Errorf("expected ErrInvalidSessionState, got %v", err)
		}
	})

	t.Run("should fall back to the canned question when generation times out", func(t *testing.T) {
		// --- Arrange ---
		h := newHarness(t)
		h.genCfg.NextTimeout = 20 * time.Millisecond
		h.ai.ChatFunc = func(ctx context.Context, m string, msgs []adapter.Message) (string, error) {
			if wantsQuestionBank(msgs) {
				return `{"questions": ["Tell me about your experience with Go.", "How do you approach code reviews?"]}`, nil
			}
			<-ctx.Done()
			return "", ctx.Err()
		}
		res := h.start()
		h.answer(res.SessionID, "Plenty.")

		// --- Act ---
		out, err := h.turnUC(nil).CompleteTurn(h.ctx, res.SessionID, nil)

		// --- Assert ---
		if err != nil {
			t.Fatalf("complete turn: %v", err)
		}
		if want := h.bundle.T("en", "fallback_question"); out.NextQuestion != want {
			t.Errorf("expected canned fallback %q even with prepared questions left, got %q", want, out.NextQuestion)
		}
	})

	t.Run("should synthesize the reply when enabled", func(t *testing.T) {
		// --- Arrange ---
		h := newHarness(t)
		h.turnCfg.SynthesizeReplies = true
		res := h.start()
		h.answer(res.SessionID, "Plenty.")

		// --- Act ---
		out, err := h.turnUC(nil).CompleteTurn(h.ctx, res.SessionID, nil)

		// --- Assert ---
		if err != nil {
			t.Fatalf("complete turn: %v", err)
		}
		if !strings.Contains(string(out.Audio), out.NextQuestion) || out.AudioContentType != "audio/mpeg" {
			t.Errorf("expected synthesized audio of the reply, got %q (%s)", out.Audio, out.AudioContentType)
		}
	})

	t.Run("should reject turns on a finished session", func(t *testing.T) {
		// --- Arrange ---
		h := newHarness(t)
		res := h.start()
		h.answer(res.SessionID, "hello")
		if err := h.sessionUC().Cancel(h.ctx, res.SessionID); err != nil {
			t.Fatalf("cancel: %v", err)
		}

		// --- Act ---
		_, err := h.turnUC(nil).CompleteTurn(h.ctx, res.SessionID, nil)

		// --- Assert ---
		if !errors.Is(err, domain.ErrInvalidSessionState) {
			t.Errorf("expected ErrInvalidSessionState, got %v", err)
		}
	})
}
