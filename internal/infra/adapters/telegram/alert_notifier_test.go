package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func TestAlertNotifier(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("should send the localized text with sorted fields", func(t *testing.T) {
		// Arrange
		fs := &fakeSender{}
		n := newAlertNotifierWithSender(fs, 42, &logger)

		// Act
		err := n.Notify(context.Background(), "ag-1", "interview_completed", map[string]any{
			"text":       "Interview completed",
			"session_id": "s-1",
			"job_id":     "j-1",
		})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(fs.sent) != 1 || fs.sent[0].ChatID != 42 {
			t.Fatalf("expected one message to chat 42, got %+v", fs.sent)
		}
		text := fs.sent[0].Text
		if !strings.HasPrefix(text, "Interview completed") {
			t.Errorf("unexpected text %q", text)
		}
		if strings.Index(text, "job_id") > strings.Index(text, "session_id") {
			t.Errorf("fields not sorted: %q", text)
		}
	})

	t.Run("should surface send errors", func(t *testing.T) {
		fs := &fakeSender{err: errors.New("boom")}
		n := newAlertNotifierWithSender(fs, 42, &logger)

		if err := n.Notify(context.Background(), "ag-1", "interview_started", nil); err == nil {
			t.Fatal("expected error")
		}
	})
}
