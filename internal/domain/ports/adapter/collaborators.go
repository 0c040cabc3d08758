package adapter

import (
	"context"
	"time"
)

// SpeechService converts candidate audio to text and interviewer text to audio.
type SpeechService interface {
	Transcribe(ctx context.Context, audio []byte, filename string, languageHint string) (string, error)
	Synthesize(ctx context.Context, text, voice, format, language string) (audio []byte, contentType string, err error)
}

// Notification kinds emitted on session transitions.
const (
	NotifyInterviewStarted   = "interview_started"
	NotifyInterviewCompleted = "interview_completed"
	NotifyInterviewCancelled = "interview_cancelled"
	NotifyInterviewPostponed = "interview_postponed"
)

// InboxNotifier is the agency inbox fan-out. Callers treat it as fire-and-forget.
type InboxNotifier interface {
	Notify(ctx context.Context, agencyID, kind string, payload map[string]any) error
}

// Mailer delivers plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Locker is a named mutual-exclusion lease with an owner token.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
