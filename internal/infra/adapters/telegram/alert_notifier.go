package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"ai-interview-engine/internal/domain/ports/adapter"
)

var _ adapter.InboxNotifier = (*AlertNotifier)(nil)

// sender is the slice of tgbotapi.BotAPI the notifier needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// AlertNotifier mirrors agency inbox events into an operator Telegram chat.
type AlertNotifier struct {
	bot    sender
	chatID int64
	log    *zerolog.Logger
}

func NewAlertNotifier(token string, chatID int64, logger *zerolog.Logger) (*AlertNotifier, error) {
	if token == "" {
		return nil, errors.New("telegram token is empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram alert chat id is empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &AlertNotifier{bot: bot, chatID: chatID, log: logger}, nil
}

func newAlertNotifierWithSender(bot sender, chatID int64, logger *zerolog.Logger) *AlertNotifier {
	return &AlertNotifier{bot: bot, chatID: chatID, log: logger}
}

func (n *AlertNotifier) Notify(ctx context.Context, agencyID, kind string, payload map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, formatAlert(agencyID, kind, payload))
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	n.log.Debug().Str("agency_id", agencyID).Str("kind", kind).Msg("telegram alert sent")
	return nil
}

// formatAlert prefers the localized "text" payload entry and lists the
// remaining scalar fields in key order.
func formatAlert(agencyID, kind string, payload map[string]any) string {
	var b strings.Builder
	if text, ok := payload["text"].(string); ok && text != "" {
		b.WriteString(text)
	} else {
		b.WriteString(kind)
	}
	b.WriteString("\nagency: ")
	b.WriteString(agencyID)

	keys := make([]string, 0, len(payload))
	for k := range payload {
		if k != "text" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s: %v", k, payload[k])
	}
	return b.String()
}
