// Package notify announces newly discovered posts.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"feed_kiosk/internal/metrics"
	"feed_kiosk/internal/model"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends a message per new post to a single chat.
type Telegram struct {
	api    telegramAPI
	chatID int64
	log    *slog.Logger
	pause  time.Duration
}

// NewTelegram creates a notifier with the given bot token.
func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return newTelegram(api, chatID, log), nil
}

func newTelegram(api telegramAPI, chatID int64, log *slog.Logger) *Telegram {
	return &Telegram{
		api:    api,
		chatID: chatID,
		log:    log,
		// Rate limit: ~20 messages/sec max for Telegram
		pause: 50 * time.Millisecond,
	}
}

// Notify sends one message per post. Send failures are logged and counted.
func (t *Telegram) Notify(ctx context.Context, posts []model.Post) {
	for i, p := range posts {
		if ctx.Err() != nil {
			return
		}
		if i > 0 && t.pause > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(t.pause):
			}
		}

		msg := tgbotapi.NewMessage(t.chatID, FormatNotification(p))
		if _, err := t.api.Send(msg); err != nil {
			metrics.NotifyErrorsTotal.Inc()
			t.log.Error("send notification", "chat_id", t.chatID, "post_id", p.ID, "error", err)
		}
	}
}

// FormatNotification formats a newly discovered post as a chat message.
func FormatNotification(p model.Post) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New post: %s\nby %s", p.DisplayTitle(), p.AuthorName())
	if p.Summary != "" {
		b.WriteString("\n\n")
		b.WriteString(p.Summary)
	}
	if p.URL != "" {
		b.WriteString("\n\n")
		b.WriteString(p.URL)
	}
	return b.String()
}
