// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"sheet_reminder_bot/internal/domain/notifier"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

var ErrInvalidRecipient = errors.New("telegram recipient must be a numeric chat id")

// NewBot creates a send-only bot. No poller is started; the bot never reads updates.
func NewBot(token string, timeout time.Duration) (*telebot.Bot, error) {
	return newBot(telebot.Settings{
		Token:   token,
		Client:  &http.Client{Timeout: timeout},
		Offline: true,
	})
}

func newBot(pref telebot.Settings) (*telebot.Bot, error) {
	b, err := telebot.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("could not create Telegram bot: %w", err)
	}
	return b, nil
}

// TelebotAdapter implements notifier.Notifier using the gopkg.in/telebot.v3 library.
// Recipient IDs in the directory are Telegram chat ids.
type TelebotAdapter struct {
	bot    *telebot.Bot
	logger *logrus.Entry
}

func NewTelebotAdapter(b *telebot.Bot, logger *logrus.Entry) *TelebotAdapter {
	return &TelebotAdapter{bot: b, logger: logger}
}

// Send delivers the text to every recipient as a direct chat message.
func (tba *TelebotAdapter) Send(ctx context.Context, msg notifier.Message) error {
	if len(msg.Recipients) == 0 {
		return notifier.ErrNoRecipients
	}
	text := notifier.Capitalize(msg.Text)

	var errs []error
	for _, p := range msg.Recipients {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		chatID, err := strconv.ParseInt(p.RecipientID, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s has %q", ErrInvalidRecipient, p.Initials, p.RecipientID))
			continue
		}
		recipient := &telebot.User{ID: chatID} // direct user chat
		if _, err := tba.bot.Send(recipient, text, &telebot.SendOptions{DisableWebPagePreview: true}); err != nil {
			errs = append(errs, fmt.Errorf("telegram message to %s: %w", p.Initials, err))
			continue
		}
		tba.logger.WithField("initials", p.Initials).Debug("Sent Telegram message")
	}
	return errors.Join(errs...)
}
