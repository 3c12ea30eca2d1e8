// Package lognotify is the dry-run notifier: messages are written to the log
// instead of being delivered.
package lognotify

import (
	"context"
	"strings"

	"sheet_reminder_bot/internal/domain/notifier"

	"github.com/sirupsen/logrus"
)

type Notifier struct {
	logger *logrus.Entry
}

func New(logger *logrus.Entry) *Notifier {
	return &Notifier{logger: logger}
}

func (n *Notifier) Send(_ context.Context, msg notifier.Message) error {
	if len(msg.Recipients) == 0 {
		return notifier.ErrNoRecipients
	}
	initials := make([]string, len(msg.Recipients))
	for i, p := range msg.Recipients {
		initials[i] = p.Initials
	}
	n.logger.WithFields(logrus.Fields{
		"recipients": strings.Join(initials, ","),
		"text":       msg.Text,
	}).Info("Dry run, notification not delivered")
	return nil
}
