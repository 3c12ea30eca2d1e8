// Package slack delivers notifications to Slack, either as posts to an
// incoming webhook or as direct messages from a bot user.
package slack

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sheet_reminder_bot/internal/domain/notifier"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
)

// WebhookNotifier posts to a channel through an incoming webhook. People are
// addressed with <@ID> mentions in front of the text.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *logrus.Entry
}

func NewWebhookNotifier(url string, timeout time.Duration, logger *logrus.Entry) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (n *WebhookNotifier) Send(ctx context.Context, msg notifier.Message) error {
	if len(msg.Recipients) == 0 {
		return notifier.ErrNoRecipients
	}
	return n.post(ctx, FormatMention(msg))
}

// SendBatch joins all messages into one post, one line per message.
func (n *WebhookNotifier) SendBatch(ctx context.Context, msgs []notifier.Message) error {
	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		if len(msg.Recipients) == 0 {
			continue
		}
		lines = append(lines, FormatMention(msg))
	}
	if len(lines) == 0 {
		return notifier.ErrNoRecipients
	}
	return n.post(ctx, strings.Join(lines, "\n"))
}

func (n *WebhookNotifier) post(ctx context.Context, text string) error {
	err := slack.PostWebhookCustomHTTPContext(ctx, n.url, n.client, &slack.WebhookMessage{Text: text})
	if err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	n.logger.WithField("length", len(text)).Debug("Posted to Slack webhook")
	return nil
}

// FormatMention renders msg as "<@U1> <@U2> text".
func FormatMention(msg notifier.Message) string {
	var b strings.Builder
	for _, p := range msg.Recipients {
		fmt.Fprintf(&b, "<@%s> ", p.RecipientID)
	}
	b.WriteString(msg.Text)
	return b.String()
}
