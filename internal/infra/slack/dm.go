package slack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sheet_reminder_bot/internal/domain/notifier"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
)

// DMNotifier sends each recipient a direct message through chat.postMessage.
type DMNotifier struct {
	api    *slack.Client
	logger *logrus.Entry
}

func NewDMNotifier(token string, timeout time.Duration, logger *logrus.Entry, opts ...slack.Option) *DMNotifier {
	opts = append([]slack.Option{slack.OptionHTTPClient(&http.Client{Timeout: timeout})}, opts...)
	return &DMNotifier{
		api:    slack.New(token, opts...),
		logger: logger,
	}
}

// Send messages every recipient. Failures for one person do not stop the
// others; they are returned together.
func (n *DMNotifier) Send(ctx context.Context, msg notifier.Message) error {
	if len(msg.Recipients) == 0 {
		return notifier.ErrNoRecipients
	}
	text := notifier.Capitalize(msg.Text)

	var errs []error
	for _, p := range msg.Recipients {
		// Posting to a user ID opens (or reuses) the DM channel with them.
		_, _, err := n.api.PostMessageContext(ctx, p.RecipientID, slack.MsgOptionText(text, false))
		if err != nil {
			errs = append(errs, fmt.Errorf("slack DM to %s: %w", p.Initials, err))
			continue
		}
		n.logger.WithField("initials", p.Initials).Debug("Sent Slack DM")
	}
	return errors.Join(errs...)
}
