package notifier

import (
	"context"
	"fmt"
	"unicode"
	"unicode/utf8"

	"sheet_reminder_bot/internal/domain/identity"
)

//go:generate mockgen -source=notifier.go -destination=notifier_mock.go -package=notifier

var ErrNoRecipients = fmt.Errorf("message has no recipients")

// Message is one outbound text addressed to one or more people.
type Message struct {
	Recipients []identity.Person
	Text       string
}

// Notifier delivers messages. It decouples the application from the chat
// backend in use.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// BatchSender is implemented by backends that can deliver several messages in
// a single call, such as a channel webhook.
type BatchSender interface {
	SendBatch(ctx context.Context, msgs []Message) error
}

// Capitalize upper-cases the first letter of text. Message texts are written
// to follow a mention; direct messages have none, so they start a sentence.
func Capitalize(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return text
	}
	return string(unicode.ToUpper(r)) + text[size:]
}
