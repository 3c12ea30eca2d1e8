// Package pacing spaces out deliveries so a large cycle does not trip the
// chat backend's rate limits.
package pacing

import (
	"context"
	"fmt"

	"sheet_reminder_bot/internal/domain/notifier"

	"golang.org/x/time/rate"
)

// Notifier waits for a token before every call to the wrapped notifier.
type Notifier struct {
	next    notifier.Notifier
	limiter *rate.Limiter
}

// BatchNotifier is a paced notifier whose backend also delivers batches. A
// whole batch costs one token, matching the single call it makes.
type BatchNotifier struct {
	*Notifier
	batch notifier.BatchSender
}

// Wrap paces n at perSecond calls per second. The result implements
// notifier.BatchSender exactly when n does. perSecond <= 0 disables pacing.
func Wrap(n notifier.Notifier, perSecond float64) notifier.Notifier {
	if perSecond <= 0 {
		return n
	}
	p := &Notifier{next: n, limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
	if bs, ok := n.(notifier.BatchSender); ok {
		return &BatchNotifier{Notifier: p, batch: bs}
	}
	return p
}

func (p *Notifier) Send(ctx context.Context, msg notifier.Message) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send pacing: %w", err)
	}
	return p.next.Send(ctx, msg)
}

func (p *BatchNotifier) SendBatch(ctx context.Context, msgs []notifier.Message) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send pacing: %w", err)
	}
	return p.batch.SendBatch(ctx, msgs)
}
