// internal/app/ledger.go
package app

import (
	"context"
	"time"

	"sheet_reminder_bot/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

// Clock returns the current time. Tests pin it; production passes time.Now.
type Clock func() time.Time

// Ledger remembers when each notification key was last sent. It is read fully
// at construction and every mutation is persisted immediately. Storage failures
// never propagate: losing dedup state only costs extra notifications.
type Ledger struct {
	store   notification.Store
	loc     *time.Location
	now     Clock
	logger  *logrus.Entry
	entries map[notification.Key]time.Time
}

func NewLedger(ctx context.Context, store notification.Store, loc *time.Location, now Clock, logger *logrus.Entry) *Ledger {
	entries, err := store.LoadAll(ctx)
	if err != nil {
		logger.WithError(err).Error("Could not fully load notification ledger; continuing with what was readable")
	}
	if entries == nil {
		entries = make(map[notification.Key]time.Time)
	}
	logger.WithField("entries", len(entries)).Info("Notification ledger loaded")
	return &Ledger{
		store:   store,
		loc:     loc,
		now:     now,
		logger:  logger,
		entries: entries,
	}
}

// ShouldNotify is true when key was never sent or at least interval has passed since.
func (l *Ledger) ShouldNotify(key notification.Key, interval time.Duration) bool {
	last, ok := l.entries[key]
	if !ok {
		return true
	}
	return l.now().In(l.loc).Sub(last) >= interval
}

// LastSent reports the recorded send time of key.
func (l *Ledger) LastSent(key notification.Key) (time.Time, bool) {
	t, ok := l.entries[key]
	return t, ok
}

// MarkNotified records now as the last send time of key.
func (l *Ledger) MarkNotified(ctx context.Context, key notification.Key) {
	sentAt := l.now().In(l.loc)
	l.entries[key] = sentAt
	if err := l.store.Put(ctx, key, sentAt); err != nil {
		l.logger.WithError(err).WithField("key", key).Error("Failed to persist notification ledger entry")
		return
	}
	l.logger.WithFields(logrus.Fields{
		"key":     key,
		"sent_at": sentAt.Format(time.RFC3339),
	}).Info("Marked as notified")
}

// Clear forgets key so its next trigger notifies immediately. Clearing an
// absent key does nothing and does not touch storage.
func (l *Ledger) Clear(ctx context.Context, key notification.Key) {
	if _, ok := l.entries[key]; !ok {
		return
	}
	delete(l.entries, key)
	if err := l.store.Delete(ctx, key); err != nil {
		l.logger.WithError(err).WithField("key", key).Error("Failed to persist notification ledger removal")
		return
	}
	l.logger.WithField("key", key).Info("Cleared notification state")
}

func (l *Ledger) Len() int { return len(l.entries) }
