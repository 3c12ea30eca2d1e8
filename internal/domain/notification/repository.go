// internal/domain/notification/repository.go
package notification

import (
	"context"
	"time"
)

//go:generate mockgen -source=repository.go -destination=repository_mock.go -package=notification

// Store persists the ledger: a flat mapping from key to the time it was last sent.
type Store interface {
	// LoadAll returns every entry. Implementations may return the readable
	// subset together with an error describing what was skipped.
	LoadAll(ctx context.Context) (map[Key]time.Time, error)
	Put(ctx context.Context, key Key, sentAt time.Time) error
	Delete(ctx context.Context, key Key) error
}
