// Package cache keeps the notification ledger in a Redis hash.
package cache

import (
	"context"
	"fmt"
	"time"

	"sheet_reminder_bot/internal/domain/notification"

	"github.com/redis/go-redis/v9"
)

// DefaultLedgerHash is the hash holding every ledger entry.
const DefaultLedgerHash = "sheet_reminder:notification_ledger"

// RedisLedgerRepository stores ledger entries as fields of one hash, values in RFC 3339.
type RedisLedgerRepository struct {
	client *redis.Client
	hash   string
	loc    *time.Location
}

func NewRedisLedgerRepository(client *redis.Client, hash string, loc *time.Location) *RedisLedgerRepository {
	if hash == "" {
		hash = DefaultLedgerHash
	}
	return &RedisLedgerRepository{client: client, hash: hash, loc: loc}
}

// NewRedisClient parses a redis:// URL and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}
	return client, nil
}

func (r *RedisLedgerRepository) LoadAll(ctx context.Context) (map[notification.Key]time.Time, error) {
	raw, err := r.client.HGetAll(ctx, r.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger hash: %w", err)
	}
	entries := make(map[notification.Key]time.Time, len(raw))
	var firstErr error
	for k, v := range raw {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("unreadable timestamp for %s: %w", k, err)
			}
			continue
		}
		entries[notification.Key(k)] = t.In(r.loc)
	}
	return entries, firstErr
}

func (r *RedisLedgerRepository) Put(ctx context.Context, key notification.Key, sentAt time.Time) error {
	if err := r.client.HSet(ctx, r.hash, string(key), sentAt.In(r.loc).Format(time.RFC3339)).Err(); err != nil {
		return fmt.Errorf("failed to write ledger entry %s: %w", key, err)
	}
	return nil
}

func (r *RedisLedgerRepository) Delete(ctx context.Context, key notification.Key) error {
	if err := r.client.HDel(ctx, r.hash, string(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete ledger entry %s: %w", key, err)
	}
	return nil
}
