// internal/infra/database/postgres_ledger_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sheet_reminder_bot/internal/domain/notification"
)

const createLedgerTable = `
CREATE TABLE IF NOT EXISTS notification_ledger (
	key          TEXT PRIMARY KEY,
	last_sent_at TIMESTAMPTZ NOT NULL
)`

// PostgresLedgerRepository stores ledger entries one row per key.
type PostgresLedgerRepository struct {
	db *sql.DB
}

func NewPostgresLedgerRepository(db *sql.DB) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{db: db}
}

// EnsureSchema creates the ledger table when it does not exist yet.
func (r *PostgresLedgerRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createLedgerTable); err != nil {
		return fmt.Errorf("failed to create notification_ledger table: %w", err)
	}
	return nil
}

func (r *PostgresLedgerRepository) LoadAll(ctx context.Context) (map[notification.Key]time.Time, error) {
	query := `SELECT key, last_sent_at FROM notification_ledger`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification_ledger: %w", err)
	}
	defer rows.Close()

	entries := make(map[notification.Key]time.Time)
	for rows.Next() {
		var key string
		var sentAt time.Time
		if err := rows.Scan(&key, &sentAt); err != nil {
			return entries, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		entries[notification.Key(key)] = sentAt
	}
	if err = rows.Err(); err != nil {
		return entries, fmt.Errorf("error iterating ledger rows: %w", err)
	}
	return entries, nil
}

func (r *PostgresLedgerRepository) Put(ctx context.Context, key notification.Key, sentAt time.Time) error {
	query := `
		INSERT INTO notification_ledger (key, last_sent_at)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET last_sent_at = EXCLUDED.last_sent_at`
	if _, err := r.db.ExecContext(ctx, query, string(key), sentAt); err != nil {
		return fmt.Errorf("failed to upsert ledger entry %s: %w", key, err)
	}
	return nil
}

func (r *PostgresLedgerRepository) Delete(ctx context.Context, key notification.Key) error {
	query := `DELETE FROM notification_ledger WHERE key = $1`
	if _, err := r.db.ExecContext(ctx, query, string(key)); err != nil {
		return fmt.Errorf("failed to delete ledger entry %s: %w", key, err)
	}
	return nil
}
