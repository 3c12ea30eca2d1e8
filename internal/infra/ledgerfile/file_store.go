// Package ledgerfile keeps the notification ledger in a local JSON file.
package ledgerfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"
	"time"

	"sheet_reminder_bot/internal/domain/notification"

	"github.com/natefinch/atomic"
)

// legacyLayouts are timestamps written without a zone by older deployments;
// they are read in the reference zone.
var legacyLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// FileStore holds the whole ledger as one JSON object {key: RFC 3339 time}.
// Every change rewrites the file through a temp file and rename, so readers
// never see a partial document.
type FileStore struct {
	path string
	loc  *time.Location

	mu      sync.Mutex
	entries map[notification.Key]time.Time
}

func NewFileStore(path string, loc *time.Location) *FileStore {
	return &FileStore{path: path, loc: loc, entries: make(map[notification.Key]time.Time)}
}

// LoadAll reads the file. A missing file is an empty ledger. Entries whose
// timestamp cannot be read are dropped and reported in the returned error
// alongside the readable ones; a file that is not JSON yields nothing.
func (s *FileStore) LoadAll(_ context.Context) (map[notification.Key]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.entries = make(map[notification.Key]time.Time)
		return map[notification.Key]time.Time{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger file: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("corrupt ledger file %s: %w", s.path, err)
	}

	entries := make(map[notification.Key]time.Time, len(raw))
	var bad []string
	for k, v := range raw {
		t, ok := s.parseTime(v)
		if !ok {
			bad = append(bad, k)
			continue
		}
		entries[notification.Key(k)] = t
	}
	s.entries = entries

	out := copyEntries(entries)
	if len(bad) > 0 {
		sort.Strings(bad)
		return out, fmt.Errorf("ledger file %s: unreadable timestamps for %v", s.path, bad)
	}
	return out, nil
}

func (s *FileStore) parseTime(v string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.In(s.loc), true
	}
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, v, s.loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (s *FileStore) Put(_ context.Context, key notification.Key, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = sentAt
	return s.flush()
}

func (s *FileStore) Delete(_ context.Context, key notification.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return nil
	}
	delete(s.entries, key)
	return s.flush()
}

func (s *FileStore) flush() error {
	raw := make(map[string]string, len(s.entries))
	for k, t := range s.entries {
		raw[string(k)] = t.In(s.loc).Format(time.RFC3339)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	data = append(data, '\n')
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write ledger file: %w", err)
	}
	return nil
}

func copyEntries(in map[notification.Key]time.Time) map[notification.Key]time.Time {
	out := make(map[notification.Key]time.Time, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
