package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"sheet_reminder_bot/internal/domain/identity"
	"sheet_reminder_bot/internal/domain/notification"
	"sheet_reminder_bot/internal/domain/notifier"
	"sheet_reminder_bot/internal/domain/sheet"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	return loc
}

// friday is a working day; the sheet dates in these tests are relative to it.
func friday(loc *time.Location) time.Time {
	return time.Date(2025, time.December, 5, 10, 0, 0, 0, loc)
}

func saturday(loc *time.Location) time.Time {
	return time.Date(2025, time.December, 6, 10, 0, 0, 0, loc)
}

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func testDirectory() *identity.Directory {
	return identity.NewDirectory(
		map[string]string{"CF": "UCF", "DI": "UDI", "JS": "UJS", "CC": "UCC"},
		map[string]string{"MS": "UMS"},
		[]string{"CC", "AH"},
	)
}

var (
	personCF = identity.Person{Initials: "CF", RecipientID: "UCF"}
	personDI = identity.Person{Initials: "DI", RecipientID: "UDI"}
	personJS = identity.Person{Initials: "JS", RecipientID: "UJS"}
)

// cells lays out a tracker line: A and B unused, then assignee, reviewer,
// ETA, secondary flag and status.
func cells(assignee, reviewer, eta, secondary, status string) []string {
	return []string{"", "", assignee, reviewer, eta, secondary, status}
}

func mkRow(n int, assignee, reviewer, eta, secondary, status string) sheet.Row {
	return mkRowFrom(n, cells(assignee, reviewer, eta, secondary, status))
}

func mkRowFrom(n int, raw []string) sheet.Row {
	return sheet.NewRow(n, raw, sheet.DefaultLayout)
}

// memStore is an in-memory notification.Store.
type memStore struct {
	entries map[notification.Key]time.Time
	puts    int
	deletes int
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[notification.Key]time.Time)}
}

func (s *memStore) LoadAll(context.Context) (map[notification.Key]time.Time, error) {
	out := make(map[notification.Key]time.Time, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) Put(_ context.Context, key notification.Key, sentAt time.Time) error {
	s.entries[key] = sentAt
	s.puts++
	return nil
}

func (s *memStore) Delete(_ context.Context, key notification.Key) error {
	delete(s.entries, key)
	s.deletes++
	return nil
}

// fakeNotifier records every delivered message and fails for chosen initials.
type fakeNotifier struct {
	sent   []notifier.Message
	failOn map[string]bool
}

func (f *fakeNotifier) Send(_ context.Context, msg notifier.Message) error {
	for _, p := range msg.Recipients {
		if f.failOn[p.Initials] {
			return errors.New("channel_not_found")
		}
	}
	f.sent = append(f.sent, msg)
	return nil
}

// fakeBatchNotifier posts a whole batch in one call, like a channel webhook.
type fakeBatchNotifier struct {
	fakeNotifier
	batches [][]notifier.Message
	failAll bool
}

func (f *fakeBatchNotifier) SendBatch(_ context.Context, msgs []notifier.Message) error {
	if f.failAll {
		return errors.New("webhook returned 500")
	}
	f.batches = append(f.batches, msgs)
	return nil
}

func newTestLedger(t *testing.T, store notification.Store, clock *testClock) *Ledger {
	t.Helper()
	return NewLedger(context.Background(), store, testLocation(t), clock.Now, discardLogger())
}
