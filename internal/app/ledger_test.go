package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"sheet_reminder_bot/internal/domain/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestLedger_RoundTrip(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{t: friday(testLocation(t))}
	store := newMemStore()
	ledger := newTestLedger(t, store, clock)
	key := notification.RowKey(4)

	assert.True(t, ledger.ShouldNotify(key, time.Hour), "absent key notifies immediately")

	ledger.MarkNotified(ctx, key)
	assert.False(t, ledger.ShouldNotify(key, 365*24*time.Hour))
	assert.Equal(t, 1, store.puts)
	assert.Contains(t, store.entries, key)

	ledger.Clear(ctx, key)
	assert.True(t, ledger.ShouldNotify(key, 365*24*time.Hour))
	assert.True(t, ledger.ShouldNotify(key, 0))
	assert.NotContains(t, store.entries, key)
	assert.Equal(t, 1, store.deletes)
}

func TestLedger_IntervalBoundary(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{t: friday(testLocation(t))}
	ledger := newTestLedger(t, newMemStore(), clock)
	key := notification.OverdueBatchKey
	interval := 3 * time.Hour

	ledger.MarkNotified(ctx, key)

	clock.Advance(interval - time.Second)
	assert.False(t, ledger.ShouldNotify(key, interval))

	clock.Advance(time.Second)
	assert.True(t, ledger.ShouldNotify(key, interval), "exactly one interval later is due")
}

func TestLedger_ClearAbsentKeyDoesNotWrite(t *testing.T) {
	store := newMemStore()
	ledger := newTestLedger(t, store, &testClock{t: friday(testLocation(t))})

	ledger.Clear(context.Background(), notification.RowKey(9))
	ledger.Clear(context.Background(), notification.RowKey(9))

	assert.Equal(t, 0, store.deletes)
}

func TestLedger_LoadsExistingEntries(t *testing.T) {
	loc := testLocation(t)
	clock := &testClock{t: friday(loc)}
	store := newMemStore()
	store.entries[notification.RowKey(3)] = clock.t.Add(-time.Hour)
	store.entries[notification.RowKey(4)] = clock.t.Add(-5 * time.Hour)

	ledger := newTestLedger(t, store, clock)

	assert.Equal(t, 2, ledger.Len())
	assert.False(t, ledger.ShouldNotify(notification.RowKey(3), 3*time.Hour))
	assert.True(t, ledger.ShouldNotify(notification.RowKey(4), 3*time.Hour))
}

func TestLedger_UnreadableStoreStartsEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := notification.NewMockStore(ctrl)
	store.EXPECT().LoadAll(gomock.Any()).Return(nil, errors.New("invalid character '}' looking for beginning of value"))

	ledger := newTestLedger(t, store, &testClock{t: friday(testLocation(t))})

	assert.Equal(t, 0, ledger.Len())
	assert.True(t, ledger.ShouldNotify(notification.RowKey(3), time.Hour))
}

func TestLedger_WriteFailureKeepsInMemoryState(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := notification.NewMockStore(ctrl)
	store.EXPECT().LoadAll(gomock.Any()).Return(map[notification.Key]time.Time{}, nil)
	store.EXPECT().Put(gomock.Any(), notification.RowKey(3), gomock.Any()).Return(errors.New("disk full"))
	store.EXPECT().Delete(gomock.Any(), notification.RowKey(3)).Return(errors.New("disk full"))

	ledger := newTestLedger(t, store, &testClock{t: friday(testLocation(t))})

	ledger.MarkNotified(ctx, notification.RowKey(3))
	assert.False(t, ledger.ShouldNotify(notification.RowKey(3), time.Hour))

	ledger.Clear(ctx, notification.RowKey(3))
	assert.True(t, ledger.ShouldNotify(notification.RowKey(3), time.Hour))
}

func TestLedger_MarkUsesReferenceZone(t *testing.T) {
	loc := testLocation(t)
	clock := &testClock{t: time.Date(2025, time.December, 5, 18, 0, 0, 0, time.UTC)}
	store := newMemStore()
	ledger := newTestLedger(t, store, clock)

	ledger.MarkNotified(context.Background(), notification.WeeklyReminderKey)

	got, ok := ledger.LastSent(notification.WeeklyReminderKey)
	require.True(t, ok)
	assert.Equal(t, loc.String(), got.Location().String())
	assert.True(t, got.Equal(clock.t))
}
