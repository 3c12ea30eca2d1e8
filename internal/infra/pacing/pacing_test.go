package pacing

import (
	"context"
	"testing"
	"time"

	"sheet_reminder_bot/internal/domain/identity"
	"sheet_reminder_bot/internal/domain/notifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type batchingNotifier struct {
	*notifier.MockNotifier
	*notifier.MockBatchSender
}

var msg = notifier.Message{Recipients: []identity.Person{{Initials: "CF", RecipientID: "U1"}}, Text: "hi"}

func TestWrap_KeepsBatchCapability(t *testing.T) {
	ctrl := gomock.NewController(t)

	plain := Wrap(notifier.NewMockNotifier(ctrl), 5)
	_, ok := plain.(notifier.BatchSender)
	assert.False(t, ok)

	batching := Wrap(batchingNotifier{notifier.NewMockNotifier(ctrl), notifier.NewMockBatchSender(ctrl)}, 5)
	_, ok = batching.(notifier.BatchSender)
	assert.True(t, ok)
}

func TestWrap_Disabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	n := notifier.NewMockNotifier(ctrl)

	assert.Same(t, n, Wrap(n, 0))
}

func TestNotifier_SpacesCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	n := notifier.NewMockNotifier(ctrl)
	n.EXPECT().Send(gomock.Any(), msg).Return(nil).Times(3)

	paced := Wrap(n, 20) // one call every 50ms after the first
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, paced.Send(context.Background(), msg))
	}

	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestNotifier_CancelledWhileWaiting(t *testing.T) {
	ctrl := gomock.NewController(t)
	n := notifier.NewMockNotifier(ctrl)
	n.EXPECT().Send(gomock.Any(), msg).Return(nil).Times(1)

	paced := Wrap(n, 0.01)
	require.NoError(t, paced.Send(context.Background(), msg))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, paced.Send(ctx, msg))
}

func TestBatchNotifier_SendBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	bs := notifier.NewMockBatchSender(ctrl)
	bs.EXPECT().SendBatch(gomock.Any(), []notifier.Message{msg, msg}).Return(nil)

	paced := Wrap(batchingNotifier{notifier.NewMockNotifier(ctrl), bs}, 5)

	require.NoError(t, paced.(notifier.BatchSender).SendBatch(context.Background(), []notifier.Message{msg, msg}))
}
