package app

import (
	"testing"

	"sheet_reminder_bot/internal/domain/identity"
	"sheet_reminder_bot/internal/domain/notification"
	"sheet_reminder_bot/internal/domain/notifier"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func overdueIntent(p identity.Person, row int) notification.Intent {
	return notification.Intent{Recipient: p, Rule: notification.RuleOverdue, RowNumber: row, Key: notification.OverdueBatchKey}
}

func TestBatch_GroupsByRecipient(t *testing.T) {
	b := NewNotificationBatcher()

	got := b.Batch([]notification.Intent{
		overdueIntent(personDI, 7),
		overdueIntent(personCF, 5),
		overdueIntent(personDI, 3),
		overdueIntent(personDI, 7),
	})

	want := map[identity.Person][]int{
		personCF: {5},
		personDI: {3, 7},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Batch() mismatch (-want +got):\n%s", diff)
	}
}

func TestBatch_Empty(t *testing.T) {
	assert.Empty(t, NewNotificationBatcher().Batch(nil))
}

func TestMessages_Overdue(t *testing.T) {
	b := NewNotificationBatcher()

	got := b.Messages(notification.RuleOverdue, map[identity.Person][]int{
		personDI: {3, 7},
		personCF: {5},
	})

	want := []notifier.Message{
		{Recipients: []identity.Person{personCF}, Text: "the ETA for row 5 has passed. Please update it or mark the item done."},
		{Recipients: []identity.Person{personDI}, Text: "the ETAs for rows 3, 7 have passed. Please update them or mark the items done."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Messages() mismatch (-want +got):\n%s", diff)
	}
}

func TestMessages_Stale(t *testing.T) {
	got := NewNotificationBatcher().Messages(notification.RuleStale, map[identity.Person][]int{
		personJS: {4, 9, 12},
	})

	assert.Equal(t, []notifier.Message{
		{Recipients: []identity.Person{personJS}, Text: "please reach out to 3 stale items."},
	}, got)
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "stale singular", got: ComposeStale(1), want: "please reach out to 1 stale item."},
		{name: "missing eta", got: ComposeMissingETA(12), want: "please update your ETA in the tracker (Row 12)."},
		{name: "in review", got: ComposeInReviewNoChecker(8), want: "row 8 is in review but has no checker assigned. Please add one."},
		{
			name: "per-row intent",
			got:  composeIntent(notification.Intent{Rule: notification.RuleInReviewNoChecker, RowNumber: 2}),
			want: "row 2 is in review but has no checker assigned. Please add one.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
