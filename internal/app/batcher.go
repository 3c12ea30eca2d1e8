// internal/app/batcher.go
package app

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"sheet_reminder_bot/internal/domain/identity"
	"sheet_reminder_bot/internal/domain/notification"
	"sheet_reminder_bot/internal/domain/notifier"
)

// NotificationBatcher folds the intents of a batched rule into one message per recipient.
type NotificationBatcher struct{}

func NewNotificationBatcher() *NotificationBatcher {
	return &NotificationBatcher{}
}

// Batch groups intents by recipient. Row numbers come back ascending and unique.
func (b *NotificationBatcher) Batch(intents []notification.Intent) map[identity.Person][]int {
	groups := make(map[identity.Person][]int)
	seen := make(map[identity.Person]map[int]struct{})
	for _, in := range intents {
		if seen[in.Recipient] == nil {
			seen[in.Recipient] = make(map[int]struct{})
		}
		if _, dup := seen[in.Recipient][in.RowNumber]; dup {
			continue
		}
		seen[in.Recipient][in.RowNumber] = struct{}{}
		groups[in.Recipient] = append(groups[in.Recipient], in.RowNumber)
	}
	for _, rows := range groups {
		sort.Ints(rows)
	}
	return groups
}

// Messages renders grouped rows for rule, ordered by recipient initials.
func (b *NotificationBatcher) Messages(rule notification.RuleKind, groups map[identity.Person][]int) []notifier.Message {
	people := make([]identity.Person, 0, len(groups))
	for p := range groups {
		people = append(people, p)
	}
	sort.Slice(people, func(i, j int) bool {
		if people[i].Initials != people[j].Initials {
			return people[i].Initials < people[j].Initials
		}
		return people[i].RecipientID < people[j].RecipientID
	})

	msgs := make([]notifier.Message, 0, len(people))
	for _, p := range people {
		rows := groups[p]
		var text string
		switch rule {
		case notification.RuleStale:
			text = ComposeStale(len(rows))
		default:
			text = ComposeOverdue(rows)
		}
		msgs = append(msgs, notifier.Message{Recipients: []identity.Person{p}, Text: text})
	}
	return msgs
}

func joinRows(rows []int) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, ", ")
}

// ComposeOverdue phrases one overdue line: singular for one row, plural otherwise.
func ComposeOverdue(rows []int) string {
	if len(rows) == 1 {
		return fmt.Sprintf("the ETA for row %d has passed. Please update it or mark the item done.", rows[0])
	}
	return fmt.Sprintf("the ETAs for rows %s have passed. Please update them or mark the items done.", joinRows(rows))
}

func ComposeStale(count int) string {
	noun := "items"
	if count == 1 {
		noun = "item"
	}
	return fmt.Sprintf("please reach out to %d stale %s.", count, noun)
}

func ComposeMissingETA(row int) string {
	return fmt.Sprintf("please update your ETA in the tracker (Row %d).", row)
}

func ComposeInReviewNoChecker(row int) string {
	return fmt.Sprintf("row %d is in review but has no checker assigned. Please add one.", row)
}

// composeIntent renders a per-row intent.
func composeIntent(in notification.Intent) string {
	switch in.Rule {
	case notification.RuleInReviewNoChecker:
		return ComposeInReviewNoChecker(in.RowNumber)
	default:
		return ComposeMissingETA(in.RowNumber)
	}
}
