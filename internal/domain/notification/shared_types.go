// internal/domain/notification/shared_types.go
package notification

import (
	"fmt"
	"sort"
	"strings"
)

// RuleKind identifies one notification rule.
type RuleKind string

const (
	RuleMissingETA        RuleKind = "missing_eta"
	RuleOverdue           RuleKind = "overdue"
	RuleInReviewNoChecker RuleKind = "in_review_no_checker"
	RuleStale             RuleKind = "stale"
	RuleWeeklyReminder    RuleKind = "weekly_reminder"
)

var knownRules = map[RuleKind]struct{}{
	RuleMissingETA:        {},
	RuleOverdue:           {},
	RuleInReviewNoChecker: {},
	RuleStale:             {},
	RuleWeeklyReminder:    {},
}

// Batched rules aggregate rows across a whole cycle into one message per recipient.
func (k RuleKind) Batched() bool {
	return k == RuleOverdue || k == RuleStale
}

// RuleSet is the set of active rules.
type RuleSet map[RuleKind]bool

// DefaultRules mirrors the ETA tracker: every per-row rule, no digest, no broadcast.
func DefaultRules() RuleSet {
	return RuleSet{RuleMissingETA: true, RuleOverdue: true, RuleInReviewNoChecker: true}
}

// ParseRuleSet reads a comma separated list such as "missing_eta,overdue".
func ParseRuleSet(list string) (RuleSet, error) {
	rs := RuleSet{}
	for _, part := range strings.Split(list, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		kind := RuleKind(part)
		if _, ok := knownRules[kind]; !ok {
			return nil, fmt.Errorf("unknown rule %q", part)
		}
		rs[kind] = true
	}
	if len(rs) == 0 {
		return nil, fmt.Errorf("no rules enabled")
	}
	return rs, nil
}

func (rs RuleSet) Has(kind RuleKind) bool { return rs[kind] }

func (rs RuleSet) String() string {
	names := make([]string, 0, len(rs))
	for k, on := range rs {
		if on {
			names = append(names, string(k))
		}
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// Key is the ledger identity of a (row, rule) pair or of a shared batch.
type Key string

const (
	OverdueBatchKey   Key = "overdue_batch"
	StaleBatchKey     Key = "stale_batch"
	WeeklyReminderKey Key = "weekly_all_hands_reminder"
)

// RowKey gates the missing-ETA rule for one sheet line.
func RowKey(row int) Key {
	return Key(fmt.Sprintf("row_%d", row))
}

// InReviewNoCheckerKey gates the missing-reviewer rule for one sheet line.
func InReviewNoCheckerKey(row int) Key {
	return Key(fmt.Sprintf("row_%d_in_review_no_checker", row))
}

// BatchKey is the shared key of a batched rule.
func BatchKey(kind RuleKind) Key {
	switch kind {
	case RuleOverdue:
		return OverdueBatchKey
	case RuleStale:
		return StaleBatchKey
	default:
		return ""
	}
}
