// internal/app/classifier.go
package app

import (
	"context"
	"time"

	"sheet_reminder_bot/internal/domain/calendar"
	"sheet_reminder_bot/internal/domain/identity"
	"sheet_reminder_bot/internal/domain/notification"
	"sheet_reminder_bot/internal/domain/sheet"

	"github.com/sirupsen/logrus"
)

// ClassifierConfig selects the active rules and their per-row timing.
type ClassifierConfig struct {
	Rules                notification.RuleSet
	NotificationInterval time.Duration // re-notify interval for per-row rules
	StaleDays            int
}

// RowClassifier turns one sheet row into notification intents. Per-row rules
// are gated here against the ledger; batched rules only contribute rows, their
// gate is decided once per cycle and handed in through the Evaluation.
type RowClassifier struct {
	cfg       ClassifierConfig
	directory *identity.Directory
	ledger    *Ledger
	logger    *logrus.Entry
}

func NewRowClassifier(cfg ClassifierConfig, directory *identity.Directory, ledger *Ledger, logger *logrus.Entry) *RowClassifier {
	return &RowClassifier{
		cfg:       cfg,
		directory: directory,
		ledger:    ledger,
		logger:    logger,
	}
}

// Classify evaluates every active rule for row. Rules are independent; one
// row may yield several intents in the same cycle.
func (c *RowClassifier) Classify(ctx context.Context, row sheet.Row, eval notification.Evaluation) []notification.Intent {
	log := c.logger.WithField("row", row.Number)
	if eval.CycleID != "" {
		log = log.WithField("cycle_id", eval.CycleID)
	}

	var intents []notification.Intent
	if c.cfg.Rules.Has(notification.RuleMissingETA) {
		if in, ok := c.missingETA(ctx, row, eval, log); ok {
			intents = append(intents, in)
		}
	}
	if c.cfg.Rules.Has(notification.RuleOverdue) {
		if in, ok := c.overdue(row, eval, log); ok {
			intents = append(intents, in)
		}
	}
	if c.cfg.Rules.Has(notification.RuleInReviewNoChecker) {
		if in, ok := c.inReviewNoChecker(ctx, row, eval, log); ok {
			intents = append(intents, in)
		}
	}
	if c.cfg.Rules.Has(notification.RuleStale) {
		if in, ok := c.stale(row, eval, log); ok {
			intents = append(intents, in)
		}
	}
	return intents
}

func (c *RowClassifier) missingETA(ctx context.Context, row sheet.Row, eval notification.Evaluation, log *logrus.Entry) (notification.Intent, bool) {
	key := notification.RowKey(row.Number)
	if row.ETA() != "" || row.Secondary() != "" {
		c.ledger.Clear(ctx, key)
		return notification.Intent{}, false
	}
	person, ok := c.recipient(row.Assignee(), log)
	if !ok {
		return notification.Intent{}, false
	}
	if !c.perRowGateOpen(key, eval, log) {
		return notification.Intent{}, false
	}
	return notification.Intent{Recipient: person, Rule: notification.RuleMissingETA, RowNumber: row.Number, Key: key}, true
}

func (c *RowClassifier) overdue(row sheet.Row, eval notification.Evaluation, log *logrus.Entry) (notification.Intent, bool) {
	if !eval.OverdueOpen {
		return notification.Intent{}, false
	}
	status := row.Status()
	if status == sheet.StatusDone {
		return notification.Intent{}, false
	}
	due, ok := calendar.ParseDate(row.ETA())
	if !ok {
		if row.ETA() != "" {
			log.WithField("eta", row.ETA()).Debug("ETA is not a recognised date, skipping overdue check")
		}
		return notification.Intent{}, false
	}
	if !due.Before(eval.Today) {
		return notification.Intent{}, false
	}

	code := row.Assignee()
	if status == sheet.StatusInReview {
		code = row.Reviewer()
	}
	person, ok := c.recipient(code, log)
	if !ok {
		return notification.Intent{}, false
	}
	log.WithFields(logrus.Fields{"eta": due.String(), "initials": person.Initials}).Debug("Row is overdue")
	return notification.Intent{Recipient: person, Rule: notification.RuleOverdue, RowNumber: row.Number, Key: notification.OverdueBatchKey}, true
}

func (c *RowClassifier) inReviewNoChecker(ctx context.Context, row sheet.Row, eval notification.Evaluation, log *logrus.Entry) (notification.Intent, bool) {
	key := notification.InReviewNoCheckerKey(row.Number)
	if row.Status() != sheet.StatusInReview || row.Reviewer() != "" {
		c.ledger.Clear(ctx, key)
		return notification.Intent{}, false
	}
	person, ok := c.recipient(row.Assignee(), log)
	if !ok {
		return notification.Intent{}, false
	}
	if !c.perRowGateOpen(key, eval, log) {
		return notification.Intent{}, false
	}
	return notification.Intent{Recipient: person, Rule: notification.RuleInReviewNoChecker, RowNumber: row.Number, Key: key}, true
}

func (c *RowClassifier) stale(row sheet.Row, eval notification.Evaluation, log *logrus.Entry) (notification.Intent, bool) {
	if !eval.StaleOpen || row.Status() == sheet.StatusDone {
		return notification.Intent{}, false
	}
	tracked, ok := calendar.ParseDate(row.ETA())
	if !ok {
		if row.ETA() != "" {
			log.WithField("date", row.ETA()).Warn("Could not parse date")
		}
		return notification.Intent{}, false
	}
	cutoff := eval.Today.AddDays(-c.cfg.StaleDays)
	if tracked.After(cutoff) {
		return notification.Intent{}, false
	}
	person, ok := c.recipient(row.Assignee(), log)
	if !ok {
		return notification.Intent{}, false
	}
	log.WithFields(logrus.Fields{"date": tracked.String(), "initials": person.Initials}).Info("Found stale item")
	return notification.Intent{Recipient: person, Rule: notification.RuleStale, RowNumber: row.Number, Key: notification.StaleBatchKey}, true
}

func (c *RowClassifier) perRowGateOpen(key notification.Key, eval notification.Evaluation, log *logrus.Entry) bool {
	if eval.Weekend {
		log.WithField("key", key).Debug("Weekend, notification suppressed")
		return false
	}
	if !c.ledger.ShouldNotify(key, c.cfg.NotificationInterval) {
		log.WithField("key", key).Debug("Too soon to notify again")
		return false
	}
	return true
}

// recipient resolves an identity code. Empty and ignored codes are skipped
// silently; unknown codes are worth a warning.
func (c *RowClassifier) recipient(code string, log *logrus.Entry) (identity.Person, bool) {
	person, res := c.directory.Resolve(code)
	switch res {
	case identity.Known:
		return person, true
	case identity.Unknown:
		log.WithField("initials", code).Warn("Unknown initials")
	}
	return identity.Person{}, false
}
