// internal/app/notification_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sheet_reminder_bot/internal/domain/calendar"
	"sheet_reminder_bot/internal/domain/identity"
	"sheet_reminder_bot/internal/domain/notification"
	"sheet_reminder_bot/internal/domain/notifier"
	"sheet_reminder_bot/internal/domain/sheet"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NotificationService runs evaluation cycles. The scheduler depends on this
// interface rather than on CycleRunner.
type NotificationService interface {
	// RunCycle fetches the sheet once, classifies every row, delivers what is
	// due and updates the ledger. It returns an error when the sheet could not
	// be read, when ctx ends before every row was evaluated, or when a due
	// weekly reminder reached nobody.
	RunCycle(ctx context.Context) error
}

// ErrWeeklyReminderUndelivered is returned by RunCycle when the weekly
// reminder was due but no message got through.
var ErrWeeklyReminderUndelivered = errors.New("weekly reminder was not delivered")

// CycleConfig is everything a cycle needs besides its collaborators.
type CycleConfig struct {
	Rules    notification.RuleSet
	Layout   sheet.Layout
	StartRow int
	Location *time.Location

	NotificationInterval time.Duration
	OverdueInterval      time.Duration
	StaleInterval        time.Duration
	StaleDays            int

	WeeklyReminderInterval time.Duration
	WeeklyReminderText     string
}

// CycleRunner implements NotificationService.
type CycleRunner struct {
	cfg        CycleConfig
	source     sheet.Source
	notifier   notifier.Notifier
	ledger     *Ledger
	directory  *identity.Directory
	classifier *RowClassifier
	batcher    *NotificationBatcher
	now        Clock
	logger     *logrus.Entry
}

func NewCycleRunner(
	cfg CycleConfig,
	source sheet.Source,
	n notifier.Notifier,
	ledger *Ledger,
	directory *identity.Directory,
	now Clock,
	logger *logrus.Entry,
) *CycleRunner {
	classifier := NewRowClassifier(ClassifierConfig{
		Rules:                cfg.Rules,
		NotificationInterval: cfg.NotificationInterval,
		StaleDays:            cfg.StaleDays,
	}, directory, ledger, logger.WithField("component", "classifier"))

	return &CycleRunner{
		cfg:        cfg,
		source:     source,
		notifier:   n,
		ledger:     ledger,
		directory:  directory,
		classifier: classifier,
		batcher:    NewNotificationBatcher(),
		now:        now,
		logger:     logger,
	}
}

func (r *CycleRunner) RunCycle(ctx context.Context) error {
	now := r.now().In(r.cfg.Location)
	eval := notification.Evaluation{
		CycleID: uuid.NewString(),
		Now:     now,
		Today:   calendar.Today(now, r.cfg.Location),
		Weekend: calendar.IsWeekend(now, r.cfg.Location),
	}
	log := r.logger.WithField("cycle_id", eval.CycleID)
	log.WithFields(logrus.Fields{
		"today":   eval.Today.String(),
		"weekend": eval.Weekend,
		"rules":   r.cfg.Rules.String(),
	}).Info("Running check cycle")

	var weeklyErr error
	if r.cfg.Rules.Has(notification.RuleWeeklyReminder) {
		weeklyErr = r.sendWeeklyReminder(ctx, log)
	}
	if !r.hasSheetRules() {
		return weeklyErr
	}
	return errors.Join(weeklyErr, r.runSheetRules(ctx, eval, log))
}

func (r *CycleRunner) runSheetRules(ctx context.Context, eval notification.Evaluation, log *logrus.Entry) error {
	rows, err := r.source.FetchRows(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to read rows from sheet")
		return fmt.Errorf("failed to fetch rows: %w", err)
	}
	if len(rows) == 0 {
		log.Info("No data found in sheet")
		return nil
	}
	log.WithField("rows", len(rows)).Info("Read rows from sheet")

	// Batch gates are decided before any row so that row-level ledger writes
	// cannot influence them.
	eval.OverdueOpen = r.batchGateOpen(notification.RuleOverdue, r.cfg.OverdueInterval, eval, true, log)
	eval.StaleOpen = r.batchGateOpen(notification.RuleStale, r.cfg.StaleInterval, eval, false, log)

	batches := make(map[notification.RuleKind][]notification.Intent)
	for i, cells := range rows {
		if err := ctx.Err(); err != nil {
			log.WithError(err).Warn("Cycle interrupted; remaining rows skipped")
			return fmt.Errorf("cycle interrupted at row %d: %w", r.cfg.StartRow+i, err)
		}
		row := sheet.NewRow(r.cfg.StartRow+i, cells, r.cfg.Layout)
		for _, in := range r.classifyRow(ctx, row, eval, log) {
			if in.Rule.Batched() {
				batches[in.Rule] = append(batches[in.Rule], in)
				continue
			}
			r.deliverRowIntent(ctx, in, log)
		}
	}

	for _, rule := range []notification.RuleKind{notification.RuleOverdue, notification.RuleStale} {
		r.flushBatch(ctx, rule, batches[rule], log)
	}

	log.WithField("rows", len(rows)).Info("Completed check cycle")
	return nil
}

// classifyRow keeps a failure in one row from ending the cycle.
func (r *CycleRunner) classifyRow(ctx context.Context, row sheet.Row, eval notification.Evaluation, log *logrus.Entry) (intents []notification.Intent) {
	defer func() {
		if p := recover(); p != nil {
			log.WithField("row", row.Number).Errorf("Row evaluation failed: %v", p)
			intents = nil
		}
	}()
	return r.classifier.Classify(ctx, row, eval)
}

func (r *CycleRunner) hasSheetRules() bool {
	for _, rule := range []notification.RuleKind{
		notification.RuleMissingETA,
		notification.RuleOverdue,
		notification.RuleInReviewNoChecker,
		notification.RuleStale,
	} {
		if r.cfg.Rules.Has(rule) {
			return true
		}
	}
	return false
}

func (r *CycleRunner) batchGateOpen(rule notification.RuleKind, interval time.Duration, eval notification.Evaluation, weekendSuppressed bool, log *logrus.Entry) bool {
	if !r.cfg.Rules.Has(rule) {
		return false
	}
	key := notification.BatchKey(rule)
	if weekendSuppressed && eval.Weekend {
		log.WithField("key", key).Info("Weekend, batched notification suppressed")
		return false
	}
	if !r.ledger.ShouldNotify(key, interval) {
		log.WithField("key", key).Info("Batched notification sent recently, skipping")
		return false
	}
	return true
}

func (r *CycleRunner) deliverRowIntent(ctx context.Context, in notification.Intent, log *logrus.Entry) {
	entry := log.WithFields(logrus.Fields{
		"row":      in.RowNumber,
		"rule":     in.Rule,
		"initials": in.Recipient.Initials,
	})
	msg := notifier.Message{Recipients: []identity.Person{in.Recipient}, Text: composeIntent(in)}
	if err := r.notifier.Send(ctx, msg); err != nil {
		entry.WithError(err).Error("Failed to send notification")
		return
	}
	entry.Info("Sent notification")
	r.ledger.MarkNotified(ctx, in.Key)
}

// flushBatch delivers one message per recipient and marks the rule's shared
// key when at least one delivery went through.
func (r *CycleRunner) flushBatch(ctx context.Context, rule notification.RuleKind, intents []notification.Intent, log *logrus.Entry) {
	if len(intents) == 0 {
		return
	}
	entry := log.WithField("rule", rule)
	groups := r.batcher.Batch(intents)
	msgs := r.batcher.Messages(rule, groups)

	delivered := r.deliverAll(ctx, msgs, entry)
	entry = entry.WithFields(logrus.Fields{"recipients": len(msgs), "delivered": delivered})
	if delivered == 0 {
		entry.Error("Batched notification failed for every recipient")
		return
	}
	if delivered < len(msgs) {
		entry.Warn("Batched notification partially delivered")
	} else {
		entry.Info("Sent batched notification")
	}
	r.ledger.MarkNotified(ctx, notification.BatchKey(rule))
}

// deliverAll sends msgs through the gateway and returns how many went out. A
// gateway that can batch gets everything in one call.
func (r *CycleRunner) deliverAll(ctx context.Context, msgs []notifier.Message, log *logrus.Entry) int {
	if bs, ok := r.notifier.(notifier.BatchSender); ok {
		if err := bs.SendBatch(ctx, msgs); err != nil {
			log.WithError(err).Error("Failed to send batch")
			return 0
		}
		return len(msgs)
	}

	delivered := 0
	for _, msg := range msgs {
		if err := r.notifier.Send(ctx, msg); err != nil {
			log.WithError(err).WithField("recipients", initialsOf(msg.Recipients)).Error("Failed to send notification")
			continue
		}
		delivered++
	}
	return delivered
}

// sendWeeklyReminder addresses every directory member at once: a single post
// for gateways that batch, one message per person otherwise.
func (r *CycleRunner) sendWeeklyReminder(ctx context.Context, log *logrus.Entry) error {
	entry := log.WithField("rule", notification.RuleWeeklyReminder)
	if !r.ledger.ShouldNotify(notification.WeeklyReminderKey, r.cfg.WeeklyReminderInterval) {
		entry.Info("Weekly reminder already sent this period, skipping")
		return nil
	}
	people := r.directory.BroadcastRecipients()
	if len(people) == 0 {
		entry.Warn("No recipients for weekly reminder")
		return nil
	}

	var msgs []notifier.Message
	if _, ok := r.notifier.(notifier.BatchSender); ok {
		msgs = []notifier.Message{{Recipients: people, Text: r.cfg.WeeklyReminderText}}
	} else {
		for _, p := range people {
			msgs = append(msgs, notifier.Message{Recipients: []identity.Person{p}, Text: r.cfg.WeeklyReminderText})
		}
	}

	delivered := r.deliverAll(ctx, msgs, entry)
	if delivered == 0 {
		entry.Error("Failed to send weekly reminder")
		return ErrWeeklyReminderUndelivered
	}
	entry.WithField("recipients", len(people)).Info("Sent weekly reminder")
	r.ledger.MarkNotified(ctx, notification.WeeklyReminderKey)
	return nil
}

func initialsOf(people []identity.Person) []string {
	out := make([]string, len(people))
	for i, p := range people {
		out[i] = p.Initials
	}
	return out
}
