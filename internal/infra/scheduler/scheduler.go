package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sheet_reminder_bot/internal/app" // For NotificationService interface

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// NotificationScheduler runs check cycles every interval until stopped. A cycle
// still running when the next tick fires causes that tick to be skipped.
type NotificationScheduler struct {
	cronEngine   *cron.Cron
	notifService app.NotificationService
	logger       *logrus.Entry
	interval     time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc
	job     cron.Job
	wg      sync.WaitGroup
}

func NewNotificationScheduler(
	notifService app.NotificationService,
	interval time.Duration,
	loc *time.Location,
	logger *logrus.Entry,
) *NotificationScheduler {
	cl := cronLogger{logger}
	return &NotificationScheduler{
		cronEngine: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		notifService: notifService,
		logger:       logger,
		interval:     interval,
	}
}

// Start registers the check job and runs the first cycle right away. ctx bounds
// every cycle; cancelling it interrupts the one in flight.
func (s *NotificationScheduler) Start(ctx context.Context) error {
	s.logger.WithField("interval", s.interval.String()).Info("Starting notification scheduler...")
	s.baseCtx, s.cancel = context.WithCancel(ctx)

	id, err := s.cronEngine.AddFunc(fmt.Sprintf("@every %s", s.interval), s.runCycle)
	if err != nil {
		s.cancel()
		return fmt.Errorf("could not add check cycle cron job: %w", err)
	}
	// The wrapped job shares the SkipIfStillRunning guard with the cron entry.
	s.job = s.cronEngine.Entry(id).WrappedJob

	s.cronEngine.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.job.Run()
	}()

	s.logger.Info("Notification scheduler started")
	return nil
}

func (s *NotificationScheduler) runCycle() {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.interval)
	defer cancel()
	if err := s.notifService.RunCycle(ctx); err != nil {
		s.logger.WithError(err).Error("Check cycle failed")
	}
}

// Stop prevents further cycles and waits for a running one to finish.
func (s *NotificationScheduler) Stop() {
	s.logger.Info("Stopping notification scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.wg.Wait()
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("Notification scheduler gracefully stopped.")
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
