package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sheet_reminder_bot/internal/app"
	"sheet_reminder_bot/internal/domain/notification"
	"sheet_reminder_bot/internal/domain/notifier"
	"sheet_reminder_bot/internal/infra/cache"
	"sheet_reminder_bot/internal/infra/config"
	idb "sheet_reminder_bot/internal/infra/database"
	"sheet_reminder_bot/internal/infra/ledgerfile"
	"sheet_reminder_bot/internal/infra/lognotify"
	"sheet_reminder_bot/internal/infra/logger"
	"sheet_reminder_bot/internal/infra/pacing"
	"sheet_reminder_bot/internal/infra/scheduler"
	"sheet_reminder_bot/internal/infra/sheets"
	islack "sheet_reminder_bot/internal/infra/slack"
	"sheet_reminder_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("sheet-reminder-bot", flag.ContinueOnError)
	flags.SetOutput(stderr)
	once := flags.Bool("once", false, "run a single check cycle and exit")
	envFile := flags.String("env-file", ".env", "dotenv file to load before reading the environment")
	logLevel := flags.String("log-level", "", "override LOG_LEVEL")
	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: Could not load application configuration: %v\n", err)
		return 1
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *once {
		cfg.RunOnce = true
	}

	log := logger.New(cfg.LogLevel, cfg.Environment)
	mainLog := logger.Component(log, "main")
	mainLog.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"notifier":    cfg.Notifier,
		"ledger":      cfg.LedgerDriver,
		"rules":       cfg.Rules.String(),
		"run_once":    cfg.RunOnce,
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	directory, err := config.LoadDirectory(cfg.DirectoryFile, cfg.IgnoredInitials)
	if err != nil {
		mainLog.WithError(err).Error("Could not load identity directory")
		return 1
	}
	mainLog.WithField("members", directory.Len()).Info("Identity directory loaded")

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		mainLog.WithError(err).Error("Could not open notification ledger")
		return 1
	}
	defer closeStore()

	source, err := sheets.NewClient(ctx, sheets.ClientConfig{
		SpreadsheetID:   cfg.SpreadsheetID,
		SheetName:       cfg.SheetName,
		Range:           cfg.SheetRange.Notation,
		CredentialsPath: cfg.GoogleCredentialsPath,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		Timeout:         cfg.HTTPTimeout,
	}, logger.Component(log, "sheets"))
	if err != nil {
		mainLog.WithError(err).Error("Could not create Sheets client")
		return 1
	}

	n, err := newNotifier(cfg, log)
	if err != nil {
		mainLog.WithError(err).Error("Could not create notifier")
		return 1
	}
	n = pacing.Wrap(n, cfg.SendRate)

	ledger := app.NewLedger(ctx, store, cfg.Location, time.Now, logger.Component(log, "ledger"))
	runner := app.NewCycleRunner(app.CycleConfig{
		Rules:                  cfg.Rules,
		Layout:                 cfg.Layout,
		StartRow:               cfg.SheetRange.StartRow,
		Location:               cfg.Location,
		NotificationInterval:   cfg.NotificationInterval,
		OverdueInterval:        cfg.OverdueInterval,
		StaleInterval:          cfg.StaleInterval,
		StaleDays:              cfg.StaleDays,
		WeeklyReminderInterval: cfg.WeeklyReminderInterval,
		WeeklyReminderText:     cfg.WeeklyReminderText,
	}, source, n, ledger, directory, time.Now, logger.Component(log, "cycle"))

	if cfg.RunOnce {
		mainLog.Info("Running single check cycle")
		if err := runner.RunCycle(ctx); err != nil {
			mainLog.WithError(err).Error("Check cycle failed")
			return 1
		}
		mainLog.Info("Single check cycle completed")
		return 0
	}

	notifScheduler := scheduler.NewNotificationScheduler(runner, cfg.CheckInterval, cfg.Location, logger.Component(log, "scheduler"))
	if err := notifScheduler.Start(ctx); err != nil {
		mainLog.WithError(err).Error("Could not start scheduler")
		return 1
	}

	<-ctx.Done() // Block until a signal is received

	mainLog.Info("Shutting down application...")
	notifScheduler.Stop()
	mainLog.Info("Application shut down gracefully.")
	return 0
}

func newStore(ctx context.Context, cfg *config.AppConfig) (notification.Store, func(), error) {
	switch cfg.LedgerDriver {
	case config.LedgerPostgres:
		db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		repo := idb.NewPostgresLedgerRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, func() { db.Close() }, nil
	case config.LedgerRedis:
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedisLedgerRepository(client, cache.DefaultLedgerHash, cfg.Location), func() { client.Close() }, nil
	default:
		return ledgerfile.NewFileStore(cfg.LedgerPath, cfg.Location), func() {}, nil
	}
}

func newNotifier(cfg *config.AppConfig, log *logrus.Logger) (notifier.Notifier, error) {
	entry := logger.Component(log, "notifier").WithField("notifier", cfg.Notifier)
	switch cfg.Notifier {
	case config.NotifierSlackWebhook:
		return islack.NewWebhookNotifier(cfg.SlackWebhookURL, cfg.HTTPTimeout, entry), nil
	case config.NotifierSlackDM:
		return islack.NewDMNotifier(cfg.SlackBotToken, cfg.HTTPTimeout, entry), nil
	case config.NotifierTelegram:
		bot, err := telegram.NewBot(cfg.TelegramToken, cfg.HTTPTimeout)
		if err != nil {
			return nil, err
		}
		return telegram.NewTelebotAdapter(bot, entry), nil
	case config.NotifierLog:
		return lognotify.New(entry), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownNotifier, cfg.Notifier)
	}
}
