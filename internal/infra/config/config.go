package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sheet_reminder_bot/internal/domain/calendar"
	"sheet_reminder_bot/internal/domain/notification"
	"sheet_reminder_bot/internal/domain/sheet"

	"github.com/joho/godotenv"
)

// NotifierKind selects the delivery channel.
type NotifierKind string

const (
	NotifierSlackWebhook NotifierKind = "slack_webhook"
	NotifierSlackDM      NotifierKind = "slack_dm"
	NotifierTelegram     NotifierKind = "telegram"
	NotifierLog          NotifierKind = "log"
)

// LedgerDriver selects where notification state is kept.
type LedgerDriver string

const (
	LedgerFile     LedgerDriver = "file"
	LedgerPostgres LedgerDriver = "postgres"
	LedgerRedis    LedgerDriver = "redis"
)

var (
	ErrUnknownNotifier     = errors.New("unknown notifier")
	ErrUnknownLedgerDriver = errors.New("unknown ledger driver")
)

const defaultWeeklyReminderText = "please update the statuses of all your action items in the All Hands document. " +
	"This MUST be done 24h before the All Hands meeting."

// AppConfig holds all configuration for the application
type AppConfig struct {
	SpreadsheetID string
	SheetName     string
	SheetRange    sheet.Range
	Layout        sheet.Layout

	GoogleCredentialsPath string
	GoogleCredentialsJSON string

	Notifier        NotifierKind
	SlackWebhookURL string
	SlackBotToken   string
	TelegramToken   string

	CheckInterval          time.Duration
	NotificationInterval   time.Duration
	OverdueInterval        time.Duration
	StaleInterval          time.Duration
	StaleDays              int
	WeeklyReminderInterval time.Duration
	WeeklyReminderText     string

	Rules           notification.RuleSet
	DirectoryFile   string
	IgnoredInitials []string
	Location        *time.Location

	LedgerDriver LedgerDriver
	LedgerPath   string
	DatabaseURL  string
	RedisURL     string

	RunOnce     bool
	HTTPTimeout time.Duration
	SendRate    float64

	LogLevel    string
	Environment string
}

// Load reads configuration from environment variables and the env file (if present).
// godotenv.Load does not override variables that are already set.
func Load(envFile string) (*AppConfig, error) {
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	cfg := &AppConfig{}
	var err error

	cfg.SpreadsheetID = os.Getenv("SPREADSHEET_ID")
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("SPREADSHEET_ID is not set")
	}
	cfg.SheetName = getenv("SHEET_NAME", "Sheet1")
	cfg.SheetRange, err = sheet.ParseRange(getenv("SHEET_RANGE", "A3:G"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHEET_RANGE: %w", err)
	}
	cfg.Layout, err = loadLayout(cfg.SheetRange)
	if err != nil {
		return nil, err
	}

	cfg.GoogleCredentialsPath = os.Getenv("GOOGLE_CREDENTIALS_PATH")
	cfg.GoogleCredentialsJSON = os.Getenv("GOOGLE_CREDENTIALS_JSON")
	if cfg.GoogleCredentialsPath == "" && cfg.GoogleCredentialsJSON == "" {
		return nil, fmt.Errorf("GOOGLE_CREDENTIALS_PATH or GOOGLE_CREDENTIALS_JSON is not set")
	}

	cfg.Notifier = NotifierKind(strings.ToLower(getenv("NOTIFIER", string(NotifierSlackWebhook))))
	cfg.SlackWebhookURL = os.Getenv("SLACK_WEBHOOK_URL")
	cfg.SlackBotToken = os.Getenv("SLACK_BOT_TOKEN")
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	switch cfg.Notifier {
	case NotifierSlackWebhook:
		if cfg.SlackWebhookURL == "" {
			return nil, fmt.Errorf("SLACK_WEBHOOK_URL is not set")
		}
	case NotifierSlackDM:
		if cfg.SlackBotToken == "" {
			return nil, fmt.Errorf("SLACK_BOT_TOKEN is not set")
		}
	case NotifierTelegram:
		if cfg.TelegramToken == "" {
			return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
		}
	case NotifierLog:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNotifier, cfg.Notifier)
	}

	durations := []struct {
		name string
		def  time.Duration
		dst  *time.Duration
	}{
		{"CHECK_INTERVAL", 300 * time.Second, &cfg.CheckInterval},
		{"NOTIFICATION_INTERVAL", 10800 * time.Second, &cfg.NotificationInterval},
		{"OVERDUE_INTERVAL", 86400 * time.Second, &cfg.OverdueInterval},
		{"STALE_INTERVAL", 604800 * time.Second, &cfg.StaleInterval},
		{"WEEKLY_REMINDER_INTERVAL", 604800 * time.Second, &cfg.WeeklyReminderInterval},
		{"HTTP_TIMEOUT", 10 * time.Second, &cfg.HTTPTimeout},
	}
	for _, d := range durations {
		if *d.dst, err = durationEnv(d.name, d.def); err != nil {
			return nil, err
		}
	}
	if cfg.CheckInterval <= 0 {
		return nil, fmt.Errorf("invalid CHECK_INTERVAL: must be positive")
	}

	cfg.StaleDays, err = intEnv("STALE_DAYS", 7)
	if err != nil {
		return nil, err
	}
	if cfg.StaleDays < 0 {
		return nil, fmt.Errorf("invalid STALE_DAYS: must not be negative")
	}
	cfg.WeeklyReminderText = getenv("WEEKLY_REMINDER_TEXT", defaultWeeklyReminderText)

	cfg.Rules, err = notification.ParseRuleSet(getenv("RULES", notification.DefaultRules().String()))
	if err != nil {
		return nil, fmt.Errorf("invalid RULES: %w", err)
	}

	cfg.DirectoryFile = getenv("DIRECTORY_FILE", "directory.yaml")
	cfg.IgnoredInitials = splitList(os.Getenv("IGNORED_INITIALS"))

	cfg.Location, err = calendar.LoadZone(os.Getenv("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	cfg.LedgerDriver = LedgerDriver(strings.ToLower(getenv("LEDGER_DRIVER", string(LedgerFile))))
	cfg.LedgerPath = getenv("LEDGER_PATH", "notification_state.json")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	switch cfg.LedgerDriver {
	case LedgerFile:
	case LedgerPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
	case LedgerRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is not set")
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLedgerDriver, cfg.LedgerDriver)
	}

	cfg.RunOnce = os.Getenv("RUN_ONCE") != "" || os.Getenv("GITHUB_ACTIONS") != ""

	cfg.SendRate = 1
	if v := os.Getenv("SEND_RATE"); v != "" {
		cfg.SendRate, err = strconv.ParseFloat(v, 64)
		if err != nil || cfg.SendRate < 0 {
			return nil, fmt.Errorf("invalid SEND_RATE %q", v)
		}
	}

	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getenv("ENVIRONMENT", "development"))

	return cfg, nil
}

func loadLayout(rg sheet.Range) (sheet.Layout, error) {
	var layout sheet.Layout
	fields := []struct {
		name string
		def  string
		dst  *sheet.Column
	}{
		{"COLUMN_ASSIGNEE", "C", &layout.Assignee},
		{"COLUMN_REVIEWER", "D", &layout.Reviewer},
		{"COLUMN_ETA", "E", &layout.ETA},
		{"COLUMN_SECONDARY", "F", &layout.Secondary},
		{"COLUMN_STATUS", "G", &layout.Status},
	}
	for _, f := range fields {
		letters, set := os.LookupEnv(f.name)
		if !set {
			letters = f.def
		}
		abs, err := sheet.ParseColumn(letters)
		if err != nil {
			return sheet.Layout{}, fmt.Errorf("invalid %s: %w", f.name, err)
		}
		if *f.dst, err = rg.Relative(abs); err != nil {
			return sheet.Layout{}, fmt.Errorf("invalid %s: %w", f.name, err)
		}
	}
	return layout, nil
}

func getenv(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func intEnv(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}

// durationEnv accepts plain seconds ("300") or a Go duration ("5m").
func durationEnv(name string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("invalid %s: must not be negative", name)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", name)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
