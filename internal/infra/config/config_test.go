package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"sheet_reminder_bot/internal/domain/identity"
	"sheet_reminder_bot/internal/domain/notification"
	"sheet_reminder_bot/internal/domain/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setMinimalEnv clears every setting Load reads and sets only the required ones.
func setMinimalEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"SHEET_NAME", "SHEET_RANGE", "GOOGLE_CREDENTIALS_PATH", "NOTIFIER", "SLACK_BOT_TOKEN", "TELEGRAM_TOKEN",
		"CHECK_INTERVAL", "NOTIFICATION_INTERVAL", "OVERDUE_INTERVAL", "STALE_INTERVAL", "STALE_DAYS",
		"WEEKLY_REMINDER_INTERVAL", "WEEKLY_REMINDER_TEXT", "RULES", "DIRECTORY_FILE", "IGNORED_INITIALS",
		"TIMEZONE", "LEDGER_DRIVER", "LEDGER_PATH", "DATABASE_URL", "REDIS_URL", "RUN_ONCE", "GITHUB_ACTIONS",
		"HTTP_TIMEOUT", "SEND_RATE", "LOG_LEVEL", "ENVIRONMENT",
		"COLUMN_ASSIGNEE", "COLUMN_REVIEWER", "COLUMN_ETA", "COLUMN_SECONDARY", "COLUMN_STATUS",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	t.Setenv("SPREADSHEET_ID", "1AbCdEf")
	t.Setenv("GOOGLE_CREDENTIALS_JSON", `{"type":"service_account"}`)
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.com/services/T000/B000/XXXX")
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", cfg.SheetName)
	assert.Equal(t, 3, cfg.SheetRange.StartRow)
	assert.Equal(t, sheet.DefaultLayout, cfg.Layout)
	assert.Equal(t, NotifierSlackWebhook, cfg.Notifier)
	assert.Equal(t, 5*time.Minute, cfg.CheckInterval)
	assert.Equal(t, 3*time.Hour, cfg.NotificationInterval)
	assert.Equal(t, 24*time.Hour, cfg.OverdueInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.StaleInterval)
	assert.Equal(t, 7, cfg.StaleDays)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, notification.DefaultRules(), cfg.Rules)
	assert.Equal(t, "America/Los_Angeles", cfg.Location.String())
	assert.Equal(t, LedgerFile, cfg.LedgerDriver)
	assert.Equal(t, "notification_state.json", cfg.LedgerPath)
	assert.False(t, cfg.RunOnce)
	assert.Equal(t, 1.0, cfg.SendRate)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoad_Overrides(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("SHEET_RANGE", "B5:H")
	t.Setenv("COLUMN_SECONDARY", "")
	t.Setenv("CHECK_INTERVAL", "90s")
	t.Setenv("NOTIFICATION_INTERVAL", "60")
	t.Setenv("RULES", "stale, weekly_reminder")
	t.Setenv("IGNORED_INITIALS", "ah, cc ,")
	t.Setenv("GITHUB_ACTIONS", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.SheetRange.StartRow)
	assert.Equal(t, sheet.Layout{Assignee: 1, Reviewer: 2, ETA: 3, Secondary: sheet.NoColumn, Status: 5}, cfg.Layout)
	assert.Equal(t, 90*time.Second, cfg.CheckInterval)
	assert.Equal(t, time.Minute, cfg.NotificationInterval)
	assert.True(t, cfg.Rules.Has(notification.RuleStale))
	assert.True(t, cfg.Rules.Has(notification.RuleWeeklyReminder))
	assert.False(t, cfg.Rules.Has(notification.RuleMissingETA))
	assert.Equal(t, []string{"ah", "cc"}, cfg.IgnoredInitials)
	assert.True(t, cfg.RunOnce)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EnvFile(t *testing.T) {
	setMinimalEnv(t)
	os.Unsetenv("SPREADSHEET_ID")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SPREADSHEET_ID=from-file\nSHEET_NAME=Tracker\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("SHEET_NAME")
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.SpreadsheetID)
	assert.Equal(t, "Tracker", cfg.SheetName)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
		wantMsg string
	}{
		{name: "missing spreadsheet", env: map[string]string{"SPREADSHEET_ID": ""}, wantMsg: "SPREADSHEET_ID is not set"},
		{name: "missing credentials", env: map[string]string{"GOOGLE_CREDENTIALS_JSON": ""}, wantMsg: "GOOGLE_CREDENTIALS_PATH"},
		{name: "unknown notifier", env: map[string]string{"NOTIFIER": "email"}, wantErr: ErrUnknownNotifier},
		{name: "dm without token", env: map[string]string{"NOTIFIER": "slack_dm"}, wantMsg: "SLACK_BOT_TOKEN is not set"},
		{name: "telegram without token", env: map[string]string{"NOTIFIER": "telegram"}, wantMsg: "TELEGRAM_TOKEN is not set"},
		{name: "bad interval", env: map[string]string{"CHECK_INTERVAL": "soon"}, wantMsg: "invalid CHECK_INTERVAL"},
		{name: "zero interval", env: map[string]string{"CHECK_INTERVAL": "0"}, wantMsg: "invalid CHECK_INTERVAL"},
		{name: "bad rule", env: map[string]string{"RULES": "missing_eta,bogus"}, wantMsg: "invalid RULES"},
		{name: "bad zone", env: map[string]string{"TIMEZONE": "Mars/Olympus"}, wantMsg: "invalid TIMEZONE"},
		{name: "column left of range", env: map[string]string{"SHEET_RANGE": "D3:G"}, wantMsg: "invalid COLUMN_ASSIGNEE"},
		{name: "unknown ledger", env: map[string]string{"LEDGER_DRIVER": "sqlite"}, wantErr: ErrUnknownLedgerDriver},
		{name: "postgres without url", env: map[string]string{"LEDGER_DRIVER": "postgres"}, wantMsg: "DATABASE_URL is not set"},
		{name: "redis without url", env: map[string]string{"LEDGER_DRIVER": "redis"}, wantMsg: "REDIS_URL is not set"},
		{name: "bad send rate", env: map[string]string{"SEND_RATE": "fast"}, wantMsg: "invalid SEND_RATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setMinimalEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(noEnvFile(t))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestParseDirectory(t *testing.T) {
	data := []byte(`
users:
  cf: U01CF
  DI: U01DI
  AH: U01AH
broadcast_only:
  MS: U01MS
ignored: [ah]
`)

	dir, err := ParseDirectory(data, []string{"CC"})
	require.NoError(t, err)

	p, ok := dir.Lookup("CF")
	require.True(t, ok)
	assert.Equal(t, identity.Person{Initials: "CF", RecipientID: "U01CF"}, p)
	assert.True(t, dir.IsIgnored("AH"))
	assert.True(t, dir.IsIgnored("cc"))
	_, ok = dir.Lookup("MS")
	assert.False(t, ok, "broadcast-only members are not addressed by row rules")
	assert.Len(t, dir.BroadcastRecipients(), 3)
}

func TestLoadDirectory_Errors(t *testing.T) {
	_, err := LoadDirectory(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)

	_, err = ParseDirectory([]byte("users: [not, a, map]"), nil)
	assert.Error(t, err)

	_, err = ParseDirectory([]byte("ignored: [AH]"), nil)
	assert.Error(t, err)
}
