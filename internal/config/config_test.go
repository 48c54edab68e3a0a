package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TASKCAL_CONFIG", "TELEGRAM_TOKEN", "DATABASE_URL", "HTTP_ADDR",
		"REPORT_TIME", "TIMEZONE", "LOG_LEVEL", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "task_calendar.db", cfg.DatabaseURL)
	assert.Equal(t, "08:00", cfg.ReportTime)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotNil(t, cfg.Location)
	assert.False(t, cfg.BotEnabled())
	assert.Error(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "taskcalendar.yaml")
	content := `
telegram_token: from-file
database_url: /data/tasks.db
http_addr: ":8080"
timezone: Europe/Berlin
report_time: "07:30"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("TASKCAL_CONFIG", path)
	t.Setenv("TELEGRAM_TOKEN", "from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.TelegramToken)
	assert.Equal(t, "/data/tasks.db", cfg.DatabaseURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "07:30", cfg.ReportTime)
	assert.Equal(t, "Europe/Berlin", cfg.Location.String())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	t.Run("bad timezone", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TIMEZONE", "Mars/Olympus")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad report time", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("REPORT_TIME", "25:00")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TASKCAL_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{in: "08:00", hour: 8},
		{in: "23:59", hour: 23, minute: 59},
		{in: "8", wantErr: true},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "aa:bb", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, h)
			assert.Equal(t, tt.minute, m)
		})
	}
}
