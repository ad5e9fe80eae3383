package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_Config_EnvironmentOverrideWorksCorrect(t *testing.T) {
	os.Setenv("CONFIG_PATH", "../../configs/config.yaml")
	os.Setenv("SCAN_CRON_SPEC", "*/5 * * * *")
	os.Setenv("SCAN_PAGE_SIZE", "25")
	os.Setenv("SCAN_INITIAL_LOOKBACK", "48h")
	os.Setenv("SCAN_SEARCH_TIMEOUT", "30s")
	os.Setenv("SCAN_RETENTION_DAYS", "14")
	os.Setenv("SCAN_TRIGGER_SECRET", "override-secret")
	os.Setenv("EMIT_MAX_PER_SECOND", "3.5")
	os.Setenv("DB_CONNECTION_STRING", "file:override.db")
	os.Setenv("LOG_LEVEL", "DEBUG")
	defer func() {
		for _, key := range []string{
			"CONFIG_PATH", "SCAN_CRON_SPEC", "SCAN_PAGE_SIZE", "SCAN_INITIAL_LOOKBACK",
			"SCAN_SEARCH_TIMEOUT", "SCAN_RETENTION_DAYS", "SCAN_TRIGGER_SECRET",
			"EMIT_MAX_PER_SECOND", "DB_CONNECTION_STRING", "LOG_LEVEL",
		} {
			os.Unsetenv(key)
		}
	}()

	cfg := Get()

	assert.Equal(t, "*/5 * * * *", cfg.Scanner.CronSpec)
	assert.Equal(t, 25, cfg.Scanner.PageSize)
	assert.Equal(t, 48*time.Hour, cfg.Scanner.InitialLookback)
	assert.Equal(t, 30*time.Second, cfg.Scanner.SearchTimeout)
	assert.Equal(t, 14, cfg.Scanner.RetentionInDays)
	assert.Equal(t, "override-secret", cfg.Scanner.TriggerSecret)
	assert.Equal(t, float32(3.5), cfg.Notifier.EmitMaxPerSecond)
	assert.Equal(t, "file:override.db", cfg.DB.ConnectionString)
	assert.Equal(t, LevelDebug, cfg.Logger.LogLevel)
}

func Test_Config_DefaultsAreApplied(t *testing.T) {
	cfg, err := loadConfig("../../configs/config.yaml")

	assert.NoError(t, err)
	assert.Equal(t, 100, cfg.Scanner.PageSize)
	assert.Equal(t, 24*time.Hour, cfg.Scanner.InitialLookback)
	assert.NotEmpty(t, cfg.Scanner.CronSpec)
}
