package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type ScannerConfig struct {
	// CronSpec drives the scheduler adapter; the engine itself only
	// exposes a run-once entry point.
	CronSpec        string        `mapstructure:"cron_spec"`
	PageSize        int           `mapstructure:"page_size"`
	InitialLookback time.Duration `mapstructure:"initial_lookback"`
	SearchTimeout   time.Duration `mapstructure:"search_timeout"`
	RetentionInDays int           `mapstructure:"retention_in_days"`
	TriggerSecret   string        `mapstructure:"trigger_secret"`
}

func (config *ScannerConfig) setDefaults() {
	if config.CronSpec == "" {
		config.CronSpec = "*/15 * * * *"
	}
	if config.PageSize == 0 {
		config.PageSize = 100
	}
	if config.InitialLookback == 0 {
		config.InitialLookback = 24 * time.Hour
	}
	if config.SearchTimeout == 0 {
		config.SearchTimeout = 2 * time.Minute
	}
	if config.RetentionInDays == 0 {
		config.RetentionInDays = 90
	}
}

func (config ScannerConfig) validate() error {

	if config.PageSize < 1 {
		return fmt.Errorf("page_size must be positive, got %d", config.PageSize)
	}

	if config.InitialLookback < 0 {
		return fmt.Errorf("initial_lookback must not be negative, got %v", config.InitialLookback)
	}

	if config.RetentionInDays < 1 {
		return fmt.Errorf("retention_in_days must be positive, got %d", config.RetentionInDays)
	}

	return nil
}

func (config ScannerConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("scanner.cron_spec", "SCAN_CRON_SPEC"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("scanner.page_size", "SCAN_PAGE_SIZE"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("scanner.initial_lookback", "SCAN_INITIAL_LOOKBACK"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("scanner.search_timeout", "SCAN_SEARCH_TIMEOUT"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("scanner.retention_in_days", "SCAN_RETENTION_DAYS"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("scanner.trigger_secret", "SCAN_TRIGGER_SECRET"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
