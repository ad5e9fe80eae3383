package config

import "github.com/spf13/viper"

type NotifierConfig struct {
	EmitMaxPerSecond float32 `mapstructure:"emit_max_per_second"`

	// TelegramToken enables the optional Telegram delivery adapter;
	// leave empty to keep notifications in-app only.
	TelegramToken string `mapstructure:"telegram_token"`
}

func (config *NotifierConfig) setDefaults() {
	if config.EmitMaxPerSecond == 0 {
		config.EmitMaxPerSecond = 10
	}
}

func (config NotifierConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("notifier.emit_max_per_second", "EMIT_MAX_PER_SECOND"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("notifier.telegram_token", "TELEGRAM_TOKEN"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
