// Package config loads the application configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/m3rciful/dialogbot/core/database"
	"github.com/m3rciful/dialogbot/core/logger"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// AdminIDs are treated as superusers by the access guards.
	AdminIDs []int64 `yaml:"admin_ids" envconfig:"TELEGRAM_ADMIN_IDS"`
	// StaffIDs are treated as staff by the access guards.
	StaffIDs []int64 `yaml:"staff_ids" envconfig:"TELEGRAM_STAFF_IDS"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	// RateLimitMS is the minimum interval between updates per user; 0 disables.
	RateLimitMS int `yaml:"rate_limit_ms" envconfig:"TELEGRAM_RATE_LIMIT_MS"`
	// HTTPTimeoutSeconds bounds each Bot API call; 0 picks the default.
	HTTPTimeoutSeconds int `yaml:"http_timeout_seconds" envconfig:"TELEGRAM_HTTP_TIMEOUT_SECONDS"`
	// RetryAttempts is the retry count for transient Bot API transport
	// errors; 0 picks the default.
	RetryAttempts int `yaml:"retry_attempts" envconfig:"TELEGRAM_RETRY_ATTEMPTS"`
	// RetryBackoffMS is the base delay between retries; 0 picks the default.
	RetryBackoffMS int `yaml:"retry_backoff_ms" envconfig:"TELEGRAM_RETRY_BACKOFF_MS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// DialogConfig tunes the conversation engine.
type DialogConfig struct {
	// SaveFlushMS is the deferred saver flush interval in milliseconds.
	SaveFlushMS int `yaml:"save_flush_ms" envconfig:"DIALOG_SAVE_FLUSH_MS"`
	// PageSize is the default page size of select widgets.
	PageSize int `yaml:"page_size" envconfig:"DIALOG_PAGE_SIZE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// Config aggregates the configuration of the whole application.
type Config struct {
	Telegram TelegramConfig  `yaml:"telegram"`
	Webhook  WebhookConfig   `yaml:"webhook"`
	Logging  logger.Config   `yaml:"logging"`
	Database database.Config `yaml:"database"`
	Dialog   DialogConfig    `yaml:"dialog"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and
// adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if err := cfg.Database.Normalize(); err != nil {
		return err
	}

	if cfg.Telegram.RateLimitMS < 0 {
		return fmt.Errorf("telegram.rate_limit_ms must be >= 0")
	}
	if cfg.Telegram.HTTPTimeoutSeconds < 0 {
		return fmt.Errorf("telegram.http_timeout_seconds must be >= 0")
	}
	if cfg.Telegram.RetryAttempts < 0 {
		return fmt.Errorf("telegram.retry_attempts must be >= 0")
	}
	if cfg.Telegram.RetryBackoffMS < 0 {
		return fmt.Errorf("telegram.retry_backoff_ms must be >= 0")
	}
	if cfg.Dialog.SaveFlushMS < 0 {
		return fmt.Errorf("dialog.save_flush_ms must be >= 0")
	}
	if cfg.Dialog.PageSize < 0 {
		return fmt.Errorf("dialog.page_size must be >= 0")
	}
	if cfg.Dialog.PageSize == 0 {
		cfg.Dialog.PageSize = 10
	}
	return nil
}
