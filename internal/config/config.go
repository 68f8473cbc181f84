// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"feed_kiosk/internal/filter"
)

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	FeedURL       string        `envconfig:"FEED_URL" default:"https://www.inkhaven.blog/feed.json"`
	FetchInterval time.Duration `envconfig:"FETCH_INTERVAL" default:"30s"`
	FetchTimeout  time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`

	PostDuration      time.Duration `envconfig:"POST_DURATION" default:"10s"`
	MaxPostDuration   time.Duration `envconfig:"MAX_POST_DURATION" default:"300s"`
	QueuePollInterval time.Duration `envconfig:"QUEUE_POLL_INTERVAL" default:"5s"`
	DiscoveryWindow   time.Duration `envconfig:"DISCOVERY_WINDOW" default:"10m"`

	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"json"`
	QueueFile      string `envconfig:"QUEUE_FILE" default:"post_queue.json"`
	SeenFile       string `envconfig:"SEEN_FILE" default:"seen_posts.json"`
	DatabasePath   string `envconfig:"DATABASE_PATH" default:"./data/kiosk.db"`

	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Filters is a semicolon separated list of kind[:scope]:value rules.
	Filters string `envconfig:"FILTERS"`

	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if c.FeedURL == "" {
		return fmt.Errorf("FEED_URL is required")
	}

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"FETCH_INTERVAL", c.FetchInterval},
		{"FETCH_TIMEOUT", c.FetchTimeout},
		{"POST_DURATION", c.PostDuration},
		{"MAX_POST_DURATION", c.MaxPostDuration},
		{"QUEUE_POLL_INTERVAL", c.QueuePollInterval},
		{"DISCOVERY_WINDOW", c.DiscoveryWindow},
	} {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.value)
		}
	}

	switch c.StorageBackend {
	case BackendJSON:
		if c.QueueFile == "" || c.SeenFile == "" {
			return fmt.Errorf("QUEUE_FILE and SEEN_FILE are required for the json backend")
		}
	case BackendSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q, use: json, sqlite", c.StorageBackend)
	}

	if c.TelegramBotToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}

	if _, err := c.FilterRules(); err != nil {
		return fmt.Errorf("invalid FILTERS: %w", err)
	}
	return nil
}

// FilterRules parses the configured display filters.
func (c *Config) FilterRules() ([]filter.Rule, error) {
	return filter.ParseRules(c.Filters)
}

// DisplayDuration returns how long a post stays on screen without a skip.
func (c *Config) DisplayDuration() time.Duration {
	return min(c.PostDuration, c.MaxPostDuration)
}

// NotifyEnabled reports whether Telegram notifications are configured.
func (c *Config) NotifyEnabled() bool {
	return c.TelegramBotToken != ""
}
