// Package config provides configuration for the pipeline process.
// Values come from the environment first; an optional YAML file named by
// PRAVAHA_CONFIG overrides defaults before env vars are applied, so
// deployments can ship a file and still tweak single values per instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingPostgresDSN    = errors.New("postgres.dsn is required")
	ErrInvalidPollInterval   = errors.New("schedule.poll_interval must be at least 1s")
	ErrInvalidSyncInterval   = errors.New("schedule.sync_interval must be at least 1m")
	ErrInvalidMaxAttempts    = errors.New("enrich.max_attempts must be at least 1")
	ErrInvalidInitialBackoff = errors.New("enrich.initial_backoff must be positive")
	ErrInvalidLogLevel       = errors.New("log_level must be one of: debug, info, warn, error")
)

// Config is the full process configuration.
type Config struct {
	Addr     string   `yaml:"addr"`
	LogLevel string   `yaml:"log_level"`
	Postgres Postgres `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Kafka    Kafka    `yaml:"kafka"`
	Telegram Telegram `yaml:"telegram"`
	Gemini   Gemini   `yaml:"gemini"`
	Feed     Feed     `yaml:"feed"`
	Schedule Schedule `yaml:"schedule"`
	Enrich   Enrich   `yaml:"enrich"`
}

// Postgres holds the database connection settings.
type Postgres struct {
	DSN string `yaml:"dsn"`
}

// Redis holds the live-channel broadcast settings. An empty URL disables
// the redis sink.
type Redis struct {
	URL     string `yaml:"url"`
	Channel string `yaml:"channel"`
}

// Kafka holds the optional durable announcement sink. Empty brokers
// disable it.
type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Telegram holds the push-notification bot settings. An empty token
// disables subscriber push.
type Telegram struct {
	BotToken string `yaml:"bot_token"`
	BaseURL  string `yaml:"base_url"`
}

// Gemini holds the structured-analysis capability settings.
type Gemini struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Feed holds the announcement discovery settings.
type Feed struct {
	AnnouncementsURL string        `yaml:"announcements_url"`
	Timeout          time.Duration `yaml:"timeout"`
}

// Schedule holds the job cadences.
type Schedule struct {
	PollInterval    time.Duration `yaml:"poll_interval"`
	BSESyncInterval time.Duration `yaml:"bse_sync_interval"`
	NSESyncInterval time.Duration `yaml:"nse_sync_interval"`
}

// Enrich holds the analysis retry policy.
type Enrich struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	BackoffFactor  float64       `yaml:"backoff_factor"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:     ":8080",
		LogLevel: "info",
		Redis: Redis{
			Channel: "pravaha.announcements",
		},
		Kafka: Kafka{
			Topic: "pravaha.announcements",
		},
		Telegram: Telegram{
			BaseURL: "https://api.telegram.org",
		},
		Gemini: Gemini{
			Model:   "gemini-2.5-flash",
			BaseURL: "https://generativelanguage.googleapis.com",
			Timeout: 60 * time.Second,
		},
		Feed: Feed{
			AnnouncementsURL: "https://www.nseindia.com/api/corporate-announcements?index=equities",
			Timeout:          60 * time.Second,
		},
		Schedule: Schedule{
			PollInterval:    2 * time.Minute,
			BSESyncInterval: 24 * time.Hour,
			NSESyncInterval: 24 * time.Hour,
		},
		Enrich: Enrich{
			MaxAttempts:    5,
			InitialBackoff: time.Second,
			BackoffFactor:  2,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by PRAVAHA_CONFIG, and environment variables, in that order.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("PRAVAHA_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Addr, "PRAVAHA_ADDR")
	setString(&cfg.LogLevel, "PRAVAHA_LOG_LEVEL")
	setString(&cfg.Postgres.DSN, "PRAVAHA_POSTGRES_DSN")
	setString(&cfg.Redis.URL, "PRAVAHA_REDIS_URL")
	setString(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "GEMINI_MODEL")
	setString(&cfg.Feed.AnnouncementsURL, "PRAVAHA_FEED_URL")
	setDuration(&cfg.Schedule.PollInterval, "PRAVAHA_POLL_INTERVAL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Postgres.DSN == "" {
		return ErrMissingPostgresDSN
	}
	if c.Schedule.PollInterval < time.Second {
		return ErrInvalidPollInterval
	}
	if c.Schedule.BSESyncInterval < time.Minute || c.Schedule.NSESyncInterval < time.Minute {
		return ErrInvalidSyncInterval
	}
	if c.Enrich.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if c.Enrich.InitialBackoff <= 0 {
		return ErrInvalidInitialBackoff
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, strconv.Quote(c.LogLevel))
	}
	return nil
}
