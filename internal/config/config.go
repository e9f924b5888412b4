package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the notifier bot.
type Config struct {
	ScanInterval time.Duration
	Concurrency  int // max users processed in parallel per scan cycle
	DatabasePath string
	Upwork       UpworkConfig
	Telegram     TelegramConfig
	Notification NotificationConfig
	RateLimit    RateLimitConfig
	WebApp       WebAppConfig
}

// UpworkConfig controls the scraping adapter.
type UpworkConfig struct {
	BaseURL      string        // defaults to https://www.upwork.com
	FetchTimeout time.Duration // per-request timeout
	UserAgent    string
}

// TelegramConfig holds Bot API settings shared by the notifier and the
// command bot.
type TelegramConfig struct {
	Token   string        // expanded from env var by Load
	APIURL  string        // defaults to https://api.telegram.org
	Timeout time.Duration // per-send timeout
}

// NotificationConfig selects the notifier backend.
type NotificationConfig struct {
	Type string `yaml:"type"` // "telegram" or "log"
}

// RateLimitConfig controls the minimum gap between requests to the same
// Upwork endpoint.
type RateLimitConfig struct {
	MinDelay time.Duration
}

// WebAppConfig controls the session web surface.
type WebAppConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

const (
	defaultUpworkBaseURL  = "https://www.upwork.com"
	defaultTelegramAPIURL = "https://api.telegram.org"
	defaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	defaultScanInterval   = 5 * time.Minute
	defaultConcurrency    = 4
	defaultFetchTimeout   = 30 * time.Second
	defaultNotifyTimeout  = 10 * time.Second
	defaultRateLimitDelay = 2 * time.Second
	defaultWebAppAddr     = ":8080"
	defaultDatabasePath   = "bot.db"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	ScanInterval string             `yaml:"scan_interval"`
	Concurrency  int                `yaml:"concurrency"`
	DatabasePath string             `yaml:"database_path"`
	Upwork       rawUpworkConfig    `yaml:"upwork"`
	Telegram     rawTelegramConfig  `yaml:"telegram"`
	Notification NotificationConfig `yaml:"notification"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	WebApp       WebAppConfig       `yaml:"webapp"`
}

type rawUpworkConfig struct {
	BaseURL      string `yaml:"base_url"`
	FetchTimeout string `yaml:"fetch_timeout"`
	UserAgent    string `yaml:"user_agent"`
}

type rawTelegramConfig struct {
	Token   string `yaml:"token"`
	APIURL  string `yaml:"api_url"`
	Timeout string `yaml:"timeout"`
}

type rawRateLimitConfig struct {
	MinDelay string `yaml:"min_delay"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables (the bot token commonly comes from the env).
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	interval := defaultScanInterval
	if raw.ScanInterval != "" {
		interval, err = time.ParseDuration(raw.ScanInterval)
		if err != nil {
			return nil, fmt.Errorf("parse scan_interval %q: %w", raw.ScanInterval, err)
		}
	}

	fetchTimeout := defaultFetchTimeout
	if raw.Upwork.FetchTimeout != "" {
		fetchTimeout, err = time.ParseDuration(raw.Upwork.FetchTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse upwork.fetch_timeout %q: %w", raw.Upwork.FetchTimeout, err)
		}
	}

	notifyTimeout := defaultNotifyTimeout
	if raw.Telegram.Timeout != "" {
		notifyTimeout, err = time.ParseDuration(raw.Telegram.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse telegram.timeout %q: %w", raw.Telegram.Timeout, err)
		}
	}

	rateLimitDelay := defaultRateLimitDelay
	if raw.RateLimit.MinDelay != "" {
		rateLimitDelay, err = time.ParseDuration(raw.RateLimit.MinDelay)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.min_delay %q: %w", raw.RateLimit.MinDelay, err)
		}
	}

	cfg := &Config{
		ScanInterval: interval,
		Concurrency:  raw.Concurrency,
		DatabasePath: raw.DatabasePath,
		Upwork: UpworkConfig{
			BaseURL:      raw.Upwork.BaseURL,
			FetchTimeout: fetchTimeout,
			UserAgent:    raw.Upwork.UserAgent,
		},
		Telegram: TelegramConfig{
			Token:   raw.Telegram.Token,
			APIURL:  raw.Telegram.APIURL,
			Timeout: notifyTimeout,
		},
		Notification: raw.Notification,
		RateLimit: RateLimitConfig{
			MinDelay: rateLimitDelay,
		},
		WebApp: raw.WebApp,
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaultDatabasePath
	}
	if cfg.Upwork.BaseURL == "" {
		cfg.Upwork.BaseURL = defaultUpworkBaseURL
	}
	if cfg.Upwork.UserAgent == "" {
		cfg.Upwork.UserAgent = defaultUserAgent
	}
	if cfg.Telegram.APIURL == "" {
		cfg.Telegram.APIURL = defaultTelegramAPIURL
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}
	if cfg.WebApp.ListenAddr == "" {
		cfg.WebApp.ListenAddr = defaultWebAppAddr
	}
}

func validate(cfg *Config) error {
	if cfg.ScanInterval < time.Minute {
		return fmt.Errorf("scan_interval must be at least 1m, got %v", cfg.ScanInterval)
	}

	switch cfg.Notification.Type {
	case "telegram":
		if cfg.Telegram.Token == "" {
			return fmt.Errorf("telegram.token is required when notification.type is \"telegram\"")
		}
	case "log":
	default:
		return fmt.Errorf("notification.type must be \"telegram\" or \"log\", got %q", cfg.Notification.Type)
	}

	return nil
}
