package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the application configuration
type Config struct {
	DatabaseURL       string `toml:"database_url"`
	Port              string `toml:"port"`
	DeviceTokenSecret string `toml:"device_token_secret"`
	DevMode           bool   `toml:"dev_mode"`
	CookieSecure      bool   `toml:"cookie_secure"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	LogFile   string `toml:"log_file"`

	LoginRatePerMinute int `toml:"login_rate_per_minute"`
	LoginRateBurst     int `toml:"login_rate_burst"`

	SessionCleanupInterval time.Duration `toml:"-"`
	CleanupInterval        string        `toml:"session_cleanup_interval"`
}

// Default returns a Config populated with defaults for every optional key.
func Default() *Config {
	return &Config{
		Port:                   "8080",
		CookieSecure:           true,
		LogLevel:               "info",
		LogFormat:              "json",
		LoginRatePerMinute:     20,
		LoginRateBurst:         10,
		SessionCleanupInterval: time.Hour,
	}
}

// Load reads configuration from an optional TOML file (CONFIG_FILE) and then
// from environment variables, which take precedence.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
		if cfg.CleanupInterval != "" {
			d, err := time.ParseDuration(cfg.CleanupInterval)
			if err != nil {
				return nil, fmt.Errorf("invalid session_cleanup_interval: %w", err)
			}
			cfg.SessionCleanupInterval = d
		}
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if _, err := url.Parse(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}

	if v := os.Getenv("DEVICE_TOKEN_SECRET"); v != "" {
		cfg.DeviceTokenSecret = v
	}
	if cfg.DeviceTokenSecret == "" {
		return nil, fmt.Errorf("DEVICE_TOKEN_SECRET environment variable is required")
	}

	if v := os.Getenv("DEV_MODE"); v != "" {
		cfg.DevMode = v == "true"
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		cfg.CookieSecure = v != "false"
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	var err error
	if cfg.LoginRatePerMinute, err = intEnv("LOGIN_RATE_PER_MINUTE", cfg.LoginRatePerMinute); err != nil {
		return nil, err
	}
	if cfg.LoginRateBurst, err = intEnv("LOGIN_RATE_BURST", cfg.LoginRateBurst); err != nil {
		return nil, err
	}
	if cfg.LoginRatePerMinute <= 0 {
		return nil, fmt.Errorf("login_rate_per_minute must be a positive integer")
	}
	if cfg.LoginRateBurst <= 0 {
		return nil, fmt.Errorf("login_rate_burst must be a positive integer")
	}

	if v := os.Getenv("SESSION_CLEANUP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_CLEANUP_INTERVAL: %w", err)
		}
		cfg.SessionCleanupInterval = d
	}
	if cfg.SessionCleanupInterval <= 0 {
		return nil, fmt.Errorf("SESSION_CLEANUP_INTERVAL must be positive")
	}

	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}
