package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "DATABASE_URL", "PORT", "DEVICE_TOKEN_SECRET", "DEV_MODE",
		"COOKIE_SECURE", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
		"LOGIN_RATE_PER_MINUTE", "LOGIN_RATE_BURST", "SESSION_CLEANUP_INTERVAL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEVICE_TOKEN_SECRET", "secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_RequiresDeviceTokenSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/travel")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEVICE_TOKEN_SECRET")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/travel")
	t.Setenv("DEVICE_TOKEN_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.CookieSecure)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 20, cfg.LoginRatePerMinute)
	assert.Equal(t, 10, cfg.LoginRateBurst)
	assert.Equal(t, time.Hour, cfg.SessionCleanupInterval)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
database_url = "postgres://file@localhost/travel"
device_token_secret = "from-file"
port = "9000"
dev_mode = true
session_cleanup_interval = "15m"
login_rate_burst = 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")
	t.Setenv("COOKIE_SECURE", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://file@localhost/travel", cfg.DatabaseURL)
	assert.Equal(t, "from-file", cfg.DeviceTokenSecret)
	assert.Equal(t, "9100", cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, 3, cfg.LoginRateBurst)
	assert.Equal(t, 15*time.Minute, cfg.SessionCleanupInterval)
}

func TestLoad_InvalidRate(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/travel")
	t.Setenv("DEVICE_TOKEN_SECRET", "secret")
	t.Setenv("LOGIN_RATE_PER_MINUTE", "zero")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidRateFromFile(t *testing.T) {
	for _, content := range []string{"login_rate_burst = 0", "login_rate_per_minute = -5"} {
		t.Run(content, func(t *testing.T) {
			clearEnv(t)
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
			t.Setenv("CONFIG_FILE", path)
			t.Setenv("DATABASE_URL", "postgres://u:p@localhost/travel")
			t.Setenv("DEVICE_TOKEN_SECRET", "secret")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "login_rate")
		})
	}
}
