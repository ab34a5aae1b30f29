package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithDSN(t *testing.T) {
	t.Setenv("PRAVAHA_POSTGRES_DSN", "postgres://localhost/pravaha?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 2*time.Minute, cfg.Schedule.PollInterval)
	assert.Equal(t, 24*time.Hour, cfg.Schedule.BSESyncInterval)
	assert.Equal(t, 5, cfg.Enrich.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Enrich.InitialBackoff)
	assert.Equal(t, float64(2), cfg.Enrich.BackoffFactor)
	assert.Equal(t, "pravaha.announcements", cfg.Redis.Channel)
}

func TestLoadMissingDSNFails(t *testing.T) {
	t.Setenv("PRAVAHA_POSTGRES_DSN", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingPostgresDSN)
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9090"
postgres:
  dsn: postgres://yaml-host/pravaha
schedule:
  poll_interval: 30s
`), 0o600))
	t.Setenv("PRAVAHA_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "postgres://yaml-host/pravaha", cfg.Postgres.DSN)
	assert.Equal(t, 30*time.Second, cfg.Schedule.PollInterval)
	assert.Equal(t, "info", cfg.LogLevel, "defaults survive a partial file")
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
postgres:
  dsn: postgres://yaml-host/pravaha
`), 0o600))
	t.Setenv("PRAVAHA_CONFIG", path)
	t.Setenv("PRAVAHA_POSTGRES_DSN", "postgres://env-host/pravaha")
	t.Setenv("PRAVAHA_POLL_INTERVAL", "45s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://env-host/pravaha", cfg.Postgres.DSN)
	assert.Equal(t, 45*time.Second, cfg.Schedule.PollInterval)
}

func TestLoadUnreadableConfigFileFails(t *testing.T) {
	t.Setenv("PRAVAHA_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PRAVAHA_POSTGRES_DSN", "postgres://localhost/pravaha")

	_, err := Load()
	assert.ErrorContains(t, err, "read config file")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg := Default()
		cfg.Postgres.DSN = "postgres://localhost/pravaha"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"poll interval too short", func(c *Config) { c.Schedule.PollInterval = 500 * time.Millisecond }, ErrInvalidPollInterval},
		{"sync interval too short", func(c *Config) { c.Schedule.NSESyncInterval = time.Second }, ErrInvalidSyncInterval},
		{"zero attempts", func(c *Config) { c.Enrich.MaxAttempts = 0 }, ErrInvalidMaxAttempts},
		{"zero backoff", func(c *Config) { c.Enrich.InitialBackoff = 0 }, ErrInvalidInitialBackoff},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, ErrInvalidLogLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}

	assert.NoError(t, base().Validate())
}
