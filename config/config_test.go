package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 9000\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "docshelf.db", cfg.Database.DSN)
	assert.Equal(t, uint(1), cfg.Auth.DefaultUserID)
	assert.Equal(t, "X-User-ID", cfg.Auth.UserHeader)
	assert.Equal(t, "http://localhost:9000", cfg.Share.BaseURL)
	assert.Equal(t, 32, cfg.Share.TokenBytes)
	assert.Equal(t, 7, cfg.Stats.ExpiringWithinDays)
	assert.Equal(t, 0, cfg.Stats.CacheTTLSeconds)
	assert.Equal(t, 50, cfg.Activity.DefaultLimit)
	assert.Same(t, cfg, AppConfig)
}

func TestLoadConfigKeepsExplicitValues(t *testing.T) {
	path := writeConfigFile(t, `
database:
  driver: mysql
  host: db
  port: 3306
share:
  base_url: https://docs.example.com/
stats:
  expiring_within_days: 30
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Empty(t, cfg.Database.DSN)
	assert.Equal(t, "https://docs.example.com", cfg.Share.BaseURL)
	assert.Equal(t, 30, cfg.Stats.ExpiringWithinDays)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 9000\nlog:\n  level: info\n")
	t.Setenv("DOCSHELF_PORT", "7070")
	t.Setenv("DOCSHELF_LOG_LEVEL", "debug")
	t.Setenv("DOCSHELF_STORAGE_PATH", "/srv/docs")
	t.Setenv("DOCSHELF_REDIS_ADDR", "cache:6380")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/srv/docs", cfg.Storage.BasePath)
	assert.Equal(t, "cache:6380", cfg.Redis.RedisAddr())
}

func TestLoadConfigRejectsBadPort(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 9000\n")
	t.Setenv("DOCSHELF_PORT", "eighty")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRedisAddrFromHostPort(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.RedisAddr())
}
