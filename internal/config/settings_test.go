package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	settings, err := LoadSettings(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "memory", settings.Cache.Backend)
	assert.Equal(t, 256, settings.Cache.MaxSize)
	assert.Equal(t, 3600, settings.Cache.TTLSeconds)
	assert.Equal(t, "configs", settings.UseCases.Dir)
	assert.Equal(t, "info", settings.Logging.Level)
}

func TestLoadSettingsFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`cache:
  maxSize: 32
  ttlSeconds: 60
usecases:
  dir: /etc/biorempp/usecases
logging:
  level: debug
`), 0o644))

	settings, err := LoadSettings(context.Background(), "", path)
	require.NoError(t, err)

	assert.Equal(t, 32, settings.Cache.MaxSize)
	assert.Equal(t, 60, settings.Cache.TTLSeconds)
	assert.Equal(t, "/etc/biorempp/usecases", settings.UseCases.Dir)
	assert.Equal(t, "debug", settings.Logging.Level)
	assert.Equal(t, "memory", settings.Cache.Backend)
}

func TestLoadSettingsEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  backend: memory\n"), 0o644))

	t.Setenv("BIOREMPP_CACHE__BACKEND", "redis")
	t.Setenv("BIOREMPP_CACHE__REDIS__ADDRESS", "localhost:6379")
	t.Setenv("BIOREMPP_CACHE__MAX_SIZE", "16")

	settings, err := LoadSettings(context.Background(), "BIOREMPP", path)
	require.NoError(t, err)

	assert.Equal(t, "redis", settings.Cache.Backend)
	assert.Equal(t, "localhost:6379", settings.Cache.Redis.Address)
	assert.Equal(t, 16, settings.Cache.MaxSize)
}

func TestLoadSettingsRejectsUnknownBackend(t *testing.T) {
	t.Setenv("BIOREMPP_CACHE__BACKEND", "memcached")

	_, err := LoadSettings(context.Background(), "BIOREMPP")
	require.Error(t, err)
}

func TestLoadSettingsRedisBackendNeedsAddress(t *testing.T) {
	t.Setenv("BIOREMPP_CACHE__BACKEND", "redis")

	_, err := LoadSettings(context.Background(), "BIOREMPP")
	require.Error(t, err)
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, err := LoadSettings(context.Background(), "", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
