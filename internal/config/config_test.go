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
	for _, k := range []string{"MEDSTORE_API_URL", "MEDSTORE_STORAGE", "MEDSTORE_REDIS_URL", "MEDSTORE_DB"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.API.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("expected default base URL, got %s", cfg.API.BaseURL)
	}
	if cfg.Storage.Backend != BackendFile {
		t.Errorf("expected file backend, got %s", cfg.Storage.Backend)
	}
	if cfg.GetFeaturedLimit() != 3 {
		t.Errorf("expected featured limit 3, got %d", cfg.GetFeaturedLimit())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".medstore", "config.yaml")

	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://shop.example.com"
	cfg.Storage.Backend = BackendSQLite
	cfg.Bank.AccountNumber = "9134744193"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com", loaded.API.BaseURL)
	assert.Equal(t, BackendSQLite, loaded.Storage.Backend)
	assert.Equal(t, "9134744193", loaded.Bank.AccountNumber)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().API, cfg.API)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MEDSTORE_API_URL", "http://backend:9000")
	t.Setenv("MEDSTORE_STORAGE", "redis")
	t.Setenv("MEDSTORE_REDIS_URL", "redis://cache:6379/1")
	t.Setenv("MEDSTORE_DB", "/tmp/x.db")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "http://backend:9000", cfg.API.BaseURL)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "redis://cache:6379/1", cfg.Storage.RedisURL)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.SQLitePath)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("relative base url", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.API.BaseURL = "/api"
		assert.Error(t, cfg.Validate())
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.API.BaseURL = "ftp://example.com"
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Storage.Backend = "localStorage"
		assert.Error(t, cfg.Validate())
	})

	t.Run("redis without url", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Storage.Backend = BackendRedis
		cfg.Storage.RedisURL = ""
		assert.Error(t, cfg.Validate())
	})
}

func TestConfig_Helpers(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 15*time.Second, cfg.GetAPITimeout())

	cfg.API.Timeout = "garbage"
	assert.Equal(t, 15*time.Second, cfg.GetAPITimeout())

	cfg.API.Timeout = "2s"
	assert.Equal(t, 2*time.Second, cfg.GetAPITimeout())

	cfg.Shop.FeaturedLimit = 0
	assert.Equal(t, 3, cfg.GetFeaturedLimit())

	assert.Equal(t, "/abs/x", ResolvePath("/ws", "/abs/x"))
	assert.Equal(t, filepath.Join("/ws", "rel"), ResolvePath("/ws", "rel"))
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	lc := LoggingConfig{}
	assert.False(t, lc.IsCategoryEnabled("cart"))

	lc.DebugMode = true
	assert.True(t, lc.IsCategoryEnabled("cart"))

	lc.Categories = map[string]bool{"cart": false}
	assert.False(t, lc.IsCategoryEnabled("cart"))
	assert.True(t, lc.IsCategoryEnabled("api"))

	opts := lc.Options()
	assert.True(t, opts.DebugMode)
	assert.Equal(t, lc.Categories, opts.Categories)
}
