package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000", cfg.Backend.URL)
	require.Equal(t, "/api/v1", cfg.Backend.Prefix)
	require.Equal(t, 5*time.Minute, cfg.Backend.Timeout)
	require.True(t, cfg.Segmentation.MultimaskOutput)
	require.Equal(t, "img2img", cfg.Retouch.Operation)
	require.Equal(t, "memory", cfg.Store.Driver)
	require.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	require.Equal(t, ":8000", cfg.Mock.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("BACKEND_URL", "http://sam:9000")
	t.Setenv("BACKEND_TIMEOUT", "30s")
	t.Setenv("SEGMENTATION_MULTIMASK_OUTPUT", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "123:abc", cfg.Telegram.Token)
	require.Equal(t, "http://sam:9000", cfg.Backend.URL)
	require.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	require.False(t, cfg.Segmentation.MultimaskOutput)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: redis\nredis:\n  addr: cache:6379\n  db: 2\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "redis", cfg.Store.Driver)
	require.Equal(t, "cache:6379", cfg.Redis.Addr)
	require.Equal(t, 2, cfg.Redis.DB)
}

func TestValidate(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	require.NoError(t, err)

	bad := *cfg
	bad.Store.Driver = "postgres"
	require.Error(t, bad.Validate())

	bad = *cfg
	bad.Backend.Timeout = 0
	require.Error(t, bad.Validate())

	bad = *cfg
	bad.Retouch.Strength = 1.5
	require.Error(t, bad.Validate())
}
