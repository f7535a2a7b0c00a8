package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, filepath.Join(dir, "walletlock.db"), cfg.DataPath)
	assert.Equal(t, "localhost:8787", cfg.DaemonAddress)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.True(t, cfg.IsLocal())
	assert.False(t, cfg.IsProd())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("DATA_PATH", "/tmp/wl.db")
	t.Setenv("POLL_INTERVAL_MS", "50")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, DriverRedis, cfg.StoreDriver)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "/tmp/wl.db", cfg.DataPath)
	assert.Equal(t, 50*time.Millisecond, cfg.PollInterval)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "walletlock.yaml")
	require.NoError(t, os.WriteFile(file, []byte("STORE_DRIVER: memory\nDAEMON_ADDRESS: 127.0.0.1:9999\n"), 0600))
	t.Setenv("CONFIG_DIR", dir)

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "127.0.0.1:9999", cfg.DaemonAddress)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown env", env: map[string]string{"APP_ENV": "staging"}},
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "etcd"}},
		{name: "postgres without uri", env: map[string]string{"STORE_DRIVER": "postgres", "DATABASE_URI": ""}},
		{name: "zero poll interval", env: map[string]string{"POLL_INTERVAL_MS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_DIR", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnsureDirs(t *testing.T) {
	cfg := &Config{DataPath: filepath.Join(t.TempDir(), "nested", "wl.db")}
	require.NoError(t, cfg.EnsureDirs())

	info, err := os.Stat(filepath.Dir(cfg.DataPath))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
