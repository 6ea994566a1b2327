package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, filepath.Join(cfg.CacheDir, "purse.db"), cfg.DBPath)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PURSE_API_URL", "https://wallet.example.com/api/v1/")
	t.Setenv("PURSE_CACHE_DIR", dir)
	t.Setenv("PURSE_PAGE_SIZE", "5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://wallet.example.com/api/v1", cfg.APIURL)
	assert.Equal(t, filepath.Join(dir, "purse.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "debug.log"), cfg.LogPath)
	assert.Equal(t, 5, cfg.PageSize)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "purse.yaml")
	body := "api_url: https://api.example.com/v1\nrequest_timeout: 3s\nmonitor_interval: 1m\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Minute, cfg.MonitorInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty api url", func(c *Config) { c.APIURL = "" }},
		{"non http api url", func(c *Config) { c.APIURL = "ftp://example.com" }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"zero monitor interval", func(c *Config) { c.MonitorInterval = 0 }},
		{"zero page size", func(c *Config) { c.PageSize = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
