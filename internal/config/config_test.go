package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "http://localhost:9080", cfg.API.BaseURL)
	assert.Equal(t, 30_000, cfg.API.TimeoutMS)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 1_000, cfg.Retry.InitialDelayMS)
	assert.Equal(t, 30_000, cfg.Retry.MaxDelayMS)
	assert.Equal(t, float64(2), cfg.Retry.Multiplier)
	assert.True(t, cfg.Streaming.Enabled)
	assert.Equal(t, "default", cfg.Tenant)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().API.BaseURL, cfg.API.BaseURL)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  baseUrl: https://agent.example.com
streaming:
  enabled: true
tenant: acme
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://agent.example.com", cfg.API.BaseURL)
	assert.True(t, cfg.Streaming.Enabled)
	assert.Equal(t, "acme", cfg.Tenant)
	// untouched fields keep defaults
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 30_000, cfg.API.TimeoutMS)
}

func TestLoadExplicitStreamingOff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("streaming:\n  enabled: false\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Streaming.Enabled)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [not a map"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config:")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PARLEY_API_BASE_URL", "http://10.0.0.5:9080")
	t.Setenv("PARLEY_RETRY_ATTEMPTS", "5")
	t.Setenv("PARLEY_STREAMING", "true")
	t.Setenv("PARLEY_TENANT", "tenant-b")
	t.Setenv("PARLEY_API_TIMEOUT_MS", "garbage") // ignored

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:9080", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.True(t, cfg.Streaming.Enabled)
	assert.Equal(t, "tenant-b", cfg.Tenant)
	assert.Equal(t, 30_000, cfg.API.TimeoutMS)
}

func TestDurationHelpers(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "30s", cfg.API.Timeout().String())
	assert.Equal(t, "1s", cfg.Retry.InitialDelay().String())
	assert.Equal(t, "30s", cfg.Retry.MaxDelay().String())
}
