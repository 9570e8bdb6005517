package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/memostore/cache"
)

// isolate points every lookup location at fresh temp dirs.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "cache", AppName, "cache.json"), cfg.Cache.Path)
	assert.Equal(t, cache.DefaultCapacity, cfg.Cache.Capacity)
	assert.False(t, cfg.Cache.Atomic)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.GitHub.Timeout)
	assert.Equal(t, 3, cfg.GitHub.Retries)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "none", cfg.Telemetry.Tracing)
	assert.Empty(t, cfg.File)
}

func TestLoad_SearchPathFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config", AppName, "config.yaml"), `
cache:
  capacity: 3
  atomic: true
github:
  timeout: 2s
  token: secretref:env:GITHUB_TOKEN
log:
  level: debug
`)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Cache.Capacity)
	assert.True(t, cfg.Cache.Atomic)
	assert.Equal(t, 2*time.Second, cfg.GitHub.Timeout)
	assert.Equal(t, "secretref:env:GITHUB_TOKEN", cfg.GitHub.Token)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NotEmpty(t, cfg.File)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "cache:\n  capacity: 3\n  path: /from/file.json\n")

	t.Setenv("GHACTIVITY_CACHE_CAPACITY", "9")
	t.Setenv("GHACTIVITY_GITHUB_BASE_URL", "http://localhost:8080")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Cache.Capacity)
	assert.Equal(t, "/from/file.json", cfg.Cache.Path)
	assert.Equal(t, "http://localhost:8080", cfg.GitHub.BaseURL)
	assert.Equal(t, path, cfg.File)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	isolate(t)
	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	writeFile(t, path, "cache: [unterminated\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{"zero capacity", "GHACTIVITY_CACHE_CAPACITY", "0"},
		{"bad url", "GHACTIVITY_GITHUB_BASE_URL", "ftp://example.com"},
		{"zero timeout", "GHACTIVITY_GITHUB_TIMEOUT", "0s"},
		{"zero retries", "GHACTIVITY_GITHUB_RETRIES", "0"},
		{"bad log level", "GHACTIVITY_LOG_LEVEL", "verbose"},
		{"bad exporter", "GHACTIVITY_TELEMETRY_TRACING", "jaeger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.env, tt.val)
			_, err := Load("")
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConfig_Observe(t *testing.T) {
	cfg := &Config{
		Log:       LogConfig{Level: "info"},
		Telemetry: TelemetryConfig{Tracing: "stdout", Metrics: "none", SamplePct: 0.5},
	}

	oc := cfg.Observe("1.2.3")
	assert.Equal(t, AppName, oc.ServiceName)
	assert.Equal(t, "1.2.3", oc.Version)
	assert.True(t, oc.Tracing.Enabled)
	assert.False(t, oc.Metrics.Enabled)
	assert.True(t, oc.Logging.Enabled)
	require.NoError(t, oc.Validate())
}
