package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.True(t, cfg.Profiler.Enabled)
	assert.Equal(t, 100, cfg.Profiler.Capacity)
	assert.Equal(t, time.Hour, cfg.Profiler.TTL)
	assert.Equal(t, "flat", cfg.Profiler.Stringifier)

	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)

	assert.Equal(t, []string{"config/elasticsearch.yaml"}, cfg.Bundle.Paths)
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                 "9000",
		"HOST":                 "127.0.0.1",
		"LOG_LEVEL":            "debug",
		"LOG_DEV":              "true",
		"PROFILER_ENABLED":     "false",
		"PROFILER_CAPACITY":    "10",
		"PROFILER_TTL":         "5m",
		"PROFILER_STRINGIFIER": "dump",
		"ES_CONFIG":            "base.yaml,override.toml",
	}

	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.False(t, cfg.Profiler.Enabled)
	assert.Equal(t, 10, cfg.Profiler.Capacity)
	assert.Equal(t, 5*time.Minute, cfg.Profiler.TTL)
	assert.Equal(t, "dump", cfg.Profiler.Stringifier)
	assert.Equal(t, []string{"base.yaml", "override.toml"}, cfg.Bundle.Paths)
}

func TestLoadWithInvalidEnvironment(t *testing.T) {
	t.Setenv("PROFILER_CAPACITY", "lots")

	_, err := Load()
	assert.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, 100, cfg.Profiler.Capacity)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	os.Unsetenv("HOST")
	t.Setenv("PORT", "3000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.True(t, cfg.Profiler.Enabled)
}
