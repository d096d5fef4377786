package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the host process configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	Profiler  ProfilerConfig
	RateLimit RateLimitConfig
	Bundle    BundleConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// ProfilerConfig controls request profiling. Enabled plays the role of a
// debug switch: clients are only instrumented when it is on.
type ProfilerConfig struct {
	Enabled     bool          `envconfig:"PROFILER_ENABLED" default:"true"`
	Capacity    int           `envconfig:"PROFILER_CAPACITY" default:"100"`
	TTL         time.Duration `envconfig:"PROFILER_TTL" default:"1h"`
	Stringifier string        `envconfig:"PROFILER_STRINGIFIER" default:"flat"`
}

// RateLimitConfig holds per-client-IP rate limiting of the host routes.
type RateLimitConfig struct {
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"false"`
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
}

// BundleConfig points at the search-engine client definitions.
type BundleConfig struct {
	Paths []string `envconfig:"ES_CONFIG" default:"config/elasticsearch.yaml"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Profiler: ProfilerConfig{
			Enabled:     true,
			Capacity:    100,
			TTL:         time.Hour,
			Stringifier: "flat",
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 100,
			Burst:             200,
		},
		Bundle: BundleConfig{
			Paths: []string{"config/elasticsearch.yaml"},
		},
	}
}
