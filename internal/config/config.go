// Package config loads and validates Parley configuration from YAML
// and PARLEY_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL:   "http://localhost:9080",
			TimeoutMS: 30_000,
		},
		Retry: RetryConfig{
			MaxRetries:     3,
			InitialDelayMS: 1_000,
			MaxDelayMS:     30_000,
			Multiplier:     2,
		},
		Streaming: StreamingConfig{
			// An absent streaming endpoint falls back to blocking
			// requests automatically, so streaming is safe to default on.
			Enabled: true,
		},
		Tenant: "default",
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// applyDefaults fills zero values left by a partial config file.
func applyDefaults(cfg *Config) {
	def := Defaults()
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = def.API.BaseURL
	}
	if cfg.API.TimeoutMS == 0 {
		cfg.API.TimeoutMS = def.API.TimeoutMS
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = def.Retry.MaxRetries
	}
	if cfg.Retry.InitialDelayMS == 0 {
		cfg.Retry.InitialDelayMS = def.Retry.InitialDelayMS
	}
	if cfg.Retry.MaxDelayMS == 0 {
		cfg.Retry.MaxDelayMS = def.Retry.MaxDelayMS
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry.Multiplier = def.Retry.Multiplier
	}
	if cfg.Tenant == "" {
		cfg.Tenant = def.Tenant
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
}

// applyEnvOverrides applies PARLEY_* environment variables on top of the
// loaded config. Invalid numeric values are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PARLEY_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("PARLEY_API_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.API.TimeoutMS = n
		}
	}
	if v := os.Getenv("PARLEY_RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Retry.MaxRetries = n
		}
	}
	if v := os.Getenv("PARLEY_RETRY_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retry.InitialDelayMS = n
		}
	}
	if v := os.Getenv("PARLEY_STREAMING"); v != "" {
		cfg.Streaming.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("PARLEY_TENANT"); v != "" {
		cfg.Tenant = v
	}
	if v := os.Getenv("PARLEY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PARLEY_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
}
