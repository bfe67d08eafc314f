package config

import "time"

// Config is the root configuration for Parley.
type Config struct {
	API       APIConfig       `yaml:"api,omitempty"`
	Retry     RetryConfig     `yaml:"retry,omitempty"`
	Streaming StreamingConfig `yaml:"streaming,omitempty"`
	Tenant    string          `yaml:"tenant,omitempty"` // default tenant scope for all requests
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
	Database  DatabaseConfig  `yaml:"database,omitempty"`
}

// APIConfig points the client at the agent backend.
type APIConfig struct {
	BaseURL   string `yaml:"baseUrl,omitempty"`
	TimeoutMS int    `yaml:"timeoutMs,omitempty"` // per-request budget
}

// Timeout returns the request timeout as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// RetryConfig controls the retry coordinator.
type RetryConfig struct {
	MaxRetries     int     `yaml:"maxRetries,omitempty"`     // retries beyond the initial attempt
	InitialDelayMS int     `yaml:"initialDelayMs,omitempty"` // first back-off step
	MaxDelayMS     int     `yaml:"maxDelayMs,omitempty"`     // back-off ceiling
	Multiplier     float64 `yaml:"multiplier,omitempty"`     // back-off growth factor
}

// InitialDelay returns the first back-off step as a duration.
func (c RetryConfig) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelayMS) * time.Millisecond
}

// MaxDelay returns the back-off ceiling as a duration.
func (c RetryConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMS) * time.Millisecond
}

// StreamingConfig controls the SSE message path.
type StreamingConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // trace|debug|info|warn|error|fatal|silent
}

// DatabaseConfig locates the local transcript cache.
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"` // SQLite file, ":memory:" for ephemeral
}
