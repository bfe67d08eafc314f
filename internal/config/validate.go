package config

import (
	"fmt"
	"net/url"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.API.BaseURL == "" {
		issues = append(issues, ValidationIssue{
			Path:    "api.baseUrl",
			Message: "base URL is required",
		})
	} else if u, err := url.Parse(cfg.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		issues = append(issues, ValidationIssue{
			Path:    "api.baseUrl",
			Message: fmt.Sprintf("must be an absolute URL, got %q", cfg.API.BaseURL),
		})
	}

	if cfg.API.TimeoutMS < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "api.timeoutMs",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.API.TimeoutMS),
		})
	}

	if cfg.Retry.MaxRetries < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "retry.maxRetries",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Retry.MaxRetries),
		})
	}
	if cfg.Retry.InitialDelayMS < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "retry.initialDelayMs",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Retry.InitialDelayMS),
		})
	}
	if cfg.Retry.MaxDelayMS > 0 && cfg.Retry.MaxDelayMS < cfg.Retry.InitialDelayMS {
		issues = append(issues, ValidationIssue{
			Path:    "retry.maxDelayMs",
			Message: "ceiling is below the initial delay",
		})
	}
	if cfg.Retry.Multiplier != 0 && cfg.Retry.Multiplier < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "retry.multiplier",
			Message: fmt.Sprintf("must be >= 1, got %g", cfg.Retry.Multiplier),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	return issues
}
