package rest

import (
	"time"

	"github.com/bkyoung/coverage-commenter/internal/config"
)

// ParseTimeout parses the configured timeout, falling back to defaultVal.
// Negative durations are rejected (would cause runtime panic in
// http.Client.Timeout).
func ParseTimeout(configured string, defaultVal time.Duration) time.Duration {
	if configured != "" {
		if d, err := time.ParseDuration(configured); err == nil && d >= 0 {
			return d
		}
	}

	if defaultVal < 0 {
		return 30 * time.Second
	}
	return defaultVal
}

// BuildRetryConfig creates RetryConfig from the global HTTP config.
func BuildRetryConfig(httpCfg config.HTTPConfig) RetryConfig {
	cfg := DefaultRetryConfig()

	if httpCfg.MaxRetries > 0 {
		cfg.MaxRetries = httpCfg.MaxRetries
	}
	cfg.InitialBackoff = parseDuration(httpCfg.InitialBackoff, cfg.InitialBackoff)
	cfg.MaxBackoff = parseDuration(httpCfg.MaxBackoff, cfg.MaxBackoff)
	if httpCfg.BackoffMultiplier > 0 {
		cfg.Multiplier = httpCfg.BackoffMultiplier
	}

	return cfg
}

// parseDuration parses a configured duration, rejecting negatives.
func parseDuration(configured string, defaultVal time.Duration) time.Duration {
	if configured != "" {
		if d, err := time.ParseDuration(configured); err == nil && d >= 0 {
			return d
		}
	}
	return defaultVal
}
