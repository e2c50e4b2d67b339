// Package resilience provides bounded retry for transient conditions
package resilience

import (
	"context"
	"log/slog"
	"time"
)

// Retry configuration constants
const (
	DefaultMaxRetries = 3
	DefaultInterval   = 500 * time.Millisecond
)

// RetryConfig holds retry settings. The sleep policy is a fixed interval
// between attempts; transient conditions here (a capture frame that is not
// ready yet) clear on their own schedule, so backoff buys nothing.
type RetryConfig struct {
	MaxRetries  int
	Interval    time.Duration
	IsRetryable func(error) bool
}

// DefaultRetryConfig returns standard retry settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  DefaultMaxRetries,
		Interval:    DefaultInterval,
		IsRetryable: func(error) bool { return true },
	}
}

// Retry executes fn up to MaxRetries+1 times, sleeping Interval between
// attempts while the error is retryable. Returns the last error if the
// budget is exhausted.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	cfg = cfg.withDefaults()
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}

		if !cfg.IsRetryable(lastErr) || attempt == cfg.MaxRetries {
			return lastErr
		}

		slog.Debug("retrying after error", "attempt", attempt+1, "max", cfg.MaxRetries, "interval", cfg.Interval, "error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.Interval):
		}
	}
	return lastErr
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.IsRetryable == nil {
		c.IsRetryable = func(error) bool { return true }
	}
	return c
}
