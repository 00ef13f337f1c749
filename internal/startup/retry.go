// Package startup holds boot-time helpers for reaching the catalog backend.
package startup

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig configures the exponential backoff retry behavior.
type RetryConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
	Multiplier   float64
}

// DefaultRetryConfig returns the backoff used while waiting for the backend.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialDelay: time.Second,
		MaxDelay:     15 * time.Second,
		MaxAttempts:  5,
		Multiplier:   2.0,
	}
}

var networkIndicators = []string{
	"connection refused",
	"no such host",
	"timeout",
	"network is unreachable",
	"no route to host",
	"connection reset",
	"eof",
}

// IsNetworkError reports whether err looks like the peer is unreachable
// rather than answering with an error.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, indicator := range networkIndicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}

// WithRetry calls fn until it succeeds, returns a non-network error, the
// attempts run out or ctx is done.
func WithRetry(ctx context.Context, name string, cfg RetryConfig, fn func(context.Context) error, logger zerolog.Logger) error {
	log := logger.With().Str("operation", name).Logger()
	delay := cfg.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			if attempt > 1 {
				log.Info().Int("attempt", attempt).Msg("operation succeeded after retry")
			}
			return nil
		}

		if !IsNetworkError(lastErr) {
			log.Error().Err(lastErr).Msg("non-network error, not retrying")
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		log.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("maxAttempts", cfg.MaxAttempts).
			Dur("nextRetryIn", delay).
			Msg("network error, will retry")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	log.Error().Err(lastErr).Int("attempts", cfg.MaxAttempts).Msg("operation failed after all retries")
	return lastErr
}

// Pinger is anything that can check the catalog backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitForBackend blocks until the backend answers or retries are exhausted.
// The error is informational; callers start serving either way.
func WaitForBackend(ctx context.Context, p Pinger, cfg RetryConfig, logger zerolog.Logger) error {
	return WithRetry(ctx, "backend-ping", cfg, p.Ping, logger)
}
