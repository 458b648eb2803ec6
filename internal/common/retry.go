package common

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// RetryableFunc is a single attempt of an operation.
type RetryableFunc func() error

// RetryConfig holds the retry policy for Do.
type RetryConfig struct {
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	retryIf      func(error) bool
	onRetry      func(attempt int, err error, delay time.Duration)
}

// RetryOption configures a RetryConfig.
type RetryOption func(*RetryConfig)

// WithMaxRetries sets how many retries follow the first attempt. Default 3.
func WithMaxRetries(n int) RetryOption {
	return func(c *RetryConfig) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithInitialDelay sets the delay before the first retry. Default 1s.
func WithInitialDelay(d time.Duration) RetryOption {
	return func(c *RetryConfig) {
		if d > 0 {
			c.initialDelay = d
		}
	}
}

// WithMaxDelay caps the backoff. Default 30s.
func WithMaxDelay(d time.Duration) RetryOption {
	return func(c *RetryConfig) {
		if d > 0 {
			c.maxDelay = d
		}
	}
}

// WithMultiplier sets the exponential backoff factor. Default 2.
func WithMultiplier(m float64) RetryOption {
	return func(c *RetryConfig) {
		if m > 0 {
			c.multiplier = m
		}
	}
}

// WithRetryIf decides whether an error is worth retrying.
// Errors it rejects are returned as is, without the "retry failed" wrapping.
func WithRetryIf(fn func(error) bool) RetryOption {
	return func(c *RetryConfig) {
		if fn != nil {
			c.retryIf = fn
		}
	}
}

// WithOnRetry is called before each backoff sleep with the upcoming attempt
// number (1-based), the error that triggered it and the delay.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) RetryOption {
	return func(c *RetryConfig) {
		if fn != nil {
			c.onRetry = fn
		}
	}
}

func defaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		maxRetries:   3,
		initialDelay: time.Second,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
		retryIf:      func(error) bool { return true },
		onRetry:      func(int, error, time.Duration) {},
	}
}

// Do runs fn until it succeeds, the retry budget is spent, retryIf rejects the
// error, or ctx is done.
//
// Exhausting the budget returns "retry failed after N attempts: <last error>".
// Cancellation returns an error wrapping ctx.Err().
//
//	err := common.Do(ctx, connect,
//	    common.WithMaxRetries(5),
//	    common.WithOnRetry(func(n int, err error, d time.Duration) {
//	        logger.Warn("retrying", "attempt", n, "error", err)
//	    }),
//	)
func Do(ctx context.Context, fn RetryableFunc, opts ...RetryOption) error {
	if fn == nil {
		return errors.New("retry: function cannot be nil")
	}

	cfg := defaultRetryConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	lastErr := fn()
	if lastErr == nil {
		return nil
	}

	for attempt := 1; attempt <= cfg.maxRetries; attempt++ {
		if !cfg.retryIf(lastErr) {
			return lastErr
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry aborted after %d attempts: %w", attempt, err)
		}

		delay := backoff(attempt, cfg.initialDelay, cfg.maxDelay, cfg.multiplier)
		cfg.onRetry(attempt, lastErr, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted during backoff (attempt %d/%d): %w", attempt, cfg.maxRetries, ctx.Err())
		case <-timer.C:
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}

	if !cfg.retryIf(lastErr) {
		return lastErr
	}
	return fmt.Errorf("retry failed after %d attempts: %w", cfg.maxRetries+1, lastErr)
}

// backoff returns initialDelay * multiplier^(attempt-1), capped at maxDelay.
func backoff(attempt int, initialDelay, maxDelay time.Duration, multiplier float64) time.Duration {
	delay := float64(initialDelay) * math.Pow(multiplier, float64(attempt-1))
	if delay > float64(maxDelay) {
		return maxDelay
	}
	return time.Duration(delay)
}
