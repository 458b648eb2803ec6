package common

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_Attempts(t *testing.T) {
	tests := []struct {
		name             string
		failUntil        int
		maxRetries       int
		expectedAttempts int
		wantErr          bool
	}{
		{name: "first attempt succeeds", failUntil: 1, maxRetries: 3, expectedAttempts: 1},
		{name: "second attempt succeeds", failUntil: 2, maxRetries: 3, expectedAttempts: 2},
		{name: "last retry succeeds", failUntil: 4, maxRetries: 3, expectedAttempts: 4},
		{name: "all attempts fail", failUntil: 10, maxRetries: 3, expectedAttempts: 4, wantErr: true},
		{name: "no retries", failUntil: 10, maxRetries: 0, expectedAttempts: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := Do(context.Background(), func() error {
				attempts++
				if attempts < tt.failUntil {
					return errors.New("connection refused")
				}
				return nil
			}, WithMaxRetries(tt.maxRetries), WithInitialDelay(time.Millisecond))

			assert.Equal(t, tt.expectedAttempts, attempts)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "retry failed after")
				assert.Contains(t, err.Error(), "connection refused")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDo_NilFunction(t *testing.T) {
	err := Do(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be nil")
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var attempts int32

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Do(ctx, func() error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("503 from webhook")
	}, WithMaxRetries(5), WithInitialDelay(time.Second))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "during backoff")
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestDo_ContextAlreadyDone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	attempts := 0
	err := Do(ctx, func() error {
		attempts++
		return errors.New("dial tcp: i/o timeout")
	}, WithInitialDelay(time.Millisecond))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, attempts)
}

func TestDo_RetryIf(t *testing.T) {
	badRequest := NewUpstreamError(400, "webhook rejected", nil)
	serverError := NewUpstreamError(502, "bad gateway", nil)
	onlyServerErrors := func(err error) bool { return UpstreamStatus(err) >= 500 }

	tests := []struct {
		name             string
		err              error
		expectedAttempts int
		wrapped          bool
	}{
		{name: "4xx stops immediately", err: badRequest, expectedAttempts: 1},
		{name: "5xx is retried", err: serverError, expectedAttempts: 3, wrapped: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := Do(context.Background(), func() error {
				attempts++
				return tt.err
			}, WithMaxRetries(2), WithInitialDelay(time.Millisecond), WithRetryIf(onlyServerErrors))

			assert.Equal(t, tt.expectedAttempts, attempts)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.wrapped, err != tt.err)
		})
	}
}

func TestDo_OnRetry(t *testing.T) {
	type call struct {
		attempt int
		delay   time.Duration
	}
	var calls []call

	attempts := 0
	err := Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is starting up")
		}
		return nil
	},
		WithMaxRetries(5),
		WithInitialDelay(time.Millisecond),
		WithMultiplier(3),
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			assert.EqualError(t, err, "database is starting up")
			calls = append(calls, call{attempt, delay})
		}),
	)

	require.NoError(t, err)
	assert.Equal(t, []call{{1, time.Millisecond}, {2, 3 * time.Millisecond}}, calls)
}

func TestDo_InvalidOptionsKeepDefaults(t *testing.T) {
	cfg := defaultRetryConfig()
	for _, opt := range []RetryOption{
		WithMaxRetries(-1),
		WithInitialDelay(-time.Second),
		WithMaxDelay(0),
		WithMultiplier(0),
		WithRetryIf(nil),
		WithOnRetry(nil),
	} {
		opt(cfg)
	}

	assert.Equal(t, 3, cfg.maxRetries)
	assert.Equal(t, time.Second, cfg.initialDelay)
	assert.Equal(t, 30*time.Second, cfg.maxDelay)
	assert.Equal(t, 2.0, cfg.multiplier)
	assert.NotNil(t, cfg.retryIf)
	assert.NotNil(t, cfg.onRetry)
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		initial  time.Duration
		max      time.Duration
		mult     float64
		expected time.Duration
	}{
		{1, time.Second, 30 * time.Second, 2, time.Second},
		{2, time.Second, 30 * time.Second, 2, 2 * time.Second},
		{4, time.Second, 30 * time.Second, 2, 8 * time.Second},
		{6, time.Second, 30 * time.Second, 2, 30 * time.Second},
		{3, 500 * time.Millisecond, 5 * time.Second, 1.5, 1125 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff(tt.attempt, tt.initial, tt.max, tt.mult),
			"attempt=%d initial=%s mult=%.1f", tt.attempt, tt.initial, tt.mult)
	}
}

func BenchmarkDo_Success(b *testing.B) {
	ctx := context.Background()
	for i := 0; i < b.N; i++ {
		_ = Do(ctx, func() error { return nil })
	}
}
