package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return errors.New("boom")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestWithRetryWrapsLastError(t *testing.T) {
	sentinel := errors.New("down")
	err := WithRetry(context.Background(), RetryConfig{MaxAttempts: 2, Delay: time.Millisecond, Jitter: 0.5}, func() error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.Contains(t, err.Error(), "failed after 2 attempts")
}

func TestWithRetrySingleAttemptReturnsRawError(t *testing.T) {
	sentinel := errors.New("down")
	err := WithRetry(context.Background(), Once, func() error { return sentinel })
	require.Equal(t, sentinel, err)
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	sentinel := errors.New("permanent")
	err := WithRetry(context.Background(), RetryConfig{
		MaxAttempts: 5,
		Delay:       time.Millisecond,
		Retryable:   func(err error) bool { return !errors.Is(err, sentinel) },
	}, func() error {
		calls++
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 1, calls)
}

func TestWithRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetry(ctx, RetryConfig{MaxAttempts: 3, Delay: time.Hour}, func() error {
		return errors.New("boom")
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDelayJitterBounds(t *testing.T) {
	c := RetryConfig{Delay: 100 * time.Millisecond, Backoff: true, Jitter: 0.2}
	for i := 0; i < 50; i++ {
		d := c.delay(2)
		require.GreaterOrEqual(t, d, 160*time.Millisecond)
		require.LessOrEqual(t, d, 240*time.Millisecond)
	}
}
