package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool    // Exponential backoff
	Jitter      float64 // fraction of the delay randomised, 0..1
	// Retryable reports whether err is worth another attempt. Nil retries everything.
	Retryable func(error) bool
}

// Once runs fn a single time.
var Once = RetryConfig{MaxAttempts: 1}

func WithRetry(ctx context.Context, config RetryConfig, fn func() error) error {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if config.Retryable != nil && !config.Retryable(err) {
			return err
		}
		if attempt == config.MaxAttempts {
			if config.MaxAttempts == 1 {
				return err
			}
			return fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(config.delay(attempt)):
		}
	}

	return lastErr
}

func (c RetryConfig) delay(attempt int) time.Duration {
	d := c.Delay
	if c.Backoff {
		d = c.Delay * time.Duration(1<<(attempt-1))
	}
	if c.Jitter > 0 && d > 0 {
		spread := float64(d) * c.Jitter
		d = time.Duration(float64(d) - spread + rand.Float64()*2*spread)
	}
	return d
}
