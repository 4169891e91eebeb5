package embedder

import (
	"context"
	"errors"
	"time"
)

// RetryConfig configures exponential backoff retry behavior
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts
	BaseDelay  time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Maximum delay between retries
	Multiplier float64       // Exponential backoff multiplier
}

// DefaultRetryConfig returns sensible defaults for API retry
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: MaxRetries,
		BaseDelay:  time.Duration(InitialBackoffMs) * time.Millisecond,
		MaxDelay:   time.Duration(MaxBackoffMs) * time.Millisecond,
		Multiplier: BackoffMultiplier,
	}
}

// errPermanent marks failures that retrying cannot fix, such as a
// rejected request payload or a bad API key.
var errPermanent = errors.New("permanent failure")

// permanent wraps err so retryWithBackoff gives up immediately.
func permanent(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(errPermanent, err)
}

// next returns the delay to use after the given one.
func (c RetryConfig) next(d time.Duration) time.Duration {
	d = time.Duration(float64(d) * c.Multiplier)
	if d > c.MaxDelay {
		return c.MaxDelay
	}
	return d
}

// retryWithBackoff executes fn up to config.MaxRetries times with
// exponential backoff between attempts. It stops early on context
// cancellation or when fn reports a permanent failure.
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	delay := config.BaseDelay

	for attempt := 1; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if errors.Is(err, errPermanent) || attempt >= config.MaxRetries {
			return zero, err
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
			delay = config.next(delay)
		}
	}
}
