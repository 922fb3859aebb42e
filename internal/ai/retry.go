package ai

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"

	"jobscout/internal/errors"
)

const maxBackoff = 30 * time.Second

// withRetry runs fn up to maxRetries+1 times with exponential backoff and jitter.
// Non-retryable errors stop immediately.
func withRetry[T any](ctx context.Context, logger *errors.Logger, operation string, maxRetries int,
	retryable func(error) bool, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			logger.Warn("Retrying provider operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(backoff(attempt)):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable(err) {
			break
		}
	}

	if maxRetries == 0 {
		return zero, lastErr
	}
	return zero, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, maxRetries, lastErr)
}

func backoff(attempt int) time.Duration {
	baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	jitter := time.Duration(0)
	if jitterMax := int64(float64(baseDelay) * 0.1); jitterMax > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			jitter = time.Duration(n.Int64())
		}
	}
	return min(baseDelay+jitter, maxBackoff)
}
