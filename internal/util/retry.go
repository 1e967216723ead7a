package util

import (
	"context"
	"fmt"
	"time"
)

// Retry runs fn until it succeeds, up to maxAttempts times. Failed attempts
// are separated by a doubling backoff starting at baseDelay, and the error
// from the final attempt is wrapped with the attempt count. Cancelling the
// context aborts the backoff wait.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry aborted after attempt %d: %w", attempt, err)
		}

		timer := time.NewTimer(baseDelay << (attempt - 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted after attempt %d: %w", attempt, ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("retry gave up after %d attempts: %w", maxAttempts, lastErr)
}
