package utils

import (
	"context"
	"fmt"
	"time"

	"threat-monitor/internal/logging"
)

// Retry runs fn up to maxAttempts times, waiting delay between attempts.
// The wait aborts early when ctx is cancelled, so a shutdown never sits in
// a retry sleep.
func Retry(ctx context.Context, logger *logging.Logger, maxAttempts int, delay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := fn(); err != nil {
			lastErr = err
			logger.Warnf("Attempt %d/%d failed: %v", attempt, maxAttempts, err)
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return fmt.Errorf("retry aborted: %w", ctx.Err())
				case <-time.After(delay):
				}
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("gave up after %d attempts: %w", maxAttempts, lastErr)
}
