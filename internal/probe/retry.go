package probe

import (
	"context"
	"time"
)

// withRetry retries fn with doubling backoff until it succeeds, maxRetries
// extra attempts are spent, or the context is cancelled. The scan leans on it
// for every RPC read; rate-limited providers fail those transiently.
func withRetry(ctx context.Context, maxRetries int, backoff time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}
}
