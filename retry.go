package yadisk

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// autoRetry runs attempt up to nRetries+1 times with a fixed delay between
// attempts. Only retriable failures consume budget: transport-level errors
// and API kinds matching ErrRetriable. Anything else, and any error flagged
// with DisableRetry, propagates immediately. After budget exhaustion the
// most recent underlying error propagates by type, never a wrapper.
//
// The delay respects ctx, so cancellation interrupts a sleeping retry loop.
// nRetries = 0 means exactly one attempt.
func autoRetry(ctx context.Context, nRetries int, interval time.Duration, attempt func() error) error {
	backoff := retry.WithMaxRetries(uint64(nRetries), constantBackoff(interval))

	return retry.Do(ctx, backoff, func(_ context.Context) error {
		err := attempt()
		if err == nil {
			return nil
		}

		if isRetriable(err) && !retryDisabled(err) {
			return retry.RetryableError(err)
		}

		return err
	})
}

// constantBackoff returns a fixed-delay backoff. retry.NewConstant rejects
// non-positive durations, but a zero interval is a supported configuration
// here (the library default, and what tests use to avoid real sleeps).
func constantBackoff(interval time.Duration) retry.Backoff {
	return retry.BackoffFunc(func() (time.Duration, bool) {
		return interval, false
	})
}
