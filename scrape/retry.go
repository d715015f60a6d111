// Package scrape composes fetching, preprocessing, and extraction into the
// single-request pipeline, and provides the shared retry driver used by the
// fetchers and the extractor.
package scrape

import (
	"context"
	"errors"
	"time"

	"github.com/fwojciec/eventscrape"
)

// Backoff returns the delay to sleep before retry n (1-based).
type Backoff func(retry int) time.Duration

// ExponentialBackoff doubles the base delay on every retry: base, 2*base, 4*base.
func ExponentialBackoff(base time.Duration) Backoff {
	return func(retry int) time.Duration {
		return base << (retry - 1)
	}
}

// LinearBackoff grows the base delay by the retry number: base, 2*base, 3*base.
func LinearBackoff(base time.Duration) Backoff {
	return func(retry int) time.Duration {
		return base * time.Duration(retry)
	}
}

// retryable is implemented by errors that know whether another attempt could
// plausibly succeed.
type retryable interface {
	Retryable() bool
}

// Retryable reports whether err is worth another attempt. Errors carrying an
// explicit retryability flag decide for themselves; application errors are
// retried only when the upstream service failed (EUNAVAILABLE); anything
// else is terminal.
func Retryable(err error) bool {
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	var e *eventscrape.Error
	if errors.As(err, &e) {
		return e.Code == eventscrape.EUNAVAILABLE
	}
	return false
}

// Do runs fn up to maxAttempts times, sleeping per backoff between attempts.
// shouldRetry decides whether a failure is worth another attempt; pass
// Retryable unless the caller has its own policy. Attempts are sequential;
// the sleep suspends only the current call. A terminal failure or a canceled
// context stops the loop immediately. The last observed error is returned
// after exhaustion.
func Do(ctx context.Context, maxAttempts int, backoff Backoff, shouldRetry func(error) bool, fn func(ctx context.Context, attempt int) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if shouldRetry == nil {
		shouldRetry = Retryable
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == maxAttempts || !shouldRetry(err) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}
	return lastErr
}
