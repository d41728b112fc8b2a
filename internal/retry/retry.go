// Package retry wraps read-path store calls with bounded retries.
//
// Read operations are safe to repeat, so transient store failures are retried
// a small, fixed number of times with exponential backoff before surfacing as
// ErrUnavailable. Write paths must not go through this package: repeating a
// non-idempotent create can duplicate rows. The one write the system needs to
// survive races, the review upsert, is made idempotent at the store level
// instead.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tasteboard/tasteboard/internal/apperror"
)

const (
	readAttempts = 3
	initialDelay = 100 * time.Millisecond
)

// Read runs fn, retrying transient failures up to readAttempts times in
// total. Domain errors (NotFound, Validation, and so on) are returned
// immediately; a missing row will still be missing on the next attempt. Once attempts are
// exhausted, the last error is wrapped as apperror.Unavailable so callers
// surface a generic "temporarily unavailable" outcome instead of driver
// internals.
func Read[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialDelay
	bo.MaxElapsedTime = 0 // attempts bound the retries, not wall time

	result, err := backoff.RetryWithData(func() (T, error) {
		v, err := fn(ctx)
		if err != nil && isDomain(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, readAttempts-1), ctx))

	if err != nil {
		if isDomain(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return result, err
		}
		return result, apperror.Unavailable(err)
	}
	return result, nil
}

// isDomain reports whether err belongs to the application taxonomy rather
// than being a transient store failure.
func isDomain(err error) bool {
	return errors.Is(err, apperror.ErrNotFound) ||
		errors.Is(err, apperror.ErrValidation) ||
		errors.Is(err, apperror.ErrUnauthorized) ||
		errors.Is(err, apperror.ErrForbidden) ||
		errors.Is(err, apperror.ErrConflict)
}
