package introspect

import (
	"context"
	"errors"
	"time"
)

// Connection retry defaults. A database container that is still starting
// typically refuses connections for a few seconds.
const (
	connectAttempts = 4
	connectDelay    = 500 * time.Millisecond
)

// transientError marks a failure that [retry] should attempt again.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// retry runs fn up to attempts times, doubling delay after each failure.
// Only errors wrapped in transientError are retried; the wrapper is removed
// from the returned error.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var last error

	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		var t *transientError
		if !errors.As(err, &t) {
			return err
		}
		last = t.err

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return last
}
