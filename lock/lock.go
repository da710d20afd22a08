// Package lock serializes processes on a host through advisory file locks.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// ErrTimeout is returned when the lock is still held after the timeout.
var ErrTimeout = errors.New("lock: timeout")

// RetryDelay is the pause between two lock attempts.
const RetryDelay = 100 * time.Millisecond

// Acquire waits up to timeout for an exclusive lock on path. The returned
// release func must be called on every exit path:
//
//	release, err := lock.Acquire(ctx, path, 10*time.Second)
//	if err != nil { ... }
//	defer release()
func Acquire(ctx context.Context, path string, timeout time.Duration) (func() error, error) {
	fl := flock.New(path)

	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ok, err := fl.TryLockContext(wctx, RetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, path)
		}
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTimeout, path)
	}
	return fl.Unlock, nil
}
