// Package pool recycles the timers used by the writer's wait loops.
package pool

import (
	"context"
	"sync"
	"time"
)

var timers sync.Pool

// GetTimer returns a timer that fires after d.
//
// Hand it back with PutTimer once the wait is over.
func GetTimer(d time.Duration) *time.Timer {
	t, ok := timers.Get().(*time.Timer)
	if !ok {
		return time.NewTimer(d)
	}

	t.Reset(d)

	return t
}

// PutTimer stops t and returns it to the pool. t must not be used afterwards.
func PutTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}

	timers.Put(t)
}

// Pause blocks for d, or until ctx is done or wake receives a value.
//
// It reports whether the whole duration elapsed.
func Pause(ctx context.Context, d time.Duration, wake <-chan struct{}) bool {
	t := GetTimer(d)
	defer PutTimer(t)

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-wake:
		return false
	}
}
