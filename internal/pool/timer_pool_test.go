package pool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerPool(t *testing.T) {
	t.Run("reused timer fires after new duration", func(t *testing.T) {
		first := GetTimer(time.Hour)
		PutTimer(first)

		begin := time.Now()
		second := GetTimer(30 * time.Millisecond)

		select {
		case fired := <-second.C:
			assert.GreaterOrEqual(t, fired.Sub(begin), 25*time.Millisecond)
		case <-time.After(time.Second):
			assert.Fail(t, "timer did not fire")
		}
		PutTimer(second)
	})

	t.Run("fired timer returned undrained", func(t *testing.T) {
		tm := GetTimer(time.Millisecond)
		time.Sleep(10 * time.Millisecond)
		PutTimer(tm)

		next := GetTimer(50 * time.Millisecond)
		defer PutTimer(next)

		select {
		case <-next.C:
			assert.Fail(t, "stale tick delivered")
		case <-time.After(20 * time.Millisecond):
		}
	})

	t.Run("concurrent use", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tm := GetTimer(5 * time.Millisecond)
				defer PutTimer(tm)
				<-tm.C
			}()
		}
		wg.Wait()
	})
}

func TestPause(t *testing.T) {
	t.Run("elapses", func(t *testing.T) {
		assert.True(t, Pause(context.Background(), 10*time.Millisecond, nil))
	})

	t.Run("woken", func(t *testing.T) {
		wake := make(chan struct{}, 1)
		wake <- struct{}{}

		begin := time.Now()
		assert.False(t, Pause(context.Background(), time.Minute, wake))
		assert.Less(t, time.Since(begin), time.Second)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.False(t, Pause(ctx, time.Minute, nil))
	})
}
