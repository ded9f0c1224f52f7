package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmoney/SwitchInputEmulator/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_StartStopWait(t *testing.T) {
	mgr := NewManager(context.Background(), logger.GetLogger())

	var iterations atomic.Int32
	err := mgr.Start("counter", func(ctx context.Context) bool {
		iterations.Add(1)
		time.Sleep(time.Millisecond)
		return true
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return iterations.Load() > 3 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, mgr.TaskCount())

	mgr.Stop()
	mgr.Wait()

	assert.Equal(t, 0, mgr.TaskCount())
}

func TestManager_TaskReturnsFalse(t *testing.T) {
	mgr := NewManager(context.Background(), nil)

	var iterations atomic.Int32
	require.NoError(t, mgr.Start("once", func(ctx context.Context) bool {
		iterations.Add(1)
		return false
	}))

	mgr.Wait()
	assert.Equal(t, int32(1), iterations.Load())
}

func TestManager_RecoverPanic(t *testing.T) {
	mgr := NewManager(context.Background(), nil)

	require.NoError(t, mgr.Start("panicky", func(ctx context.Context) bool {
		panic("boom")
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, mgr.WaitTimeout(ctx))
}

func TestManager_StartAfterStop(t *testing.T) {
	mgr := NewManager(context.Background(), nil)
	mgr.Stop()

	err := mgr.Start("late", func(ctx context.Context) bool { return false })
	require.ErrorIs(t, err, ErrStopped)
}

func TestManager_WaitTimeoutExpires(t *testing.T) {
	mgr := NewManager(context.Background(), nil)

	release := make(chan struct{})
	require.NoError(t, mgr.Start("blocked", func(ctx context.Context) bool {
		<-release
		return false
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, mgr.WaitTimeout(ctx), context.DeadlineExceeded)

	close(release)
	mgr.Wait()
}

func TestManager_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mgr := NewManager(ctx, nil)

	require.NoError(t, mgr.Start("loop", func(ctx context.Context) bool {
		time.Sleep(time.Millisecond)
		return true
	}))

	cancel()
	mgr.Wait()
	assert.Equal(t, 0, mgr.TaskCount())
}

func TestManager_StartWithCancel(t *testing.T) {
	mgr := NewManager(context.Background(), nil)

	var cancelled atomic.Bool
	require.NoError(t, mgr.StartWithCancel("cleanup", func(ctx context.Context) bool {
		return false
	}, func() {
		cancelled.Store(true)
	}))

	mgr.Wait()
	assert.True(t, cancelled.Load())
}

func TestManager_StartWithCancelAfterPanic(t *testing.T) {
	mgr := NewManager(context.Background(), nil)

	var cancelled atomic.Bool
	require.NoError(t, mgr.StartWithCancel("panicky", func(ctx context.Context) bool {
		panic("boom")
	}, func() {
		cancelled.Store(true)
	}))

	mgr.Wait()
	assert.True(t, cancelled.Load())
}
