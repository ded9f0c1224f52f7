// Package task supervises the goroutines started by the serial writer.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmoney/SwitchInputEmulator/logger"
)

// ErrStopped is returned when a task is started on a stopped Manager.
var ErrStopped = errors.New("task: manager already stopped")

// startTimeout bounds how long Start waits for the goroutine to report in.
const startTimeout = 5 * time.Second

// Func is one iteration of a task. It returns true to keep running and false to stop.
type Func func(ctx context.Context) bool

// Manager manages the lifecycle of goroutines (tasks).
//
// Each task loops on its Func until the Func returns false or the manager's
// context is cancelled. Panics inside a task are recovered and logged, and the
// task terminates.
//
//	mgr := task.NewManager(ctx, logger)
//	_ = mgr.Start("writeLoop", func(ctx context.Context) bool {
//	    return step(ctx)
//	})
//	mgr.Stop()
//	mgr.Wait()
type Manager struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger logger.Logger
	count  atomic.Int32
}

// NewManager creates a Manager whose tasks are cancelled together with ctx.
func NewManager(ctx context.Context, l logger.Logger) *Manager {
	if l == nil {
		l = logger.GetLogger()
	}

	mgr := &Manager{logger: l}
	mgr.ctx, mgr.cancel = context.WithCancel(ctx)

	return mgr
}

// Context returns the context handed to every task iteration.
func (mgr *Manager) Context() context.Context {
	return mgr.ctx
}

// Start starts a new goroutine with the given name running fn in a loop.
//
// It returns once the goroutine is running.
func (mgr *Manager) Start(name string, fn Func) error {
	return mgr.StartWithCancel(name, fn, nil)
}

// StartWithCancel is like Start, and calls cancelFn from the task goroutine
// once the loop has exited for any reason.
func (mgr *Manager) StartWithCancel(name string, fn Func, cancelFn func()) error {
	select {
	case <-mgr.ctx.Done():
		return ErrStopped
	default:
	}

	mgr.logger.Debug("start task", "name", name)

	started := make(chan struct{})
	mgr.wg.Add(1)

	go func() {
		defer mgr.wg.Done()

		mgr.count.Add(1)
		close(started)

		defer func() {
			mgr.count.Add(-1)
			mgr.logger.Debug(fmt.Sprintf("%s task terminated", name), "task_count", mgr.TaskCount())
		}()

		if cancelFn != nil {
			defer cancelFn()
		}

		mgr.runLoop(name, fn)
	}()

	select {
	case <-started:
		return nil
	case <-time.After(startTimeout):
		return fmt.Errorf("task: timeout waiting for %s to start", name)
	}
}

// Stop signals all running tasks to terminate.
func (mgr *Manager) Stop() {
	mgr.cancel()
}

// Wait blocks until all tasks have terminated.
func (mgr *Manager) Wait() {
	mgr.wg.Wait()
}

// WaitTimeout waits for all tasks to terminate or for ctx to be done.
func (mgr *Manager) WaitTimeout(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		mgr.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TaskCount returns the number of currently running tasks.
func (mgr *Manager) TaskCount() int {
	return int(mgr.count.Load())
}

func (mgr *Manager) runLoop(name string, fn Func) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task loop", "name", name, "panic", r)
		}
	}()

	for {
		select {
		case <-mgr.ctx.Done():
			return
		default:
			if !fn(mgr.ctx) {
				return
			}
		}
	}
}
