package writer

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/charmoney/SwitchInputEmulator/logger"
)

// State is the lifecycle state of a Writer.
type State uint32

const (
	// StateInitializing: created, port not opened yet.
	StateInitializing State = iota
	// StateSynchronizing: port open, handshake in progress.
	StateSynchronizing
	// StateActive: synced, streaming the payload.
	StateActive
	// StateStopping: leaving the worker loop.
	StateStopping
	// StateStopped: worker terminated, port closed.
	StateStopped
)

// String returns string representation of the state.
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateSynchronizing:
		return "synchronizing"
	case StateActive:
		return "active"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// canTransit reports whether the worker may move from s to next.
func (s State) canTransit(next State) bool {
	switch s {
	case StateInitializing:
		return next == StateSynchronizing || next == StateStopping
	case StateSynchronizing:
		return next == StateActive || next == StateStopping
	case StateActive:
		return next == StateStopping
	case StateStopping:
		return next == StateStopped
	default:
		return false
	}
}

// stateMgr holds the worker state and lets other goroutines wait for a state.
type stateMgr struct {
	mu     sync.Mutex
	cond   *sync.Cond
	state  atomic.Uint32
	logger logger.Logger
}

func newStateMgr(l logger.Logger) *stateMgr {
	sm := &stateMgr{logger: l}
	sm.cond = sync.NewCond(&sm.mu)
	sm.state.Store(uint32(StateInitializing))

	return sm
}

// State returns the current state.
func (sm *stateMgr) State() State {
	return State(sm.state.Load())
}

// to moves to next. Moving to the current state is a no-op.
func (sm *stateMgr) to(next State) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	cur := sm.State()
	if cur == next {
		return nil
	}

	if !cur.canTransit(next) {
		sm.logger.Warn("writer: invalid state transition", "from", cur, "to", next)
		return ErrInvalidTransition
	}

	sm.state.Store(uint32(next))
	sm.cond.Broadcast()
	sm.logger.Debug("writer: state changed", "from", cur, "to", next)

	return nil
}

// waitState blocks until the state is reached, the worker stopped, or ctx is done.
//
// It returns ErrStopped if the worker stopped before reaching the state.
func (sm *stateMgr) waitState(ctx context.Context, state State) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	stopFunc := context.AfterFunc(ctx, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		sm.cond.Broadcast()
	})
	defer stopFunc()

	for {
		cur := sm.State()
		if cur == state {
			return nil
		}

		if cur == StateStopped {
			return ErrStopped
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		sm.cond.Wait()
	}
}
