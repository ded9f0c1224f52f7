package writer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmoney/SwitchInputEmulator/internal/pool"
	"github.com/charmoney/SwitchInputEmulator/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

// subscriber is one event channel.
type subscriber struct {
	ch         chan Event
	cancelled  chan struct{}
	cancelOnce sync.Once
}

func (s *subscriber) cancel() {
	s.cancelOnce.Do(func() { close(s.cancelled) })
}

// eventHub fans events out to every subscriber.
//
// publish is only called from the worker goroutine, so each subscriber sees
// events in emission order. Subscriber channels are closed by close, which
// runs after the worker goroutine has returned.
type eventHub struct {
	mu      sync.Mutex // serializes subscribe and close
	closed  bool
	subs    *xsync.MapOf[uint64, *subscriber]
	nextID  atomic.Uint64
	timeout time.Duration
	logger  logger.Logger
	onDrop  func()
}

func newEventHub(timeout time.Duration, l logger.Logger, onDrop func()) *eventHub {
	return &eventHub{
		subs:    xsync.NewMapOf[uint64, *subscriber](),
		timeout: timeout,
		logger:  l,
		onDrop:  onDrop,
	}
}

// subscribe registers a new channel with the given buffer size. The returned
// function unregisters it; no events are delivered after it returns.
func (h *eventHub) subscribe(size int) (<-chan Event, func()) {
	if size < 0 {
		size = 0
	}

	sub := &subscriber{
		ch:        make(chan Event, size),
		cancelled: make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}

	id := h.nextID.Add(1)
	h.subs.Store(id, sub)

	return sub.ch, func() {
		sub.cancel()
		h.subs.Delete(id)
	}
}

// publish delivers ev to all subscribers. Delivery to one subscriber blocks at
// most h.timeout, and not at all once ctx is done.
func (h *eventHub) publish(ctx context.Context, ev Event) {
	h.subs.Range(func(id uint64, sub *subscriber) bool {
		h.deliver(ctx, id, sub, ev)
		return true
	})
}

func (h *eventHub) deliver(ctx context.Context, id uint64, sub *subscriber, ev Event) {
	select {
	case <-sub.cancelled:
		return
	case sub.ch <- ev:
		return
	default:
	}

	timer := pool.GetTimer(h.timeout)
	defer pool.PutTimer(timer)

	select {
	case <-sub.cancelled:
	case sub.ch <- ev:
	case <-ctx.Done():
		h.drop(id, ev, "stopping")
	case <-timer.C:
		h.drop(id, ev, "channel full")
	}
}

func (h *eventHub) drop(id uint64, ev Event, reason string) {
	h.logger.Warn("writer: event dropped",
		"subscriber", id,
		"event", ev.Type,
		"message", ev.Message,
		"reason", reason)

	if h.onDrop != nil {
		h.onDrop()
	}
}

// close closes every subscriber channel. Later subscriptions get a closed channel.
func (h *eventHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	h.subs.Range(func(id uint64, sub *subscriber) bool {
		close(sub.ch)
		return true
	})
	h.subs.Clear()
}
