package writer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmoney/SwitchInputEmulator/internal/pool"
	"github.com/charmoney/SwitchInputEmulator/internal/task"
	"github.com/charmoney/SwitchInputEmulator/logger"
	"github.com/charmoney/SwitchInputEmulator/serialport"
)

// Writer synchronizes with the device and then streams the payload to it.
//
// Create it with New, start it with Start and release it with Stop. All
// methods are safe for concurrent use.
type Writer struct {
	cfg     *Config
	logger  logger.Logger
	state   *stateMgr
	taskMgr *task.Manager
	hub     *eventHub
	events  <-chan Event
	metrics Metrics

	// mu guards payload, stopFlag, started and fatalErr.
	// Stored payload slices are never mutated.
	mu       sync.Mutex
	payload  []byte
	stopFlag bool
	started  bool
	fatalErr error

	// wake is signalled by UpdatePayload and Stop.
	wake chan struct{}

	stopOnce sync.Once
	stopErr  error

	// session is only touched by the worker goroutine.
	session *serialport.Session
}

// New creates a Writer for cfg with the initial payload. The payload is copied.
//
// Cancelling ctx stops the worker like Stop does, without the join.
func New(ctx context.Context, cfg *Config, payload []byte) (*Writer, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	l := cfg.logger.With("port", cfg.portName)

	w := &Writer{
		cfg:     cfg,
		logger:  l,
		state:   newStateMgr(l),
		taskMgr: task.NewManager(ctx, l),
		payload: bytes.Clone(payload),
		wake:    make(chan struct{}, 1),
	}
	w.hub = newEventHub(cfg.eventTimeout, l, w.metrics.incEventDropCount)
	w.events, _ = w.hub.subscribe(cfg.eventQueueSize)

	return w, nil
}

// Start launches the worker goroutine.
func (w *Writer) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopFlag {
		return ErrStopped
	}

	if w.started {
		return ErrAlreadyStarted
	}

	if err := w.taskMgr.StartWithCancel("serialWriter", w.step, w.finish); err != nil {
		return fmt.Errorf("writer: start worker: %w", err)
	}
	w.started = true

	return nil
}

// Stop requests the worker to stop and waits until it has terminated, the
// port is closed and all event channels are closed.
//
// Only the first call does anything; later calls return the first result.
func (w *Writer) Stop() error {
	w.stopOnce.Do(func() {
		w.stopErr = w.doStop()
	})

	return w.stopErr
}

func (w *Writer) doStop() error {
	w.mu.Lock()
	w.stopFlag = true
	started := w.started
	w.mu.Unlock()

	w.signal()
	w.taskMgr.Stop()

	if !started {
		w.finish()
		return nil
	}

	done := make(chan struct{})
	go func() {
		w.taskMgr.Wait()
		close(done)
	}()

	timer := pool.GetTimer(w.cfg.closeTimeout)
	defer pool.PutTimer(timer)

	select {
	case <-done:
		return nil
	case <-timer.C:
		w.logger.Error("writer: stop timeout", "timeout", w.cfg.closeTimeout, "state", w.State())
		return ErrStopTimeout
	}
}

// Wait blocks until the worker has terminated on its own (fatal error or
// parent context cancelled) or ctx is done.
func (w *Writer) Wait(ctx context.Context) error {
	return w.taskMgr.WaitTimeout(ctx)
}

// WaitState blocks until the worker reaches state, or returns ErrStopped if
// the worker stopped first.
func (w *Writer) WaitState(ctx context.Context, state State) error {
	return w.state.waitState(ctx, state)
}

// UpdatePayload replaces the payload. The new value is used no later than
// the next write cycle. The slice is copied.
func (w *Writer) UpdatePayload(payload []byte) {
	p := bytes.Clone(payload)

	w.mu.Lock()
	w.payload = p
	w.mu.Unlock()

	w.metrics.incPayloadUpdateCount()
	w.signal()
}

// Payload returns a copy of the current payload.
func (w *Writer) Payload() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()

	return bytes.Clone(w.payload)
}

// Events returns the default event channel. It is closed when the worker stops.
//
// A clean start emits six Info events: "Serial port opened", "Synchronizing
// hardware", "Handshake stage 1..3 complete" (Stage set) and "Synced successfully".
func (w *Writer) Events() <-chan Event {
	return w.events
}

// Subscribe registers an additional event channel with the given buffer size.
// Call the returned function to unsubscribe.
func (w *Writer) Subscribe(size int) (<-chan Event, func()) {
	return w.hub.subscribe(size)
}

// State returns the current worker state.
func (w *Writer) State() State {
	return w.state.State()
}

// Err returns the fatal error that terminated the worker, if any.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.fatalErr
}

// PortName returns the port identifier.
func (w *Writer) PortName() string {
	return w.cfg.portName
}

// GetMetrics returns the writer metrics.
func (w *Writer) GetMetrics() *Metrics {
	return &w.metrics
}

// GetLogger returns the logger associated with the writer.
func (w *Writer) GetLogger() logger.Logger {
	return w.logger
}

// --- worker goroutine ---

// step runs one unit of work for the current state and reports whether the
// worker should keep running.
func (w *Writer) step(ctx context.Context) bool {
	if w.stopRequested() {
		return false
	}

	switch w.state.State() {
	case StateInitializing:
		return w.open()
	case StateSynchronizing:
		return w.synchronize(ctx)
	case StateActive:
		w.writeCycle(ctx)
		return true
	default:
		return false
	}
}

// open opens the transport session. Failures are fatal.
func (w *Writer) open() bool {
	session, err := serialport.Open(w.cfg.portName, w.cfg.sessionOptions()...)
	if err != nil {
		w.fail(err)
		return false
	}

	w.session = session
	w.logger.Info("writer: serial port opened", "baudRate", session.BaudRate())
	w.emit(EventInfo, msgPortOpened, nil)
	w.emit(EventInfo, msgSynchronizing, nil)

	return w.state.to(StateSynchronizing) == nil
}

// synchronize runs the handshake and switches to the write loop once synced.
func (w *Writer) synchronize(ctx context.Context) bool {
	if w.handshake(ctx) != hsSynced {
		return false
	}

	w.metrics.incSyncCount()
	w.logger.Info("writer: synced")
	w.emit(EventInfo, msgSynced, nil)

	return w.state.to(StateActive) == nil
}

// finish runs on the worker goroutine after the loop exits, or from Stop
// when the worker was never started.
func (w *Writer) finish() {
	if w.session != nil {
		if err := w.session.Close(); err != nil {
			w.logger.Warn("writer: failed to close port", "error", err)
		}
	}

	_ = w.state.to(StateStopping)
	_ = w.state.to(StateStopped)
	w.hub.close()
	w.logger.Info("writer: stopped")
}

// fail records a fatal error and emits the matching Error event.
func (w *Writer) fail(err error) {
	w.mu.Lock()
	w.fatalErr = err
	w.mu.Unlock()

	w.logger.Error("writer: fatal error", "error", err)
	w.emit(EventError, failureMessage(w.cfg.portName, err), err)
}

func failureMessage(portName string, err error) string {
	if errors.Is(err, serialport.ErrEmptyPortName) {
		return msgNoPortName
	}

	var openErr *serialport.OpenError
	if errors.As(err, &openErr) {
		if code, ok := openErr.Code(); ok {
			return fmt.Sprintf(openFailedCodeFmt, portName, code)
		}

		return fmt.Sprintf(openFailedFmt, portName, openErr.Err)
	}

	return err.Error()
}

// stopRequested reports whether Stop was called or the parent context is done.
func (w *Writer) stopRequested() bool {
	w.mu.Lock()
	stop := w.stopFlag
	w.mu.Unlock()

	return stop || w.taskMgr.Context().Err() != nil
}

// currentPayload returns the payload slice without copying it.
func (w *Writer) currentPayload() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.payload
}

func (w *Writer) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Writer) emit(typ EventType, msg string, err error) {
	w.emitStage(typ, 0, msg, err)
}

func (w *Writer) emitStage(typ EventType, stage int, msg string, err error) {
	w.emitEvent(Event{Type: typ, Message: msg, Stage: stage, Time: time.Now(), Err: err})
}

func (w *Writer) emitEvent(ev Event) {
	w.hub.publish(w.taskMgr.Context(), ev)
}
