package writer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmoney/SwitchInputEmulator/serialport"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// respondFunc decides what the fake device sends back for bytes written by
// the worker. A nil result means the device stays silent.
type respondFunc func(written []byte) []byte

// fakeDevice is a scripted serialport.Port standing in for the controller.
type fakeDevice struct {
	mu      sync.Mutex
	respond respondFunc
	rx      chan []byte
	writes  [][]byte
	timeout time.Duration
	closed  chan struct{}
	resets  int

	failWrites atomic.Bool
	failReads  atomic.Bool
}

var _ serialport.Port = (*fakeDevice)(nil)

func newFakeDevice(respond respondFunc) *fakeDevice {
	return &fakeDevice{
		respond: respond,
		rx:      make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
}

func (d *fakeDevice) Write(b []byte) (int, error) {
	select {
	case <-d.closed:
		return 0, errors.New("fake device closed")
	default:
	}

	if d.failWrites.Load() {
		return 0, errors.New("fake device unplugged")
	}

	written := append([]byte(nil), b...)

	d.mu.Lock()
	d.writes = append(d.writes, written)
	respond := d.respond
	d.mu.Unlock()

	if respond != nil {
		if resp := respond(written); resp != nil {
			select {
			case d.rx <- resp:
			default:
			}
		}
	}

	return len(b), nil
}

func (d *fakeDevice) Read(b []byte) (int, error) {
	if d.failReads.Load() {
		return 0, errors.New("fake device unplugged")
	}

	d.mu.Lock()
	timeout := d.timeout
	d.mu.Unlock()

	select {
	case data := <-d.rx:
		return copy(b, data), nil
	case <-d.closed:
		return 0, errors.New("fake device closed")
	case <-time.After(timeout):
		return 0, nil
	}
}

func (d *fakeDevice) Close() error {
	close(d.closed)
	return nil
}

func (d *fakeDevice) SetReadTimeout(t time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.timeout = t

	return nil
}

func (d *fakeDevice) ResetInputBuffer() error {
	d.mu.Lock()
	d.resets++
	d.mu.Unlock()

	for {
		select {
		case <-d.rx:
		default:
			return nil
		}
	}
}

func (d *fakeDevice) ResetOutputBuffer() error { return nil }

// written returns a copy of everything the worker wrote so far.
func (d *fakeDevice) written() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([][]byte, len(d.writes))
	copy(out, d.writes)

	return out
}

func (d *fakeDevice) isClosed() bool {
	select {
	case <-d.closed:
		return true
	default:
		return false
	}
}

func (d *fakeDevice) opener() serialport.OpenFunc {
	return func(string, *serial.Mode) (serialport.Port, error) {
		return d, nil
	}
}

// syncResponder answers every single-byte probe with the matching expected
// byte and every other write with ack (which may be nil for silence).
func syncResponder(steps [StepCount]Step, ack []byte) respondFunc {
	return func(written []byte) []byte {
		if len(written) == 1 {
			for _, s := range steps {
				if written[0] == s.Probe {
					return []byte{s.Expect}
				}
			}

			return nil
		}

		return ack
	}
}

// newTestWriter creates a Writer backed by dev with short timeouts.
func newTestWriter(t *testing.T, dev *fakeDevice, payload []byte, opts ...Option) *Writer {
	t.Helper()

	defaults := []Option{
		WithHandshakeTimeout(20 * time.Millisecond),
		WithWriteTimeout(10 * time.Millisecond),
		WithEventQueueSize(256),
		WithCloseTimeout(2 * time.Second),
		WithPortOptions(serialport.WithOpener(dev.opener())),
	}

	cfg, err := NewConfig("/dev/ttyFAKE0", append(defaults, opts...)...)
	require.NoError(t, err)

	w, err := New(context.Background(), cfg, payload)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	return w
}

// nextEvent reads one event, failing the test after timeout.
func nextEvent(t *testing.T, ch <-chan Event, timeout time.Duration) Event {
	t.Helper()

	select {
	case ev, ok := <-ch:
		require.True(t, ok, "event channel closed")
		return ev
	case <-time.After(timeout):
		require.FailNow(t, "timed out waiting for event")
	}

	return Event{}
}

// collectUntil reads events until match returns true and returns all of them.
func collectUntil(t *testing.T, ch <-chan Event, timeout time.Duration, match func(Event) bool) []Event {
	t.Helper()

	deadline := time.After(timeout)
	var events []Event

	for {
		select {
		case ev, ok := <-ch:
			require.True(t, ok, "event channel closed before match; got %v", events)
			events = append(events, ev)
			if match(ev) {
				return events
			}
		case <-deadline:
			require.FailNow(t, "timed out waiting for event", "got %v", events)
		}
	}
}

// drain reads the channel until it is closed.
func drain(t *testing.T, ch <-chan Event, timeout time.Duration) []Event {
	t.Helper()

	deadline := time.After(timeout)
	var events []Event

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-deadline:
			require.FailNow(t, "event channel not closed")
		}
	}
}

func isSynced(ev Event) bool {
	return ev.Type == EventInfo && ev.Message == msgSynced
}

func filterEvents(events []Event, typ EventType) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}

	return out
}
