package serialport

import (
	"errors"
	"sync"
	"time"
)

// fakePort is an in-memory Port. Bytes pushed with feed become readable;
// writes are recorded.
type fakePort struct {
	mu       sync.Mutex
	rx       chan []byte
	pending  []byte
	written  [][]byte
	timeout  time.Duration
	closed   bool
	resetIn  int
	resetOut int
	writeErr error
}

func newFakePort() *fakePort {
	return &fakePort{rx: make(chan []byte, 16)}
}

func (p *fakePort) feed(b []byte) { p.rx <- b }

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	if len(p.pending) > 0 {
		n := copy(b, p.pending)
		p.pending = p.pending[n:]
		p.mu.Unlock()

		return n, nil
	}
	timeout := p.timeout
	p.mu.Unlock()

	select {
	case data := <-p.rx:
		n := copy(b, data)
		p.mu.Lock()
		p.pending = append(p.pending, data[n:]...)
		p.mu.Unlock()

		return n, nil
	case <-time.After(timeout):
		return 0, nil
	}
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.written = append(p.written, append([]byte(nil), b...))

	return len(b), nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("already closed")
	}
	p.closed = true

	return nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.timeout = t

	return nil
}

func (p *fakePort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resetIn++
	p.pending = nil
	for {
		select {
		case <-p.rx:
		default:
			return nil
		}
	}
}

func (p *fakePort) ResetOutputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resetOut++

	return nil
}
