package serialport

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmoney/SwitchInputEmulator/logger"
)

// Session is an open transport endpoint.
type Session struct {
	name     string
	baudRate int
	port     Port
	logger   logger.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open opens the endpoint named name.
//
// An empty name yields ErrEmptyPortName without touching any device. Device
// failures are returned as *OpenError carrying the driver error.
func Open(name string, opts ...Option) (*Session, error) {
	if name == "" {
		return nil, ErrEmptyPortName
	}

	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	var port Port
	if addr, ok := strings.CutPrefix(name, TCPScheme); ok {
		port, err = dialBridge(addr, cfg.dialTimeout)
	} else {
		port, err = cfg.opener(name, lineMode(cfg.baudRate))
	}

	if err != nil {
		return nil, &OpenError{Port: name, Err: err}
	}

	cfg.logger.Debug("serialport: opened", "port", name, "baudRate", cfg.baudRate)

	return NewSession(name, cfg.baudRate, port, cfg.logger), nil
}

// NewSession wraps an already open Port.
func NewSession(name string, baudRate int, port Port, l logger.Logger) *Session {
	if l == nil {
		l = logger.GetLogger()
	}

	return &Session{
		name:     name,
		baudRate: baudRate,
		port:     port,
		logger:   l,
	}
}

// Name returns the port identifier the session was opened with.
func (s *Session) Name() string { return s.name }

// BaudRate returns the configured line rate.
func (s *Session) BaudRate() int { return s.baudRate }

// Write writes all of data to the endpoint.
func (s *Session) Write(data []byte) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	for written := 0; written < len(data); {
		n, err := s.port.Write(data[written:])
		written += n

		if err != nil {
			return fmt.Errorf("serialport: write %s: %w", s.name, err)
		}
	}

	return nil
}

// ReadWithTimeout blocks until at least one byte arrives or timeout elapses.
//
// It returns up to max bytes, or nil with a nil error when the timeout
// elapsed with nothing received.
func (s *Session) ReadWithTimeout(max int, timeout time.Duration) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}

	if max <= 0 {
		return nil, ErrInvalidReadSize
	}

	buf := make([]byte, max)
	deadline := time.Now().Add(timeout)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}

		if err := s.port.SetReadTimeout(remaining); err != nil {
			return nil, fmt.Errorf("serialport: set read timeout %s: %w", s.name, err)
		}

		n, err := s.port.Read(buf)
		if n > 0 {
			return buf[:n], nil
		}

		if err != nil {
			return nil, fmt.Errorf("serialport: read %s: %w", s.name, err)
		}
	}
}

// ClearBuffers discards unread input and unsent output.
func (s *Session) ClearBuffers() error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	return errors.Join(s.port.ResetInputBuffer(), s.port.ResetOutputBuffer())
}

// Close releases the endpoint. Calling Close more than once is a no-op.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.port.Close()
		s.logger.Debug("serialport: closed", "port", s.name)
	})

	return s.closeErr
}
