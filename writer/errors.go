package writer

import "errors"

var (
	// ErrConfigNil indicates that a nil Config was provided.
	ErrConfigNil = errors.New("writer: config is nil")

	// ErrAlreadyStarted is returned when Start is called more than once.
	ErrAlreadyStarted = errors.New("writer: already started")

	// ErrStopped is returned when Start is called after Stop.
	ErrStopped = errors.New("writer: stopped")

	// ErrStopTimeout is returned by Stop when the worker did not terminate in time.
	ErrStopTimeout = errors.New("writer: stop timeout")

	// ErrInvalidTransition is returned when a state change is not allowed.
	ErrInvalidTransition = errors.New("writer: invalid state transition")

	// ErrHandshakeTimeout is attached to Timeout events raised by a failed
	// handshake stage. It is never fatal.
	ErrHandshakeTimeout = errors.New("writer: handshake timeout")

	// ErrWriteCycleTimeout is attached to Timeout events raised when a write
	// cycle got no reply in time. It is never fatal.
	ErrWriteCycleTimeout = errors.New("writer: write cycle timeout")
)
