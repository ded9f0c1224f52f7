package serialport

import (
	"errors"
	"fmt"

	"go.bug.st/serial"
)

var (
	// ErrEmptyPortName indicates that no port identifier was supplied.
	ErrEmptyPortName = errors.New("serialport: no port name specified")

	// ErrSessionClosed is returned by I/O on a closed Session.
	ErrSessionClosed = errors.New("serialport: session closed")

	// ErrInvalidReadSize is returned when ReadWithTimeout is asked for less than one byte.
	ErrInvalidReadSize = errors.New("serialport: read size must be positive")
)

// OpenError reports a failure to open the endpoint named Port.
type OpenError struct {
	Port string
	Err  error
}

func (e *OpenError) Error() string {
	if code, ok := e.Code(); ok {
		return fmt.Sprintf("serialport: can't open %s, error code %d: %v", e.Port, code, e.Err)
	}

	return fmt.Sprintf("serialport: can't open %s: %v", e.Port, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// Code returns the device error code when the underlying error came from the
// serial driver.
func (e *OpenError) Code() (serial.PortErrorCode, bool) {
	var portErr *serial.PortError
	if errors.As(e.Err, &portErr) {
		return portErr.Code(), true
	}

	return 0, false
}
