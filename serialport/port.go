package serialport

import (
	"io"
	"time"

	"go.bug.st/serial"
)

// Port is the raw byte stream underneath a Session.
//
// go.bug.st/serial.Port satisfies it. SetReadTimeout follows the go.bug.st
// convention: a Read that times out returns 0 bytes and a nil error, and
// serial.NoTimeout blocks until data arrives.
type Port interface {
	io.ReadWriteCloser

	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
	ResetOutputBuffer() error
}

// OpenFunc opens the serial device name in the given mode.
type OpenFunc func(name string, mode *serial.Mode) (Port, error)

func openDevice(name string, mode *serial.Mode) (Port, error) {
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}

	return p, nil
}

func lineMode(baudRate int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// ListPorts returns the names of the serial ports present on the system.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
