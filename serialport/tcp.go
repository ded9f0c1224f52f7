package serialport

import (
	"errors"
	"net"
	"os"
	"time"

	"go.bug.st/serial"
)

// drainTimeout is how long the input reset waits for a silent line.
const drainTimeout = time.Millisecond

// connPort adapts a TCP serial bridge connection to Port.
type connPort struct {
	conn    net.Conn
	timeout time.Duration
}

var _ Port = (*connPort)(nil)

func newConnPort(conn net.Conn) *connPort {
	return &connPort{conn: conn, timeout: serial.NoTimeout}
}

func dialBridge(addr string, timeout time.Duration) (Port, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}

	return newConnPort(conn), nil
}

// Read reads with the configured timeout. A timeout yields (0, nil).
func (p *connPort) Read(b []byte) (int, error) {
	deadline := time.Time{}
	if p.timeout >= 0 {
		deadline = time.Now().Add(p.timeout)
	}

	if err := p.conn.SetReadDeadline(deadline); err != nil {
		return 0, err
	}

	n, err := p.conn.Read(b)
	if err != nil && isTimeout(err) {
		return n, nil
	}

	return n, err
}

func (p *connPort) Write(b []byte) (int, error) {
	return p.conn.Write(b)
}

func (p *connPort) Close() error {
	return p.conn.Close()
}

func (p *connPort) SetReadTimeout(t time.Duration) error {
	p.timeout = t

	return nil
}

// ResetInputBuffer discards bytes already waiting on the connection.
func (p *connPort) ResetInputBuffer() error {
	buf := make([]byte, 256)

	for {
		if err := p.conn.SetReadDeadline(time.Now().Add(drainTimeout)); err != nil {
			return err
		}

		n, err := p.conn.Read(buf)
		if err != nil {
			if isTimeout(err) {
				return nil
			}

			return err
		}

		if n == 0 {
			return nil
		}
	}
}

// ResetOutputBuffer is a no-op: bytes handed to the kernel cannot be recalled.
func (p *connPort) ResetOutputBuffer() error {
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
