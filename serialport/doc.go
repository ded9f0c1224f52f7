// Package serialport provides the transport session used by the writer:
// an open byte-stream endpoint with primitive write, bounded read and
// buffer reset operations.
//
// Two endpoint kinds are supported:
//
//   - Serial devices ("/dev/ttyACM0", "COM3"), opened through go.bug.st/serial
//     in 8N1 mode at a fixed baud rate (19200 by default).
//   - TCP serial bridges ("tcp://host:port"), such as ser2net or socat, where
//     the remote end forwards bytes to a physical line.
//
// A Session carries no protocol knowledge. It is not goroutine-safe; the
// owning worker performs all I/O from a single goroutine.
package serialport
