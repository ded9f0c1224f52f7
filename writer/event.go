package writer

import (
	"fmt"
	"time"
)

// EventType identifies the kind of a notification.
type EventType uint8

const (
	// EventInfo is an informational status message.
	EventInfo EventType = iota + 1
	// EventTimeout reports a wait that exceeded its deadline.
	EventTimeout
	// EventError reports a fatal error. The worker terminates after it.
	EventError
	// EventWriteComplete reports a write cycle that received a response.
	EventWriteComplete
)

// String returns string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventInfo:
		return "info"
	case EventTimeout:
		return "timeout"
	case EventError:
		return "error"
	case EventWriteComplete:
		return "write-complete"
	default:
		return "unknown"
	}
}

// Event is a notification emitted by the worker.
type Event struct {
	Type    EventType
	Message string
	// Stage is the handshake stage (1-3) the event refers to, 0 otherwise.
	Stage int
	// Time is when the event occurred.
	Time time.Time
	// Err is the error behind Timeout and Error events.
	Err error
}

func (ev Event) String() string {
	if ev.Message == "" {
		return ev.Type.String()
	}

	return fmt.Sprintf("%s: %s", ev.Type, ev.Message)
}

// Status messages.
const (
	msgPortOpened     = "Serial port opened"
	msgSynchronizing  = "Synchronizing hardware"
	msgSynced         = "Synced successfully"
	msgNoPortName     = "No port name specified"
	stageCompleteFmt  = "Handshake stage %d complete"
	stageFailedFmt    = "Handshake failed at stage %d, retrying..."
	stageIOErrorFmt   = "Handshake I/O error at stage %d: %v"
	writeTimeoutFmt   = "Wait read response timeout %s"
	writeFailedFmt    = "Write failed: %v"
	timestampLayout   = "15:04:05.000"
	openFailedFmt     = "Can't open %s, %v"
	openFailedCodeFmt = "Can't open %s, error code %d"
)
