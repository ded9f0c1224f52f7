// Package writer implements the background worker that synchronizes with a
// controller emulator over a serial line and then streams the current input
// payload to it.
//
// # Protocol Overview
//
// The worker runs in a single goroutine and goes through these states:
//
//	Initializing -> Synchronizing -> Active -> Stopping -> Stopped
//
// While Synchronizing it performs a fixed three-step handshake. At each step
// it clears the line buffers, writes one probe byte and waits up to the
// handshake timeout (100ms by default) for a reply. A step succeeds when the
// LAST byte of the reply equals the step's expected byte:
//
//	step 1: 0xFF -> 0xFF
//	step 2: 0x33 -> 0xCC
//	step 3: 0xCC -> 0x33
//
// A failed step 1 is retried silently. A failed step 2 or 3 is reported as a
// Timeout event and the handshake restarts from step 1. After step 3 the
// worker is synced and never handshakes again.
//
// While Active the worker repeatedly writes the payload and waits up to the
// write timeout (40ms by default) for any reply. A reply produces a
// WriteComplete event; silence produces a Timeout event. There is no retry
// limit and no back-off: the Timeout events are a liveness signal.
//
// # Notifications
//
// Events are delivered on channels (see [Writer.Events] and
// [Writer.Subscribe]) in the order they occur. All event channels are closed
// once the worker has stopped.
//
// # Shutdown
//
// [Writer.Stop] sets the stop flag, then joins the worker goroutine. The
// worker notices the flag at the next step boundary or write cycle, so the
// join completes within about one timeout window.
package writer
