package writer

import (
	"context"
	"fmt"
	"time"

	"github.com/charmoney/SwitchInputEmulator/internal/pool"
)

// writeCycle writes the current payload once and waits for any reply.
func (w *Writer) writeCycle(ctx context.Context) {
	payload := w.currentPayload()
	w.metrics.incWriteCycleCount()

	if err := w.session.Write(payload); err != nil {
		w.writeFailed(ctx, err)
		return
	}

	resp, err := w.session.ReadWithTimeout(readBufferSize, w.cfg.writeTimeout)
	if err != nil {
		w.writeFailed(ctx, err)
		return
	}

	if len(resp) == 0 {
		now := time.Now()
		w.metrics.incWriteTimeoutCount()
		w.emitEvent(Event{
			Type:    EventTimeout,
			Message: fmt.Sprintf(writeTimeoutFmt, now.Format(timestampLayout)),
			Time:    now,
			Err:     ErrWriteCycleTimeout,
		})

		return
	}

	w.metrics.incWriteCompleteCount()
	w.emit(EventWriteComplete, "", nil)
}

// writeFailed reports a transport error as a Timeout event and paces the
// loop so a dead line does not spin. A payload update or stop ends the pause.
func (w *Writer) writeFailed(ctx context.Context, err error) {
	w.metrics.incWriteErrCount()
	w.logger.Warn("writer: write cycle failed", "error", err)
	w.emit(EventTimeout, fmt.Sprintf(writeFailedFmt, err), err)

	pool.Pause(ctx, w.cfg.writeTimeout, w.wake)
}
