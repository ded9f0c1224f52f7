package writer

import (
	"context"
	"fmt"

	"github.com/charmoney/SwitchInputEmulator/internal/pool"
)

// StepCount is the number of handshake steps.
const StepCount = 3

// Step is one probe/response pair of the handshake.
type Step struct {
	Probe  byte
	Expect byte
}

// Matches reports whether resp acknowledges the step. Only the last byte of
// resp is significant.
func (s Step) Matches(resp []byte) bool {
	return len(resp) > 0 && resp[len(resp)-1] == s.Expect
}

// DefaultHandshake is the sync sequence understood by the controller firmware.
var DefaultHandshake = [StepCount]Step{
	{Probe: 0xFF, Expect: 0xFF},
	{Probe: 0x33, Expect: 0xCC},
	{Probe: 0xCC, Expect: 0x33},
}

// handshakeState is the position of the worker in the handshake.
type handshakeState int

const (
	hsStep1 handshakeState = iota
	hsStep2
	hsStep3
	hsSynced
	hsAborted
)

func (st handshakeState) stage() int { return int(st) + 1 }

// stepResult classifies the outcome of a single probe exchange.
type stepResult int

const (
	stepOK         stepResult = iota // last reply byte matched.
	stepNoResponse                   // nothing arrived within the timeout.
	stepMismatch                     // reply arrived, last byte was wrong.
	stepIOError                      // write or read failed.
)

func (r stepResult) String() string {
	switch r {
	case stepOK:
		return "ok"
	case stepNoResponse:
		return "no-response"
	case stepMismatch:
		return "mismatch"
	default:
		return "io-error"
	}
}

// handshake runs the three-step synchronization until it succeeds or a stop
// is requested.
//
// Stage 1 failures restart stage 1 silently. Stage 2 and 3 failures emit a
// Timeout event and restart from stage 1. A transport error emits a Timeout
// event carrying the error and pauses one handshake timeout before stage 1
// is retried. Nothing is emitted once a stop has been requested.
func (w *Writer) handshake(ctx context.Context) handshakeState {
	st := hsStep1

	for st != hsSynced {
		if w.stopRequested() {
			w.logger.Debug("writer: handshake aborted", "stage", st.stage())
			return hsAborted
		}

		result, err := w.exchange(w.cfg.handshake[st])
		w.metrics.incProbeCount()

		if w.stopRequested() {
			w.logger.Debug("writer: handshake aborted", "stage", st.stage(), "result", result)
			return hsAborted
		}

		switch {
		case result == stepOK:
			w.emitStage(EventInfo, st.stage(), fmt.Sprintf(stageCompleteFmt, st.stage()), nil)
			st++

		case result == stepIOError:
			w.metrics.incHandshakeErrCount()
			w.logger.Warn("writer: handshake transport error", "stage", st.stage(), "error", err)
			w.emitStage(EventTimeout, st.stage(), fmt.Sprintf(stageIOErrorFmt, st.stage(), err), err)
			pool.Pause(ctx, w.cfg.handshakeTimeout, w.wake)
			st = hsStep1

		case st == hsStep1:
			w.metrics.incStage1RetryCount()
			w.logger.Debug("writer: handshake stage 1 failed, retrying", "result", result)

		default:
			w.metrics.incHandshakeRestartCount()
			w.logger.Debug("writer: handshake failed, restarting", "stage", st.stage(), "result", result)
			w.emitStage(EventTimeout, st.stage(), fmt.Sprintf(stageFailedFmt, st.stage()), ErrHandshakeTimeout)
			st = hsStep1
		}
	}

	return hsSynced
}

// exchange clears the line, writes the probe byte and checks the reply.
// The error is only set for stepIOError.
func (w *Writer) exchange(step Step) (stepResult, error) {
	if err := w.session.ClearBuffers(); err != nil {
		w.logger.Debug("writer: failed to clear buffers", "error", err)
	}

	if err := w.session.Write([]byte{step.Probe}); err != nil {
		return stepIOError, err
	}

	resp, err := w.session.ReadWithTimeout(readBufferSize, w.cfg.handshakeTimeout)
	if err != nil {
		return stepIOError, err
	}

	if len(resp) == 0 {
		return stepNoResponse, nil
	}

	if !step.Matches(resp) {
		return stepMismatch, nil
	}

	return stepOK, nil
}
