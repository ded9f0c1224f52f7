package writer

import (
	"sync/atomic"
)

// Metrics contains atomic counters for a Writer.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type Metrics struct {
	// ProbeCount indicates the number of handshake probes sent.
	ProbeCount atomic.Uint64
	// Stage1RetryCount indicates the number of silent stage 1 retries.
	Stage1RetryCount atomic.Uint64
	// HandshakeRestartCount indicates the number of stage 2/3 failures.
	HandshakeRestartCount atomic.Uint64
	// HandshakeErrCount indicates the number of handshake steps failed by transport errors.
	HandshakeErrCount atomic.Uint64
	// SyncCount indicates the number of completed handshakes (0 or 1).
	SyncCount atomic.Uint32

	// WriteCycleCount indicates the number of payload writes attempted.
	WriteCycleCount atomic.Uint64
	// WriteCompleteCount indicates the number of write cycles that got a reply.
	WriteCompleteCount atomic.Uint64
	// WriteTimeoutCount indicates the number of write cycles without a reply.
	WriteTimeoutCount atomic.Uint64
	// WriteErrCount indicates the number of write cycles failed by transport errors.
	WriteErrCount atomic.Uint64

	// PayloadUpdateCount indicates the number of UpdatePayload calls.
	PayloadUpdateCount atomic.Uint64
	// EventDropCount indicates the number of events dropped on full channels.
	EventDropCount atomic.Uint64
}

func (m *Metrics) incProbeCount() {
	m.ProbeCount.Add(1)
}

func (m *Metrics) incStage1RetryCount() {
	m.Stage1RetryCount.Add(1)
}

func (m *Metrics) incHandshakeRestartCount() {
	m.HandshakeRestartCount.Add(1)
}

func (m *Metrics) incHandshakeErrCount() {
	m.HandshakeErrCount.Add(1)
}

func (m *Metrics) incSyncCount() {
	m.SyncCount.Add(1)
}

func (m *Metrics) incWriteCycleCount() {
	m.WriteCycleCount.Add(1)
}

func (m *Metrics) incWriteCompleteCount() {
	m.WriteCompleteCount.Add(1)
}

func (m *Metrics) incWriteTimeoutCount() {
	m.WriteTimeoutCount.Add(1)
}

func (m *Metrics) incWriteErrCount() {
	m.WriteErrCount.Add(1)
}

func (m *Metrics) incPayloadUpdateCount() {
	m.PayloadUpdateCount.Add(1)
}

func (m *Metrics) incEventDropCount() {
	m.EventDropCount.Add(1)
}
