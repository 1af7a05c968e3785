package canlink

import (
	"sync/atomic"
	"time"
)

// Metrics tracks operational statistics for a running Stack, mirroring the
// atomic-counter/snapshot shape used elsewhere in this module's lineage for
// observing a long-running cooperative loop from outside it.
type Metrics struct {
	FramesReceived    atomic.Uint64
	DatagramsSent     atomic.Uint64
	DatagramsReceived atomic.Uint64
	NodesLoggedIn     atomic.Uint64

	StartTime atomic.Int64 // UnixNano
}

// NewMetrics creates a Metrics with StartTime set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// MetricsSnapshot is a point-in-time copy of Metrics, safe to log or export
// without further synchronization.
type MetricsSnapshot struct {
	FramesReceived    uint64
	DatagramsSent     uint64
	DatagramsReceived uint64
	NodesLoggedIn     uint64
	UptimeNs          uint64
}

// Snapshot returns a consistent-enough point-in-time copy of m.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		FramesReceived:    m.FramesReceived.Load(),
		DatagramsSent:     m.DatagramsSent.Load(),
		DatagramsReceived: m.DatagramsReceived.Load(),
		NodesLoggedIn:     m.NodesLoggedIn.Load(),
		UptimeNs:          uint64(time.Now().UnixNano() - m.StartTime.Load()),
	}
}

// Reset zeroes every counter and restarts UptimeNs accounting. Intended for
// test isolation.
func (m *Metrics) Reset() {
	m.FramesReceived.Store(0)
	m.DatagramsSent.Store(0)
	m.DatagramsReceived.Store(0)
	m.NodesLoggedIn.Store(0)
	m.StartTime.Store(time.Now().UnixNano())
}
