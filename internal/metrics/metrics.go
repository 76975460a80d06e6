// Package metrics holds the in-process counters behind the root package's
// MetricsSnapshot surface.
package metrics

import "sync/atomic"

// MetricID identifies a single counter.
type MetricID uint8

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricHydrationRestored
	MetricHydrationCorrupt
	MetricValidateSuccess
	MetricValidateUnauthenticated
	MetricValidateTransient
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRefreshCoalesced
	MetricSessionExpired
	MetricSessionCleared
	MetricLogout
	MetricRevokeFailed

	MetricIDCount
)

// Metrics is a fixed array of atomic counters. A disabled instance accepts
// Inc calls as no-ops so call sites stay unconditional.
type Metrics struct {
	enabled  bool
	counters [MetricIDCount]atomic.Uint64
}

// New returns a Metrics instance. When enabled is false all operations are
// no-ops.
func New(enabled bool) *Metrics {
	return &Metrics{enabled: enabled}
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Counters [MetricIDCount]uint64
}

// Value returns a single counter from the snapshot.
func (s Snapshot) Value(id MetricID) uint64 {
	if id >= MetricIDCount {
		return 0
	}
	return s.Counters[id]
}

// Snapshot copies every counter.
func (m *Metrics) Snapshot() Snapshot {
	var s Snapshot
	if m == nil {
		return s
	}
	for i := range m.counters {
		s.Counters[i] = m.counters[i].Load()
	}
	return s
}
