package ticos

import "github.com/ticos-sdk/go-ticos/internal/protocol"

// Metrics tracks operational counters for the observability engine itself:
// how much telemetry it is moving and how often it is forced to drop or
// truncate it. Shape mirrors an atomic-counter Metrics type for lock-free
// reads from any goroutine.
// Re-exported from internal/protocol (see that package's doc comment).
type Metrics = protocol.Metrics

// NewMetrics creates a zeroed Metrics instance.
func NewMetrics() *Metrics {
	return protocol.NewMetrics()
}

// Snapshot is a point-in-time copy of Metrics, safe to log or export.
type Snapshot = protocol.Snapshot

// Observer allows pluggable metrics collection without coupling every
// component directly to Metrics. Implementations must be safe to call from
// any goroutine (the event-storage lock serializes mutating calls, but
// observers may be invoked from the ISR-reentrant trace path too).
type Observer = protocol.Observer

// NoOpObserver discards all observations.
type NoOpObserver = protocol.NoOpObserver

// MetricsObserver implements Observer by recording into a Metrics instance.
type MetricsObserver = protocol.MetricsObserver

// NewMetricsObserver returns an Observer that records into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return protocol.NewMetricsObserver(m)
}
