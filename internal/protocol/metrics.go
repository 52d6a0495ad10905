package protocol

import "sync/atomic"

// Metrics tracks operational counters for the observability engine itself:
// how much telemetry it is moving and how often it is forced to drop or
// truncate it. Shape mirrors an atomic-counter Metrics type for lock-free
// reads from any goroutine.
type Metrics struct {
	EventsStored     atomic.Uint64
	EventsDropped    atomic.Uint64
	EventsRolledBack atomic.Uint64

	ChunksEmitted  atomic.Uint64
	ChunkBytesSent atomic.Uint64
	ReadFailures   atomic.Uint64 // data-source read failures mid-chunk (scribbled over)

	CoredumpsSaved     atomic.Uint64
	CoredumpsTruncated atomic.Uint64
	CoredumpsSkipped   atomic.Uint64 // an existing coredump was preserved

	RebootsUnexpected atomic.Uint64
	RebootsExpected   atomic.Uint64
	CrashCount        atomic.Uint32

	LogsDropped atomic.Uint64
}

// NewMetrics creates a zeroed Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Snapshot is a point-in-time copy of Metrics, safe to log or export.
type Snapshot struct {
	EventsStored       uint64
	EventsDropped      uint64
	EventsRolledBack   uint64
	ChunksEmitted      uint64
	ChunkBytesSent     uint64
	ReadFailures       uint64
	CoredumpsSaved     uint64
	CoredumpsTruncated uint64
	CoredumpsSkipped   uint64
	RebootsUnexpected  uint64
	RebootsExpected    uint64
	CrashCount         uint32
	LogsDropped        uint64
}

// Snapshot returns a consistent-enough point-in-time view of the counters.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		EventsStored:       m.EventsStored.Load(),
		EventsDropped:      m.EventsDropped.Load(),
		EventsRolledBack:   m.EventsRolledBack.Load(),
		ChunksEmitted:      m.ChunksEmitted.Load(),
		ChunkBytesSent:     m.ChunkBytesSent.Load(),
		ReadFailures:       m.ReadFailures.Load(),
		CoredumpsSaved:     m.CoredumpsSaved.Load(),
		CoredumpsTruncated: m.CoredumpsTruncated.Load(),
		CoredumpsSkipped:   m.CoredumpsSkipped.Load(),
		RebootsUnexpected:  m.RebootsUnexpected.Load(),
		RebootsExpected:    m.RebootsExpected.Load(),
		CrashCount:         m.CrashCount.Load(),
		LogsDropped:        m.LogsDropped.Load(),
	}
}

// Observer allows pluggable metrics collection without coupling every
// component directly to Metrics. Implementations must be safe to call from
// any goroutine (the event-storage lock serializes mutating calls, but
// observers may be invoked from the ISR-reentrant trace path too).
type Observer interface {
	ObserveEventStored(size int)
	ObserveEventDropped(reason Code)
	ObserveChunkEmitted(msgType MessageType, bytes int)
	ObserveReadFailure(msgType MessageType)
	ObserveCoredumpSaved(totalSize int, truncated bool)
	ObserveReboot(unexpected bool, crashCount uint8)
	ObserveLogsDropped(n int)
}

// NoOpObserver discards all observations.
type NoOpObserver struct{}

func (NoOpObserver) ObserveEventStored(int)                {}
func (NoOpObserver) ObserveEventDropped(Code)              {}
func (NoOpObserver) ObserveChunkEmitted(MessageType, int)  {}
func (NoOpObserver) ObserveReadFailure(MessageType)        {}
func (NoOpObserver) ObserveCoredumpSaved(int, bool)        {}
func (NoOpObserver) ObserveReboot(bool, uint8)             {}
func (NoOpObserver) ObserveLogsDropped(int)                {}

// MetricsObserver implements Observer by recording into a Metrics instance.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver returns an Observer that records into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveEventStored(size int) {
	o.metrics.EventsStored.Add(1)
}

func (o *MetricsObserver) ObserveEventDropped(reason Code) {
	if reason == CodeNotEnoughSpace {
		o.metrics.EventsRolledBack.Add(1)
	}
	o.metrics.EventsDropped.Add(1)
}

func (o *MetricsObserver) ObserveChunkEmitted(msgType MessageType, bytes int) {
	o.metrics.ChunksEmitted.Add(1)
	o.metrics.ChunkBytesSent.Add(uint64(bytes))
}

func (o *MetricsObserver) ObserveReadFailure(MessageType) {
	o.metrics.ReadFailures.Add(1)
}

func (o *MetricsObserver) ObserveCoredumpSaved(totalSize int, truncated bool) {
	o.metrics.CoredumpsSaved.Add(1)
	if truncated {
		o.metrics.CoredumpsTruncated.Add(1)
	}
}

func (o *MetricsObserver) ObserveReboot(unexpected bool, crashCount uint8) {
	if unexpected {
		o.metrics.RebootsUnexpected.Add(1)
	} else {
		o.metrics.RebootsExpected.Add(1)
	}
	o.metrics.CrashCount.Store(uint32(crashCount))
}

func (o *MetricsObserver) ObserveLogsDropped(n int) {
	o.metrics.LogsDropped.Add(uint64(n))
}

var (
	_ Observer = (*MetricsObserver)(nil)
	_ Observer = NoOpObserver{}
)
