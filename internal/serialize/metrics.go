// Heartbeat metrics serializer.
//
// Grounded on
// _examples/original_source/observability/ticos-firmware-sdk/components/metrics/src/ticos_metrics.c
// (prv_heartbeat_timer's force-update/collect/serialize/reset cycle) and
// the { 4: { 1: [v0, v1, ...] } } wire shape it produces, since no
// standalone metrics serializer source file was retrieved alongside
// ticos_metrics.c.
package serialize

import (
	"github.com/ticos-sdk/go-ticos/internal/cbor"
	"github.com/ticos-sdk/go-ticos/internal/interfaces"
	"github.com/ticos-sdk/go-ticos/internal/metrics"
	ticos "github.com/ticos-sdk/go-ticos/internal/protocol"
)

func encodeMetricValue(e *cbor.Encoder, v metrics.Value) bool {
	switch v.Type {
	case metrics.TypeSigned:
		return e.EncodeSignedInteger(v.Signed)
	case metrics.TypeString:
		return e.EncodeString(v.Str)
	default: // Unsigned, Timer
		return e.EncodeUnsignedInteger(v.Unsigned)
	}
}

// EncodeHeartbeat writes the envelope plus a { 1: [v0, v1, ...] } event_info
// dictionary holding one entry per value in values, in the order given.
func EncodeHeartbeat(e *cbor.Encoder, unixTS *int64, info DeviceInfo, values []metrics.Value) bool {
	ok := EncodeEnvelope(e, ticos.EventTypeHeartbeat, unixTS, info)
	ok = ok && e.EncodeUnsignedInteger(ticos.EventKeyEventInfo) && e.EncodeDictionaryBegin(1)
	ok = ok && e.EncodeUnsignedInteger(ticos.HeartbeatInfoKeyMetrics) && e.EncodeArrayBegin(len(values))
	for _, v := range values {
		ok = ok && encodeMetricValue(e, v)
	}
	return ok
}

// MetricsRecorder drives the heartbeat cycle: force-update every running
// timer, snapshot every registered value, serialize the snapshot to
// storage, then zero every value for the next interval.
type MetricsRecorder struct {
	registry   *metrics.Registry
	storage    StorageWriter
	logger     interfaces.Logger
	clock      interfaces.Clock
	deviceInfo DeviceInfo
	drops      DropCounter
}

// NewMetricsRecorder wires a recorder to its registry and storage target.
func NewMetricsRecorder(registry *metrics.Registry, storage StorageWriter, clock interfaces.Clock, deviceInfo DeviceInfo, logger interfaces.Logger) *MetricsRecorder {
	return &MetricsRecorder{registry: registry, storage: storage, clock: clock, deviceInfo: deviceInfo, logger: logger}
}

func (r *MetricsRecorder) unixTimestamp() *int64 {
	if r.clock == nil {
		return nil
	}
	if ts, ok := r.clock.Now(); ok {
		return &ts
	}
	return nil
}

// Heartbeat runs one full heartbeat cycle and returns whether the
// resulting event was written successfully. Every metric's value is
// reset to zero whether or not the write succeeds, matching
// prv_heartbeat_timer: a
// heartbeat interval that fails to fit in storage still starts the next
// interval from a clean slate rather than double-counting.
func (r *MetricsRecorder) Heartbeat() bool {
	r.registry.ForceUpdateRunningTimers()
	values := r.registry.Snapshot()

	ok := EncodeToStorage(r.storage, &r.drops, r.logger, func(e *cbor.Encoder) bool {
		return EncodeHeartbeat(e, r.unixTimestamp(), r.deviceInfo, values)
	})

	r.registry.ResetAll()
	return ok
}

// DropCount returns and resets the number of heartbeats dropped for lack
// of storage space since the last call, mirroring
// ticos_serializer_helper_read_drop_count.
func (r *MetricsRecorder) DropCount() uint32 {
	return r.drops.ReadDropCount()
}
