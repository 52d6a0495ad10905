// Trace/reboot event serializer.
//
// Grounded on
// _examples/original_source/observability/ticos-firmware-sdk/components/core/src/ticos_trace_event.c
// and ticos_serializer_helper.c's ticos_serializer_helper_encode_trace_event.
package serialize

import (
	"sync/atomic"

	"github.com/ticos-sdk/go-ticos/internal/cbor"
	"github.com/ticos-sdk/go-ticos/internal/interfaces"
	ticos "github.com/ticos-sdk/go-ticos/internal/protocol"
)

// TraceEvent is the payload captured at a trace/reboot capture point.
type TraceEvent struct {
	Reason     uint32
	PC         uint32
	LR         uint32
	HasStatus  bool
	StatusCode int32
	HasLog     bool
	Log        []byte
}

func encodeTraceEventInfo(e *cbor.Encoder, evt TraceEvent) bool {
	extraPairs := 0
	if evt.HasStatus {
		extraPairs++
	}
	if evt.HasLog {
		extraPairs++
	}

	numEntries := 1 /* reason */ + boolToInt(evt.PC != 0) + boolToInt(evt.LR != 0) + extraPairs

	ok := e.EncodeUnsignedInteger(ticos.EventKeyEventInfo) && e.EncodeDictionaryBegin(numEntries)
	ok = ok && encodeUint32KV(e, ticos.TraceInfoKeyUserReason, evt.Reason)
	if evt.PC != 0 {
		ok = ok && encodeUint32KV(e, ticos.TraceInfoKeyProgramCounter, evt.PC)
	}
	if evt.LR != 0 {
		ok = ok && encodeUint32KV(e, ticos.TraceInfoKeyLinkRegister, evt.LR)
	}
	if evt.HasStatus {
		ok = ok && encodeInt32KV(e, ticos.TraceInfoKeyStatusCode, evt.StatusCode)
	}
	if evt.HasLog {
		ok = ok && encodeByteStringKV(e, ticos.TraceInfoKeyLog, evt.Log)
	}
	return ok
}

// EncodeTraceEvent writes the full envelope + event_info for a trace
// event.
func EncodeTraceEvent(e *cbor.Encoder, unixTS *int64, info DeviceInfo, evt TraceEvent) bool {
	return EncodeEnvelope(e, ticos.EventTypeTrace, unixTS, info) && encodeTraceEventInfo(e, evt)
}

// isrSlot states. The original claims the slot with a bare compare
// against the reason field, which is not a real atomic operation on most
// architectures; this uses an explicit three-state flag instead so both
// the exclusivity (two ISR captures can't both claim the slot) and the
// publication ordering (the consumer never observes a partially-written
// event) are real, not assumed.
const (
	slotFree uint32 = iota
	slotReserved
	slotReady
)

// isrSlot is the single-slot pending-event buffer an ISR-context capture
// writes into.
type isrSlot struct {
	state atomic.Uint32
	event TraceEvent
}

// TraceRecorder wires trace-event capture to an event-storage writer,
// including the ISR single-slot deferral path.
type TraceRecorder struct {
	storage  StorageWriter
	logger   interfaces.Logger
	clock    interfaces.Clock
	deviceInfo DeviceInfo
	drops    DropCounter
	isr      isrSlot
}

// NewTraceRecorder wires a recorder to its storage target.
func NewTraceRecorder(storage StorageWriter, clock interfaces.Clock, deviceInfo DeviceInfo, logger interfaces.Logger) *TraceRecorder {
	return &TraceRecorder{storage: storage, clock: clock, deviceInfo: deviceInfo, logger: logger}
}

func (r *TraceRecorder) unixTimestamp() *int64 {
	if r.clock == nil {
		return nil
	}
	if ts, ok := r.clock.Now(); ok {
		return &ts
	}
	return nil
}

func (r *TraceRecorder) captureDirect(evt TraceEvent) bool {
	return EncodeToStorage(r.storage, &r.drops, r.logger, func(e *cbor.Encoder) bool {
		return EncodeTraceEvent(e, r.unixTimestamp(), r.deviceInfo, evt)
	})
}

// TryFlushISREvent writes out any trace event captured from an ISR
// context, freeing the slot for reuse on success. It is a no-op if no
// event is pending, and is called automatically before the next
// non-ISR-context Capture to preserve event ordering.
func (r *TraceRecorder) TryFlushISREvent() bool {
	if r.isr.state.Load() != slotReady {
		return true
	}
	evt := r.isr.event

	if !r.captureDirect(evt) {
		return false
	}

	r.isr.state.Store(slotFree)
	return true
}

// CaptureFromISR stashes evt in the single pending slot. It fails if a
// previous ISR-captured event hasn't been flushed yet (out-of-space,
// matching the original's single-slot claim semantics).
func (r *TraceRecorder) CaptureFromISR(evt TraceEvent) bool {
	if !r.isr.state.CompareAndSwap(slotFree, slotReserved) {
		return false
	}
	r.isr.event = evt
	r.isr.state.Store(slotReady)
	return true
}

// Capture records a trace event from non-ISR context, first flushing any
// pending ISR-captured event so ordering is preserved.
func (r *TraceRecorder) Capture(evt TraceEvent) bool {
	if !r.TryFlushISREvent() {
		return false
	}
	return r.captureDirect(evt)
}

// DropCount returns and resets the number of trace events dropped for
// lack of storage space since the last call, mirroring
// ticos_serializer_helper_read_drop_count.
func (r *TraceRecorder) DropCount() uint32 {
	return r.drops.ReadDropCount()
}
