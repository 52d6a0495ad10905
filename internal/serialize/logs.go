// Structured-log data source: a periodic "collect the unsent logs"
// snapshot, CBOR-encoded lazily on read so the size communicated to the
// packetizer up front always matches what ReadMsg later produces.
//
// Grounded on
// _examples/original_source/observability/ticos-firmware-sdk/components/core/src/ticos_log_data_source.c.
package serialize

import (
	"sync"

	"github.com/ticos-sdk/go-ticos/internal/cbor"
	"github.com/ticos-sdk/go-ticos/internal/interfaces"
	"github.com/ticos-sdk/go-ticos/internal/logstore"
	ticos "github.com/ticos-sdk/go-ticos/internal/protocol"
)

// LogDataSource implements interfaces.DataSource over a logstore.Store,
// exposing a single in-flight "triggered" snapshot at a time.
type LogDataSource struct {
	store      *logstore.Store
	clock      interfaces.Clock
	deviceInfo DeviceInfo

	mu          sync.Mutex
	triggered   bool
	numLogs     int
	triggerTime *int64
}

// NewLogDataSource wires a data source to its backing log store.
func NewLogDataSource(store *logstore.Store, clock interfaces.Clock, deviceInfo DeviceInfo) *LogDataSource {
	return &LogDataSource{store: store, clock: clock, deviceInfo: deviceInfo}
}

// TriggerCollection snapshots the currently-unsent log count and trigger
// time. It is a no-op if there are no unsent logs. If a snapshot is
// already outstanding, it returns a state error rather than silently
// ignoring the request or replacing the in-flight snapshot (a
// strengthening decision: two overlapping triggers should be visible to
// the caller, not silently dropped).
func (d *LogDataSource) TriggerCollection() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.triggered {
		return ticos.NewError("logs.TriggerCollection", ticos.CodeStateError, "log collection already triggered")
	}

	numLogs := d.store.CountUnsent()
	if numLogs == 0 {
		return nil
	}

	d.triggered = true
	d.numLogs = numLogs
	if d.clock != nil {
		if ts, ok := d.clock.Now(); ok {
			d.triggerTime = &ts
		}
	}
	return nil
}

// HasBeenTriggered reports whether a snapshot is outstanding.
func (d *LogDataSource) HasBeenTriggered() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.triggered
}

func (d *LogDataSource) snapshot() (numLogs int, triggerTime *int64, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.triggered {
		return 0, nil, false
	}
	return d.numLogs, d.triggerTime, true
}

// encode writes the envelope and event_info log array. shouldStop, when
// non-nil, is polled before each entry so a ReadMsg call whose
// destination window has already been fully satisfied can abandon the
// remaining re-encode work instead of running it to completion only to
// throw the bytes away (matches the original's should_stop_encoding
// short-circuit in prv_log_iterate_encode_callback).
func (d *LogDataSource) encode(e *cbor.Encoder, numLogs int, triggerTime *int64, shouldStop func() bool) bool {
	ok := EncodeEnvelope(e, ticos.EventTypeLogs, triggerTime, d.deviceInfo)
	ok = ok && e.EncodeUnsignedInteger(ticos.EventKeyEventInfo) && e.EncodeArrayBegin(2*numLogs)

	encoded := 0
	hasError := false
	d.store.Iterate(func(entry logstore.Entry) bool {
		if shouldStop != nil && shouldStop() {
			return false
		}
		if entry.Sent {
			return true
		}
		if !e.EncodeUnsignedInteger(uint32(entry.Level)) {
			hasError = true
			return false
		}
		var wrote bool
		if entry.Type == logstore.RecordTypePreformatted {
			wrote = e.EncodeString(string(entry.Msg))
		} else {
			wrote = e.EncodeByteString(entry.Msg)
		}
		if !wrote {
			hasError = true
			return false
		}
		encoded++
		return encoded < numLogs
	})
	return ok && !hasError
}

// HasMoreMsgs reports the exact encoded size of the triggered snapshot.
func (d *LogDataSource) HasMoreMsgs() (int, bool) {
	numLogs, triggerTime, ok := d.snapshot()
	if !ok {
		return 0, false
	}
	size := ComputeSize(func(e *cbor.Encoder) bool {
		return d.encode(e, numLogs, triggerTime, nil)
	})
	return size, true
}

// ReadMsg re-encodes the full snapshot on every call (the original does
// the same: ticos_log_iterate has no persistent cursor), but only copies
// the bytes that intersect [offset, offset+len(buf)) into buf, matching
// prv_encoder_callback's range-intersection optimization so a caller
// reading in small chunks doesn't pay for redundant encode work beyond
// its own window.
func (d *LogDataSource) ReadMsg(offset int, buf []byte) bool {
	numLogs, triggerTime, ok := d.snapshot()
	if !ok {
		return false
	}

	destEnd := offset + len(buf)
	written := 0
	stop := false

	e := cbor.NewEncoder(func(ctx interface{}, srcOffset int, data []byte) {
		if stop || srcOffset > destEnd {
			stop = true
			return
		}
		srcEnd := srcOffset + len(data)
		start := max(srcOffset, offset)
		end := min(srcEnd, destEnd)
		if end <= start {
			return
		}
		copy(buf[start-offset:], data[start-srcOffset:end-srcOffset])
		written += end - start
	}, nil, 1<<30)

	d.encode(e, numLogs, triggerTime, func() bool { return stop })
	return written == len(buf)
}

// MarkMsgRead marks the triggered batch's entries sent and clears the
// outstanding snapshot, allowing a new TriggerCollection.
func (d *LogDataSource) MarkMsgRead() {
	d.mu.Lock()
	numLogs := d.numLogs
	d.mu.Unlock()

	d.store.MarkFirstNUnsent(numLogs)

	d.mu.Lock()
	d.triggered = false
	d.numLogs = 0
	d.triggerTime = nil
	d.mu.Unlock()
}

var _ interfaces.DataSource = (*LogDataSource)(nil)
