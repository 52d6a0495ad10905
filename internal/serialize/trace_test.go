package serialize

import (
	"testing"

	fxcbor "github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
	ticos "github.com/ticos-sdk/go-ticos/internal/protocol"
	"github.com/ticos-sdk/go-ticos/internal/cbor"
	"github.com/ticos-sdk/go-ticos/internal/eventstore"
)

func testDeviceInfo() DeviceInfo {
	return DeviceInfo{
		SoftwareType:    "main",
		SoftwareVersion: "1.0.0",
		HardwareVersion: "evt",
	}
}

func encode(t *testing.T, fn func(e *cbor.Encoder) bool) []byte {
	t.Helper()
	size := ComputeSize(fn)
	buf := make([]byte, size)
	e := cbor.NewEncoder(func(ctx interface{}, offset int, data []byte) {
		copy(buf[offset:], data)
	}, nil, size)
	require.True(t, fn(e))
	return buf
}

func TestEncodeTraceEventRoundTrip(t *testing.T) {
	evt := TraceEvent{Reason: 7, PC: 0x1000, LR: 0x2000}
	out := encode(t, func(e *cbor.Encoder) bool {
		return EncodeTraceEvent(e, nil, testDeviceInfo(), evt)
	})

	var decoded map[int]interface{}
	require.NoError(t, fxcbor.Unmarshal(out, &decoded))
	require.EqualValues(t, ticos.EventTypeTrace, decoded[int(ticos.EventKeyType)])

	info := decoded[int(ticos.EventKeyEventInfo)].(map[interface{}]interface{})
	require.EqualValues(t, 7, info[uint64(ticos.TraceInfoKeyUserReason)])
	require.EqualValues(t, 0x1000, info[uint64(ticos.TraceInfoKeyProgramCounter)])
}

func TestEncodeTraceEventOmitsZeroPCAndLR(t *testing.T) {
	evt := TraceEvent{Reason: 3}
	out := encode(t, func(e *cbor.Encoder) bool {
		return EncodeTraceEvent(e, nil, testDeviceInfo(), evt)
	})

	var decoded map[int]interface{}
	require.NoError(t, fxcbor.Unmarshal(out, &decoded))
	info := decoded[int(ticos.EventKeyEventInfo)].(map[interface{}]interface{})
	_, hasPC := info[uint64(ticos.TraceInfoKeyProgramCounter)]
	require.False(t, hasPC)
}

func TestEncodeTraceEventWithStatusAndLog(t *testing.T) {
	evt := TraceEvent{Reason: 1, HasStatus: true, StatusCode: -5, HasLog: true, Log: []byte("oops")}
	out := encode(t, func(e *cbor.Encoder) bool {
		return EncodeTraceEvent(e, nil, testDeviceInfo(), evt)
	})

	var decoded map[int]interface{}
	require.NoError(t, fxcbor.Unmarshal(out, &decoded))
	info := decoded[int(ticos.EventKeyEventInfo)].(map[interface{}]interface{})
	require.EqualValues(t, -5, info[uint64(ticos.TraceInfoKeyStatusCode)])
	require.Equal(t, []byte("oops"), info[uint64(ticos.TraceInfoKeyLog)])
}

func TestTraceRecorderCapturesToStorage(t *testing.T) {
	store := eventstore.New(make([]byte, 512), eventstore.DefaultConfig())
	rec := NewTraceRecorder(store, nil, testDeviceInfo(), nil)

	require.True(t, rec.Capture(TraceEvent{Reason: 1}))

	size, ok := store.HasMoreMsgs()
	require.True(t, ok)
	require.Greater(t, size, 0)
}

func TestTraceRecorderDropCountTracksStorageFailures(t *testing.T) {
	store := eventstore.New(make([]byte, 4), eventstore.DefaultConfig())
	rec := NewTraceRecorder(store, nil, testDeviceInfo(), nil)

	require.Equal(t, uint32(0), rec.DropCount())

	require.False(t, rec.Capture(TraceEvent{Reason: 1}), "4 bytes of storage can't fit a trace event")
	require.Equal(t, uint32(1), rec.DropCount())
	require.Equal(t, uint32(0), rec.DropCount(), "DropCount resets after being read")
}

func TestISRCaptureDefersThenFlushes(t *testing.T) {
	store := eventstore.New(make([]byte, 512), eventstore.DefaultConfig())
	rec := NewTraceRecorder(store, nil, testDeviceInfo(), nil)

	require.True(t, rec.CaptureFromISR(TraceEvent{Reason: 9}))
	// A second ISR capture before the first is flushed must fail: the
	// single pending slot is still claimed.
	require.False(t, rec.CaptureFromISR(TraceEvent{Reason: 10}))

	_, ok := store.HasMoreMsgs()
	require.False(t, ok, "ISR-captured event must not be written until flushed")

	require.True(t, rec.TryFlushISREvent())
	size, ok := store.HasMoreMsgs()
	require.True(t, ok)
	require.Greater(t, size, 0)

	// Slot is free again.
	require.True(t, rec.CaptureFromISR(TraceEvent{Reason: 11}))
}

func TestNonISRCaptureFlushesPendingISREventFirstPreservingOrder(t *testing.T) {
	store := eventstore.New(make([]byte, 512), eventstore.Config{})
	rec := NewTraceRecorder(store, nil, testDeviceInfo(), nil)

	require.True(t, rec.CaptureFromISR(TraceEvent{Reason: 1}))
	require.True(t, rec.Capture(TraceEvent{Reason: 2}))

	size, ok := store.HasMoreMsgs()
	require.True(t, ok)
	out := make([]byte, size)
	require.True(t, store.ReadMsg(0, out))

	var decoded map[int]interface{}
	require.NoError(t, fxcbor.Unmarshal(out, &decoded))
	info := decoded[int(ticos.EventKeyEventInfo)].(map[interface{}]interface{})
	require.EqualValues(t, 1, info[uint64(ticos.TraceInfoKeyUserReason)], "the ISR-deferred event must be written first")
}
