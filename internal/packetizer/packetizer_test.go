package packetizer

import (
	"testing"

	"github.com/stretchr/testify/require"
	ticos "github.com/ticos-sdk/go-ticos/internal/protocol"
)

// fakeSource is a minimal interfaces.DataSource backed by a byte slice.
type fakeSource struct {
	data      []byte
	available bool
	readFail  bool
	marked    bool
}

func (f *fakeSource) HasMoreMsgs() (int, bool) {
	if !f.available {
		return 0, false
	}
	return len(f.data), true
}

func (f *fakeSource) ReadMsg(offset int, buf []byte) bool {
	if f.readFail {
		return false
	}
	if offset+len(buf) > len(f.data) {
		return false
	}
	copy(buf, f.data[offset:offset+len(buf)])
	return true
}

func (f *fakeSource) MarkMsgRead() {
	f.marked = true
	f.available = false
}

func TestDataAvailableFalseWhenAllSourcesEmpty(t *testing.T) {
	p := New(&fakeSource{}, &fakeSource{}, &fakeSource{}, &fakeSource{}, nil)
	require.False(t, p.DataAvailable())
}

func TestGetChunkPrefersCoredumpOverEventOverLogOverCdr(t *testing.T) {
	event := &fakeSource{data: []byte("event"), available: true}
	log := &fakeSource{data: []byte("log"), available: true}
	p := New(nil, event, log, nil, nil)

	buf := make([]byte, 64)
	n, ok := p.GetChunk(buf)
	require.True(t, ok)
	require.Equal(t, byte(ticos.MessageTypeEvent), buf[0])
	require.Equal(t, "event", string(buf[1:n]))
	require.True(t, event.marked)
	require.False(t, log.marked)
}

func TestGetChunkHeaderByteMatchesMessageType(t *testing.T) {
	coredump := &fakeSource{data: []byte("core"), available: true}
	p := New(coredump, nil, nil, nil, nil)

	buf := make([]byte, 64)
	n, ok := p.GetChunk(buf)
	require.True(t, ok)
	require.Equal(t, byte(ticos.MessageTypeCoredump), buf[0])
	require.Equal(t, "core", string(buf[1:n]))
}

func TestGetChunkReturnsFalseWhenNothingAvailable(t *testing.T) {
	p := New(&fakeSource{}, &fakeSource{}, &fakeSource{}, &fakeSource{}, nil)
	buf := make([]byte, 64)
	_, ok := p.GetChunk(buf)
	require.False(t, ok)
}

func TestMultiPacketModeSpansSeveralCallsBeforeEndOfChunk(t *testing.T) {
	src := &fakeSource{data: []byte("0123456789"), available: true}
	p := New(src, nil, nil, nil, nil)

	_, ok := p.Begin(true)
	require.True(t, ok)

	small := make([]byte, MinBufLen)
	n1, status1 := p.GetNext(small)
	require.Equal(t, StatusMoreDataForChunk, status1)
	require.Equal(t, MinBufLen, n1)
	require.False(t, src.marked)

	full := make([]byte, 64)
	n2, status2 := p.GetNext(full)
	require.Equal(t, StatusEndOfChunk, status2)
	require.True(t, src.marked)

	require.Equal(t, 11, n1+n2) // header(1) + payload(10)
}

func TestSinglePacketModeAlwaysReportsEndOfChunkButContinuesSameMessage(t *testing.T) {
	src := &fakeSource{data: []byte("0123456789"), available: true}
	p := New(src, nil, nil, nil, nil)

	small := make([]byte, MinBufLen)
	meta, ok := p.Begin(false)
	require.True(t, ok)
	require.False(t, meta.SendInProgress)

	_, status := p.GetNext(small)
	require.Equal(t, StatusEndOfChunk, status)
	require.False(t, src.marked, "message not fully drained yet")

	meta, ok = p.Begin(false)
	require.True(t, ok)
	require.True(t, meta.SendInProgress, "continuation of the same partially-sent message")
}

func TestAbortDiscardsInProgressMessageForRetransmission(t *testing.T) {
	src := &fakeSource{data: []byte("0123456789"), available: true}
	p := New(src, nil, nil, nil, nil)

	small := make([]byte, MinBufLen)
	_, ok := p.Begin(true)
	require.True(t, ok)
	p.GetNext(small)

	p.Abort()

	meta, ok := p.Begin(true)
	require.True(t, ok)
	require.False(t, meta.SendInProgress, "aborted message restarts from the beginning")
}

func TestSetActiveSourcesNarrowsWhichSourceIsDrained(t *testing.T) {
	event := &fakeSource{data: []byte("event"), available: true}
	log := &fakeSource{data: []byte("log"), available: true}
	p := New(nil, event, log, nil, nil)

	p.SetActiveSources(ticos.DataSourceMaskLog)

	buf := make([]byte, 64)
	n, ok := p.GetChunk(buf)
	require.True(t, ok)
	require.Equal(t, byte(ticos.MessageTypeLog), buf[0])
	require.Equal(t, "log", string(buf[1:n]))
}

func TestGetChunkRejectsBuffersShorterThanMinBufLen(t *testing.T) {
	src := &fakeSource{data: []byte("0123456789"), available: true}
	p := New(src, nil, nil, nil, nil)

	buf := make([]byte, MinBufLen-1)
	n, ok := p.GetChunk(buf)
	require.False(t, ok)
	require.Equal(t, 0, n)
	require.False(t, src.marked)

	// the message is still fully available afterward, unaffected by the rejected call
	full := make([]byte, 64)
	n, ok = p.GetChunk(full)
	require.True(t, ok)
	require.Equal(t, 11, n)
}

func TestGetNextRejectsBuffersShorterThanMinBufLenWithoutAdvancing(t *testing.T) {
	src := &fakeSource{data: []byte("0123456789"), available: true}
	p := New(src, nil, nil, nil, nil)

	_, ok := p.Begin(true)
	require.True(t, ok)

	tiny := make([]byte, MinBufLen-1)
	n, status := p.GetNext(tiny)
	require.Equal(t, 0, n)
	require.Equal(t, StatusMoreDataForChunk, status)

	full := make([]byte, 64)
	n, status = p.GetNext(full)
	require.Equal(t, StatusEndOfChunk, status)
	require.Equal(t, 11, n, "the rejected short call wrote nothing, so all 11 bytes are still pending")
}

func TestReadFailureScribblesMarkerBytesInsteadOfFailingTheChunk(t *testing.T) {
	src := &fakeSource{data: []byte("x"), available: true, readFail: true}
	p := New(src, nil, nil, nil, nil)

	buf := make([]byte, MinBufLen)
	n, ok := p.GetChunk(buf)
	require.True(t, ok)
	require.Equal(t, byte(ticos.MessageTypeCoredump), buf[0])
	for _, b := range buf[1:n] {
		require.Equal(t, byte(0xEF), b)
	}
}
