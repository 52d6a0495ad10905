package serialize

import (
	"testing"

	fxcbor "github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
	ticos "github.com/ticos-sdk/go-ticos/internal/protocol"
)

type fakeCdrSource struct {
	meta     CdrMetadata
	ready    bool
	data     []byte
	marked   bool
}

func (f *fakeCdrSource) HasCDR() (CdrMetadata, bool) {
	if !f.ready {
		return CdrMetadata{}, false
	}
	f.meta.DataSizeBytes = len(f.data)
	return f.meta, true
}

func (f *fakeCdrSource) ReadData(offset int, buf []byte) bool {
	if offset+len(buf) > len(f.data) {
		return false
	}
	copy(buf, f.data[offset:offset+len(buf)])
	return true
}

func (f *fakeCdrSource) MarkRead() {
	f.marked = true
	f.ready = false
}

func TestCdrRegistryRegisterRespectsCap(t *testing.T) {
	r := NewCdrRegistry(1)
	_, err := r.Register(&fakeCdrSource{})
	require.NoError(t, err)

	_, err = r.Register(&fakeCdrSource{})
	require.ErrorIs(t, err, ErrCdrRegistryFull)
}

func TestCdrRegistryResetClearsSourcesAndCap(t *testing.T) {
	r := NewCdrRegistry(1)
	_, err := r.Register(&fakeCdrSource{})
	require.NoError(t, err)

	r.Reset()

	_, err = r.Register(&fakeCdrSource{})
	require.NoError(t, err, "Reset frees the slot consumed by the prior registration")
}

func TestCdrDataSourceHasMoreMsgsFalseWhenNoSourceReady(t *testing.T) {
	r := NewCdrRegistry(2)
	_, _ = r.Register(&fakeCdrSource{})
	ds := NewCdrDataSource(r, testDeviceInfo(), nil, 256)

	_, ok := ds.HasMoreMsgs()
	require.False(t, ok)
}

func TestCdrDataSourceSkipsNotReadySourcesInRegistrationOrder(t *testing.T) {
	r := NewCdrRegistry(2)
	first := &fakeCdrSource{ready: false}
	second := &fakeCdrSource{
		ready: true,
		data:  []byte("audio-bytes"),
		meta:  CdrMetadata{DurationMs: 500, Mimetypes: []string{"audio/wav"}, CollectionReason: "button press"},
	}
	_, _ = r.Register(first)
	_, _ = r.Register(second)

	ds := NewCdrDataSource(r, testDeviceInfo(), nil, 256)
	size, ok := ds.HasMoreMsgs()
	require.True(t, ok)
	require.Greater(t, size, len(second.data))
}

func TestCdrDataSourceReadMsgSplicesMetadataThenPayload(t *testing.T) {
	r := NewCdrRegistry(1)
	src := &fakeCdrSource{
		ready: true,
		data:  []byte("abcdefghij"),
		meta:  CdrMetadata{DurationMs: 250, Mimetypes: []string{"application/octet-stream"}, CollectionReason: "test"},
	}
	_, _ = r.Register(src)

	ds := NewCdrDataSource(r, testDeviceInfo(), nil, 256)
	size, ok := ds.HasMoreMsgs()
	require.True(t, ok)

	full := make([]byte, size)
	require.True(t, ds.ReadMsg(0, full))

	var decoded map[int]interface{}
	require.NoError(t, fxcbor.Unmarshal(full, &decoded))
	require.EqualValues(t, ticos.EventTypeCdr, decoded[int(ticos.EventKeyType)])

	info := decoded[int(ticos.EventKeyEventInfo)].(map[interface{}]interface{})
	require.EqualValues(t, 250, info[uint64(ticos.CdrInfoKeyDurationMs)])
	require.Equal(t, "test", info[uint64(ticos.CdrInfoKeyReason)])

	// the raw payload bytes should appear verbatim at the tail of the buffer
	require.Equal(t, src.data, full[len(full)-len(src.data):])
}

func TestCdrDataSourceReadMsgSupportsPartialChunkedReads(t *testing.T) {
	r := NewCdrRegistry(1)
	src := &fakeCdrSource{
		ready: true,
		data:  []byte("0123456789"),
		meta:  CdrMetadata{DurationMs: 1, Mimetypes: nil, CollectionReason: "r"},
	}
	_, _ = r.Register(src)

	ds := NewCdrDataSource(r, testDeviceInfo(), nil, 256)
	size, ok := ds.HasMoreMsgs()
	require.True(t, ok)

	full := make([]byte, size)
	for offset := 0; offset < size; offset++ {
		one := make([]byte, 1)
		require.True(t, ds.ReadMsg(offset, one))
		full[offset] = one[0]
	}
	require.Equal(t, src.data, full[len(full)-len(src.data):])
}

func TestCdrDataSourceMarkMsgReadReleasesActiveSourceAndMarksIt(t *testing.T) {
	r := NewCdrRegistry(1)
	src := &fakeCdrSource{
		ready: true,
		data:  []byte("x"),
		meta:  CdrMetadata{DurationMs: 1, CollectionReason: "r"},
	}
	_, _ = r.Register(src)

	ds := NewCdrDataSource(r, testDeviceInfo(), nil, 256)
	_, ok := ds.HasMoreMsgs()
	require.True(t, ok)

	ds.MarkMsgRead()
	require.True(t, src.marked)

	_, ok = ds.HasMoreMsgs()
	require.False(t, ok)
}

func TestCdrDataSourceCorrelationIDAssignedOnClaimAndClearedOnRelease(t *testing.T) {
	r := NewCdrRegistry(1)
	src := &fakeCdrSource{
		ready: true,
		data:  []byte("x"),
		meta:  CdrMetadata{DurationMs: 1, CollectionReason: "r"},
	}
	_, _ = r.Register(src)

	ds := NewCdrDataSource(r, testDeviceInfo(), nil, 256)
	require.Empty(t, ds.CorrelationID())

	_, ok := ds.HasMoreMsgs()
	require.True(t, ok)
	require.NotEmpty(t, ds.CorrelationID())

	ds.MarkMsgRead()
	require.Empty(t, ds.CorrelationID())
}

func TestCdrDataSourceCorrelationIDClearedWhenMetadataTooBig(t *testing.T) {
	r := NewCdrRegistry(1)
	src := &fakeCdrSource{
		ready: true,
		data:  []byte("x"),
		meta:  CdrMetadata{DurationMs: 1, CollectionReason: "a very very very long collection reason that will not fit"},
	}
	_, _ = r.Register(src)

	ds := NewCdrDataSource(r, testDeviceInfo(), nil, 8)
	_, ok := ds.HasMoreMsgs()
	require.False(t, ok)
	require.Empty(t, ds.CorrelationID())
}

func TestCdrDataSourceMetadataTooBigFailsGracefully(t *testing.T) {
	r := NewCdrRegistry(1)
	src := &fakeCdrSource{
		ready: true,
		data:  []byte("x"),
		meta:  CdrMetadata{DurationMs: 1, CollectionReason: "a very very very long collection reason that will not fit"},
	}
	_, _ = r.Register(src)

	ds := NewCdrDataSource(r, testDeviceInfo(), nil, 8)
	_, ok := ds.HasMoreMsgs()
	require.False(t, ok)
}
