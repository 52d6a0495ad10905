package serialize

import (
	"testing"

	fxcbor "github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
	ticos "github.com/ticos-sdk/go-ticos/internal/protocol"
	"github.com/ticos-sdk/go-ticos/internal/logstore"
)

func newLogDataSource(t *testing.T) (*LogDataSource, *logstore.Store) {
	t.Helper()
	store := logstore.New(make([]byte, 512))
	ds := NewLogDataSource(store, nil, testDeviceInfo())
	return ds, store
}

func TestTriggerCollectionNoopWhenNoLogs(t *testing.T) {
	ds, _ := newLogDataSource(t)
	require.NoError(t, ds.TriggerCollection())
	require.False(t, ds.HasBeenTriggered())
}

func TestTriggerCollectionNoopWhenAllLogsSent(t *testing.T) {
	ds, store := newLogDataSource(t)
	require.True(t, store.Save(0, logstore.RecordTypePreformatted, []byte("hi")))
	require.NoError(t, ds.TriggerCollection())
	ds.MarkMsgRead()

	require.NoError(t, ds.TriggerCollection())
	require.False(t, ds.HasBeenTriggered())
}

func TestTriggerCollectionFailsWhileAlreadyTriggered(t *testing.T) {
	ds, store := newLogDataSource(t)
	require.True(t, store.Save(0, logstore.RecordTypePreformatted, []byte("hi")))
	require.NoError(t, ds.TriggerCollection())

	err := ds.TriggerCollection()
	require.Error(t, err)
	require.True(t, ticos.IsCode(err, ticos.CodeStateError))
}

func TestHasMoreMsgsFalseBeforeTrigger(t *testing.T) {
	ds, store := newLogDataSource(t)
	require.True(t, store.Save(0, logstore.RecordTypePreformatted, []byte("hi")))

	_, ok := ds.HasMoreMsgs()
	require.False(t, ok)
}

func TestReadMsgEncodesOnlyTriggeredBatch(t *testing.T) {
	ds, store := newLogDataSource(t)
	require.True(t, store.Save(0, logstore.RecordTypePreformatted, []byte("debug")))
	require.True(t, store.Save(1, logstore.RecordTypePreformatted, []byte("info")))
	require.NoError(t, ds.TriggerCollection())

	// Logs appended after the trigger must not appear in this batch.
	require.True(t, store.Save(2, logstore.RecordTypePreformatted, []byte("warn")))

	size, ok := ds.HasMoreMsgs()
	require.True(t, ok)
	buf := make([]byte, size)
	require.True(t, ds.ReadMsg(0, buf))

	var decoded map[int]interface{}
	require.NoError(t, fxcbor.Unmarshal(buf, &decoded))
	info := decoded[int(ticos.EventKeyEventInfo)].([]interface{})
	require.Len(t, info, 4) // 2 logs * (level, msg)
	require.EqualValues(t, 0, info[0])
	require.Equal(t, "debug", info[1])
	require.EqualValues(t, 1, info[2])
	require.Equal(t, "info", info[3])
}

func TestReadMsgSupportsPartialChunkedReads(t *testing.T) {
	ds, store := newLogDataSource(t)
	require.True(t, store.Save(0, logstore.RecordTypePreformatted, []byte("debug")))
	require.NoError(t, ds.TriggerCollection())

	size, ok := ds.HasMoreMsgs()
	require.True(t, ok)

	full := make([]byte, size)
	for offset := 0; offset < size; offset++ {
		one := make([]byte, 1)
		require.True(t, ds.ReadMsg(offset, one))
		full[offset] = one[0]
	}

	var decoded map[int]interface{}
	require.NoError(t, fxcbor.Unmarshal(full, &decoded))
	require.EqualValues(t, ticos.EventTypeLogs, decoded[int(ticos.EventKeyType)])
}

func TestMarkMsgReadOnlyMarksTheTriggeredBatch(t *testing.T) {
	ds, store := newLogDataSource(t)
	require.True(t, store.Save(0, logstore.RecordTypePreformatted, []byte("a")))
	require.NoError(t, ds.TriggerCollection())
	require.True(t, store.Save(0, logstore.RecordTypePreformatted, []byte("b")))

	ds.MarkMsgRead()

	require.False(t, ds.HasBeenTriggered())
	require.Equal(t, 1, store.CountUnsent())

	require.NoError(t, ds.TriggerCollection())
	require.True(t, ds.HasBeenTriggered())
}
