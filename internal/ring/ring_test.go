package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	b := New(make([]byte, 16))
	require.True(t, b.Write([]byte("hello")))
	require.Equal(t, 5, b.ReadSize())

	out := make([]byte, 5)
	require.True(t, b.Read(0, out))
	require.Equal(t, "hello", string(out))
}

func TestWriteWrapsAroundStorage(t *testing.T) {
	b := New(make([]byte, 8))
	require.True(t, b.Write([]byte("123456")))
	require.True(t, b.Consume(6))
	// read_offset is now 6; the next write must wrap past the end.
	require.True(t, b.Write([]byte("abcd")))

	out := make([]byte, 4)
	require.True(t, b.Read(0, out))
	require.Equal(t, "abcd", string(out))
}

func TestWriteFailsWhenOutOfSpace(t *testing.T) {
	b := New(make([]byte, 4))
	require.False(t, b.Write([]byte("12345")))
	require.Equal(t, 0, b.ReadSize())
}

func TestConsumeFromEndRollsBackReservation(t *testing.T) {
	b := New(make([]byte, 16))
	require.True(t, b.Write([]byte("AAAA")))
	// Reserve 4 more bytes for a body we fail to finish writing.
	require.True(t, b.Write([]byte{0, 0, 0, 0}))
	require.Equal(t, 8, b.ReadSize())

	require.True(t, b.ConsumeFromEnd(4))
	require.Equal(t, 4, b.ReadSize())

	out := make([]byte, 4)
	require.True(t, b.Read(0, out))
	require.Equal(t, "AAAA", string(out))
}

func TestWriteAtOffsetFromEndPatchesReservedHeader(t *testing.T) {
	b := New(make([]byte, 16))
	// Reserve a 2-byte header placeholder, then append a 4-byte body.
	require.True(t, b.Write([]byte{0xFF, 0xFF}))
	require.True(t, b.Write([]byte("body")))
	require.Equal(t, 6, b.ReadSize())

	// Patch the header in place, 6 bytes back from the current end.
	require.True(t, b.WriteAtOffsetFromEnd(6, []byte{0x01, 0x02}))
	require.Equal(t, 6, b.ReadSize(), "patching an existing region must not grow read_size")

	out := make([]byte, 6)
	require.True(t, b.Read(0, out))
	require.Equal(t, []byte{0x01, 0x02, 'b', 'o', 'd', 'y'}, out)
}

func TestWriteAtOffsetFromEndExtendsPastReservation(t *testing.T) {
	b := New(make([]byte, 16))
	require.True(t, b.Write([]byte{0xFF, 0xFF}))
	// offsetFromEnd=2 but data is 4 bytes: first 2 overwrite, last 2 are new.
	require.True(t, b.WriteAtOffsetFromEnd(2, []byte{0x01, 0x02, 0x03, 0x04}))
	require.Equal(t, 4, b.ReadSize())

	out := make([]byte, 4)
	require.True(t, b.Read(0, out))
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, out)
}

func TestReadWithCallbackSplitsAcrossWrap(t *testing.T) {
	b := New(make([]byte, 8))
	require.True(t, b.Write([]byte("123456")))
	require.True(t, b.Consume(6))
	require.True(t, b.Write([]byte("abcdef")))

	var got []byte
	ok := b.ReadWithCallback(0, 6, func(dstOffset int, chunk []byte) bool {
		got = append(got, chunk...)
		return true
	})
	require.True(t, ok)
	require.Equal(t, "abcdef", string(got))
}

func TestConsumeFailsPastReadSize(t *testing.T) {
	b := New(make([]byte, 8))
	require.True(t, b.Write([]byte("ab")))
	require.False(t, b.Consume(3))
}

func TestWriteSizeReflectsConsumption(t *testing.T) {
	b := New(make([]byte, 8))
	require.Equal(t, 8, b.WriteSize())
	require.True(t, b.Write([]byte("abc")))
	require.Equal(t, 5, b.WriteSize())
	require.True(t, b.Consume(3))
	require.Equal(t, 8, b.WriteSize())
}

func TestWriteAtPatchesInPlaceWithoutGrowing(t *testing.T) {
	b := New(make([]byte, 8))
	require.True(t, b.Write([]byte("abc")))
	require.True(t, b.WriteAt(1, []byte("X")))
	require.Equal(t, 3, b.ReadSize())

	out := make([]byte, 3)
	require.True(t, b.Read(0, out))
	require.Equal(t, "aXc", string(out))
}

func TestWriteAtWrapsAroundStorage(t *testing.T) {
	b := New(make([]byte, 8))
	require.True(t, b.Write([]byte("123456")))
	require.True(t, b.Consume(6))
	require.True(t, b.Write([]byte("abcdef")))
	// read window now wraps past the end of storage.
	require.True(t, b.WriteAt(4, []byte("Z")))

	out := make([]byte, 6)
	require.True(t, b.Read(0, out))
	require.Equal(t, "abcdZf", string(out))
}

func TestWriteAtFailsPastReadSize(t *testing.T) {
	b := New(make([]byte, 8))
	require.True(t, b.Write([]byte("ab")))
	require.False(t, b.WriteAt(1, []byte("XX")))
}
