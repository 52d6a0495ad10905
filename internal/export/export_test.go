package export

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeChunkFramesWithPrefixAndSuffix(t *testing.T) {
	chunk := []byte{0x02, 0x01, 0x02, 0x03}
	line := EncodeChunk(chunk)

	require.True(t, strings.HasPrefix(line, "MC:"))
	require.True(t, strings.HasSuffix(line, ":"))

	encoded := strings.TrimSuffix(strings.TrimPrefix(line, "MC:"), ":")
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	require.Equal(t, chunk, decoded)
}

func TestEncodeChunkEmpty(t *testing.T) {
	require.Equal(t, "MC::", EncodeChunk(nil))
}

type stubChunker struct {
	chunks [][]byte
	i      int
}

func (s *stubChunker) GetChunk(buf []byte) (int, bool) {
	if s.i >= len(s.chunks) {
		return 0, false
	}
	n := copy(buf, s.chunks[s.i])
	s.i++
	return n, true
}

func TestExporterDumpChunksDrainsAllAvailable(t *testing.T) {
	chunker := &stubChunker{chunks: [][]byte{{0x02, 0xAA}, {0x02, 0xBB, 0xCC}}}
	var lines []string
	exp := NewExporter(chunker, func(line string) { lines = append(lines, line) }, 64)

	n := exp.DumpChunks()

	require.Equal(t, 2, n)
	require.Len(t, lines, 2)
	require.Equal(t, EncodeChunk([]byte{0x02, 0xAA}), lines[0])
	require.Equal(t, EncodeChunk([]byte{0x02, 0xBB, 0xCC}), lines[1])
}

func TestExporterDumpChunksEmpty(t *testing.T) {
	exp := NewExporter(&stubChunker{}, func(string) { t.Fatal("sink should not be called") }, 64)
	require.Equal(t, 0, exp.DumpChunks())
}
