// Package export implements the base64 log-sink data export path: an
// alternative to the HTTP chunk-upload transport for bring-up or
// log-scraped integrations, where chunks are wrapped in an ASCII-safe
// envelope and written to an ordinary log line instead of posted over
// HTTP.
//
// Grounded on
// _examples/original_source/observability/ticos-firmware-sdk/components/core/src/ticos_data_export.c
// and components/include/ticos/core/data_export.h:
// ticos_data_export_chunk wraps a chunk as "MC:<base64>:" ("M"emfault
// "C"hunk, preserved here as-is since it is the literal wire prefix the
// protocol pins, not a vendor name) and hands the string to a weak,
// overridable sink function; ticos_data_export_dump_chunks loops
// ticos_packetizer_get_chunk until it returns false. Both are ported
// directly: ChunkPrefix/ChunkSuffix are the literal framing and Sink is
// the Go stand-in for the weak callback.
package export

import (
	"encoding/base64"
	"strings"
)

// ChunkPrefix and ChunkSuffix frame every exported chunk, matching
// TICOS_DATA_EXPORT_BASE64_CHUNK_PREFIX/SUFFIX exactly.
const (
	ChunkPrefix = "MC:"
	ChunkSuffix = ":"
)

// Sink receives one fully framed, base64-encoded chunk line. The default
// ticos_data_export_base64_encoded_chunk implementation logs the string
// at info level; callers pick their own destination (stdout, a file, a
// structured logger) by supplying a Sink, the same override point the
// original's weak symbol provides.
type Sink func(line string)

// Chunker is the subset of packetizer.Packetizer's surface data export
// needs, kept narrow so tests can stub it without constructing a real
// Packetizer.
type Chunker interface {
	GetChunk(buf []byte) (int, bool)
}

// Exporter drains a Chunker and emits each chunk through a Sink,
// mirroring ticos_data_export_dump_chunks's "pull until empty" loop.
type Exporter struct {
	chunker Chunker
	sink    Sink
	bufSize int
}

// NewExporter builds an Exporter. bufSize bounds a single chunk
// (TICOS_DATA_EXPORT_CHUNK_MAX_LEN in the original, a compile-time
// constant derived from the packetizer MTU); callers size it from their
// config.Config.PacketizerMTU plus the one-byte wire header.
func NewExporter(chunker Chunker, sink Sink, bufSize int) *Exporter {
	return &Exporter{chunker: chunker, sink: sink, bufSize: bufSize}
}

// EncodeChunk wraps raw chunk bytes (header byte + CBOR payload, exactly
// what Packetizer.GetChunk returns) in the "MC:<base64>:" envelope.
func EncodeChunk(chunk []byte) string {
	var b strings.Builder
	b.Grow(len(ChunkPrefix) + base64.StdEncoding.EncodedLen(len(chunk)) + len(ChunkSuffix))
	b.WriteString(ChunkPrefix)
	b.WriteString(base64.StdEncoding.EncodeToString(chunk))
	b.WriteString(ChunkSuffix)
	return b.String()
}

// DumpChunks drains every chunk currently available from the packetizer,
// emitting each through the Sink, and returns how many were emitted.
// Matches ticos_data_export_dump_chunks's "while there's data, send it"
// loop; each call handles one drain pass rather than looping forever, so
// a caller controls its own scheduling instead of blocking a goroutine.
func (e *Exporter) DumpChunks() int {
	buf := make([]byte, e.bufSize)
	count := 0
	for {
		n, ok := e.chunker.GetChunk(buf)
		if !ok {
			return count
		}
		e.sink(EncodeChunk(buf[:n]))
		count++
	}
}
