// Package cbor implements the streaming CBOR encoder subset this SDK
// needs: major types 0 (uint), 1 (negint), 2 (bytestring), 3 (textstring),
// 4 (array), 5 (map), 7 (float64/simple), minimal-width integer encoding,
// a size-only accounting mode, and a join() primitive that splices
// pre-encoded CBOR bytes into the stream.
//
// Grounded on
// _examples/original_source/observability/ticos-firmware-sdk/components/util/src/ticos_minimal_cbor.c.
// No third-party CBOR library exposes this size-only dry-run mode or a
// raw-splice-into-an-in-progress-stream primitive (see DESIGN.md), so this
// is a deliberate from-scratch port rather than a library wrapper.
package cbor

import "math"

// WriteCallback receives freshly encoded bytes at their logical offset
// within the overall document. ctx is opaque caller state (e.g. a
// destination buffer or TLV header being patched in place).
type WriteCallback func(ctx interface{}, offset int, data []byte)

type majorType uint8

const (
	majorUnsigned majorType = 0
	majorNegative majorType = 1
	majorByteStr  majorType = 2
	majorTextStr  majorType = 3
	majorArray    majorType = 4
	majorMap      majorType = 5
	majorSimple   majorType = 7
)

// Encoder is the streaming CBOR writer state. Use NewEncoder for write
// mode or NewSizeOnlyEncoder to just count bytes.
type Encoder struct {
	computeSizeOnly bool
	writeCb         WriteCallback
	writeCbCtx      interface{}
	bufLen          int
	encodedSize     int
}

// NewEncoder creates a write-mode encoder that invokes cb for every chunk
// of bytes produced, so long as the running total stays within bufLen.
func NewEncoder(cb WriteCallback, ctx interface{}, bufLen int) *Encoder {
	return &Encoder{writeCb: cb, writeCbCtx: ctx, bufLen: bufLen}
}

// NewSizeOnlyEncoder creates an encoder that performs no writes, only
// accounting. Used to size backing storage before a real encode pass.
func NewSizeOnlyEncoder() *Encoder {
	return &Encoder{computeSizeOnly: true}
}

// Size returns the number of bytes produced (or that would be produced) so
// far.
func (e *Encoder) Size() int {
	return e.encodedSize
}

func (e *Encoder) addToResult(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	if e.computeSizeOnly {
		e.encodedSize += len(data)
		return true
	}
	if e.encodedSize+len(data) > e.bufLen {
		return false
	}
	e.writeCb(e.writeCbCtx, e.encodedSize, data)
	e.encodedSize += len(data)
	return true
}

func serializeMajorType(mt majorType) uint8 {
	return uint8(mt&0x7) << 5
}

func (e *Encoder) encodeUnsignedWithType(mt majorType, val uint32) bool {
	m := serializeMajorType(mt)
	var tmp [5]byte
	var n int
	switch {
	case val < 24:
		tmp[0] = m + uint8(val)
		n = 1
	case val <= 0xFF:
		tmp[0] = m + 24
		tmp[1] = byte(val)
		n = 2
	case val <= 0xFFFF:
		tmp[0] = m + 25
		tmp[1] = byte(val >> 8)
		tmp[2] = byte(val)
		n = 3
	default:
		tmp[0] = m + 26
		tmp[1] = byte(val >> 24)
		tmp[2] = byte(val >> 16)
		tmp[3] = byte(val >> 8)
		tmp[4] = byte(val)
		n = 5
	}
	return e.addToResult(tmp[:n])
}

func encodeUint64Bytes(val uint64) []byte {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(val >> (56 - 8*i))
	}
	return buf
}

// EncodeUnsignedInteger encodes a non-negative integer with the minimal
// width that fits (tiny/1/2/4 bytes).
func (e *Encoder) EncodeUnsignedInteger(value uint32) bool {
	return e.encodeUnsignedWithType(majorUnsigned, value)
}

// EncodeSignedInteger encodes a 32-bit signed integer using RFC 7049's
// zig-zag-free major-type-1 encoding (Appendix C pseudocode): negative
// values are stored as major type 1 with value -(n+1).
func (e *Encoder) EncodeSignedInteger(value int32) bool {
	ui := value >> 31
	mt := majorType(ui & 0x1)
	ui ^= value
	return e.encodeUnsignedWithType(mt, uint32(ui))
}

// EncodeLongSignedInteger encodes a 64-bit signed integer, falling back to
// minimal 32-bit width when the magnitude allows, and a full 9-byte
// major-type-1/0 + uint64 item otherwise.
func (e *Encoder) EncodeLongSignedInteger(value int64) bool {
	ui := value >> 63
	mt := majorType(ui & 0x1)
	ui ^= value
	if uint64(ui) <= 0xFFFFFFFF {
		return e.encodeUnsignedWithType(mt, uint32(ui))
	}
	tmp := make([]byte, 9)
	tmp[0] = serializeMajorType(mt) | 27
	copy(tmp[1:], encodeUint64Bytes(uint64(ui)))
	return e.addToResult(tmp)
}

// EncodeUint64AsDouble encodes val's raw bit pattern as a CBOR
// double-precision float item (major type 7, additional info 27),
// matching the original's "just reinterpret the bits" helper used for
// IEEE-754 float64 passthrough.
func (e *Encoder) EncodeUint64AsDouble(val uint64) bool {
	tmp := make([]byte, 9)
	tmp[0] = serializeMajorType(majorSimple) | 27
	copy(tmp[1:], encodeUint64Bytes(val))
	return e.addToResult(tmp)
}

// EncodeFloat64 encodes a float64 as a CBOR double-precision item.
func (e *Encoder) EncodeFloat64(val float64) bool {
	return e.EncodeUint64AsDouble(float64bits(val))
}

// Join splices pre-encoded raw CBOR bytes into the stream, used to embed
// already-serialized logs and metadata without a realloc/copy.
func (e *Encoder) Join(data []byte) bool {
	return e.addToResult(data)
}

// EncodeByteString encodes a complete byte-string item (header + body).
func (e *Encoder) EncodeByteString(buf []byte) bool {
	return e.encodeUnsignedWithType(majorByteStr, uint32(len(buf))) && e.addToResult(buf)
}

// EncodeByteStringBegin writes only the byte-string header, letting the
// caller stream the body via subsequent Join calls.
func (e *Encoder) EncodeByteStringBegin(length int) bool {
	return e.encodeUnsignedWithType(majorByteStr, uint32(length))
}

// EncodeString encodes a complete text-string item (header + body).
func (e *Encoder) EncodeString(s string) bool {
	return e.encodeUnsignedWithType(majorTextStr, uint32(len(s))) && e.addToResult([]byte(s))
}

// EncodeStringBegin writes only the text-string header.
func (e *Encoder) EncodeStringBegin(length int) bool {
	return e.encodeUnsignedWithType(majorTextStr, uint32(length))
}

// EncodeDictionaryBegin writes a CBOR map header for numElements key/value
// pairs.
func (e *Encoder) EncodeDictionaryBegin(numElements int) bool {
	return e.encodeUnsignedWithType(majorMap, uint32(numElements))
}

// EncodeArrayBegin writes a CBOR array header for numElements items.
func (e *Encoder) EncodeArrayBegin(numElements int) bool {
	return e.encodeUnsignedWithType(majorArray, uint32(numElements))
}

func float64bits(f float64) uint64 {
	return math.Float64bits(f)
}
