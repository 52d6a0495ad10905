// Package packetizer implements the priority-ordered pull pipeline that
// drains the coredump/event/log/CDR data sources into transport-ready
// chunks: a fixed-priority source list, an active-sources mask a caller
// can narrow to prioritize one transport topology over another, single-
// or multi-packet chunking, and abort/idempotence semantics so a dropped
// chunk gets retransmitted in full rather than resumed mid-message.
//
// Grounded on
// _examples/original_source/observability/ticos-firmware-sdk/components/core/src/ticos_data_packetizer.c
// and components/include/ticos/core/data_packetizer.h. The underlying
// generic "chunk transport" framing (ticos_chunk_transport_get_chunk_info/
// get_next_chunk) wasn't among the retrieved sources, so the read-offset
// bookkeeping below is authored directly against the header's documented
// contract rather than ported line-by-line.
package packetizer

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/ticos-sdk/go-ticos/internal/interfaces"
	ticos "github.com/ticos-sdk/go-ticos/internal/protocol"
)

// MinBufLen is the absolute smallest buffer GetNext will fill, matching
// TICOS_PACKETIZER_MIN_BUF_LEN: one header byte plus at least 8 bytes of
// payload.
const MinBufLen = 9

// headerSize is the one-byte wire header (message type, optionally
// RLE-flagged) prefixing every message's byte stream.
const headerSize = 1

// Status reports the outcome of one GetNext call.
type Status int

const (
	StatusNoMoreData Status = iota
	StatusEndOfChunk
	StatusMoreDataForChunk
)

// Metadata is returned by Begin, describing the message about to be (or
// already being) drained.
type Metadata struct {
	SendInProgress           bool
	SingleChunkMessageLength int
}

type namedSource struct {
	msgType MessageType
	mask    ticos.DataSourceMask
	source  interfaces.DataSource
}

// MessageType aliases the wire message-type taxonomy shared with the
// protocol constants package.
type MessageType = ticos.MessageType

type activeMessage struct {
	source    namedSource
	totalSize int // payload size, excluding the header byte
	readOffset int // offset into the header+payload stream
	multiPacket bool
}

// Packetizer drives the fixed-priority coredump -> event -> log -> CDR
// source list, matching s_ticos_data_source's registration order exactly
// (earlier sources always win a tie when more than one has data ready).
type Packetizer struct {
	sources    []namedSource
	activeMask *bitset.BitSet
	logger     interfaces.Logger

	msg *activeMessage
}

// New wires a Packetizer to its four data sources. A nil source is
// treated the same as the original's weak no-op stub: always reports no
// data.
func New(coredump, event, log, cdr interfaces.DataSource, logger interfaces.Logger) *Packetizer {
	p := &Packetizer{logger: logger}
	p.sources = []namedSource{
		{msgType: ticos.MessageTypeCoredump, mask: ticos.DataSourceMaskCoredump, source: coredump},
		{msgType: ticos.MessageTypeEvent, mask: ticos.DataSourceMaskEvent, source: event},
		{msgType: ticos.MessageTypeLog, mask: ticos.DataSourceMaskLog, source: log},
		{msgType: ticos.MessageTypeCDR, mask: ticos.DataSourceMaskCDR, source: cdr},
	}
	p.activeMask = allSourcesMask()
	return p
}

func allSourcesMask() *bitset.BitSet {
	b := bitset.New(uint(ticos.MessageTypeCDR) + 1)
	b.Set(uint(ticos.MessageTypeCoredump))
	b.Set(uint(ticos.MessageTypeEvent))
	b.Set(uint(ticos.MessageTypeLog))
	b.Set(uint(ticos.MessageTypeCDR))
	return b
}

// SetActiveSources narrows which sources the packetizer will drain.
// Calling this aborts any in-progress message, matching the original's
// documented side effect.
func (p *Packetizer) SetActiveSources(mask ticos.DataSourceMask) {
	p.Abort()
	b := bitset.New(uint(ticos.MessageTypeCDR) + 1)
	for _, s := range p.sources {
		if mask&s.mask != 0 {
			b.Set(uint(s.msgType))
		}
	}
	p.activeMask = b
}

// Abort discards any in-progress message packetization. The aborted
// message's bytes will be retransmitted from the start the next time it
// is drained, since nothing was marked read.
func (p *Packetizer) Abort() {
	p.msg = nil
}

func (p *Packetizer) sourceEnabled(s namedSource) bool {
	return p.activeMask.Test(uint(s.msgType))
}

// findSourceWithData scans sources in priority order and returns the
// first enabled one reporting data ready.
func (p *Packetizer) findSourceWithData() (namedSource, int, bool) {
	for _, s := range p.sources {
		if !p.sourceEnabled(s) || s.source == nil {
			continue
		}
		if size, ok := s.source.HasMoreMsgs(); ok {
			return s, size, true
		}
	}
	return namedSource{}, 0, false
}

// DataAvailable reports whether there is anything left to drain, without
// starting a new message.
func (p *Packetizer) DataAvailable() bool {
	if p.msg != nil {
		return true
	}
	_, _, ok := p.findSourceWithData()
	return ok
}

// Begin loads the next message to send if none is already in progress,
// and reports whether any data is available plus size metadata about it.
func (p *Packetizer) Begin(enableMultiPacketChunks bool) (Metadata, bool) {
	if p.msg == nil {
		source, size, ok := p.findSourceWithData()
		if !ok {
			return Metadata{}, false
		}
		p.msg = &activeMessage{source: source, totalSize: size, multiPacket: enableMultiPacketChunks}
	}

	return Metadata{
		SendInProgress:           p.msg.readOffset != 0,
		SingleChunkMessageLength: p.msg.totalSize + headerSize,
	}, true
}

// readFailureScribbleLen matches the original's "scribble 0xEF for up to
// 16 bytes" convention for masking a read failure rather than surfacing
// an error code callers would have no good way to act on.
const readFailureScribbleLen = 16

// fillFrom copies bytes from the active message's header+payload stream
// at [offset, offset+len(buf)) into buf.
func (p *Packetizer) fillFrom(offset int, buf []byte) {
	bufp := buf
	if offset < headerSize {
		hdr := ticos.WireHeader(p.msg.source.msgType, false)
		n := min(headerSize-offset, len(bufp))
		for i := 0; i < n; i++ {
			bufp[i] = hdr
		}
		bufp = bufp[n:]
		offset = 0
	} else {
		offset -= headerSize
	}

	if len(bufp) == 0 {
		return
	}

	if !p.msg.source.source.ReadMsg(offset, bufp) {
		if p.logger != nil {
			p.logger.Errorf("packetizer: read at offset %d (%d bytes) for source type %d failed", offset, len(bufp), p.msg.source.msgType)
		}
		n := min(readFailureScribbleLen, len(bufp))
		for i := 0; i < n; i++ {
			bufp[i] = 0xEF
		}
	}
}

// GetNext fills buf with the next slice of the in-progress message. Begin
// must have been called first (and each time StatusEndOfChunk is
// returned, to load the next message).
func (p *Packetizer) GetNext(buf []byte) (int, Status) {
	if p.msg == nil {
		return 0, StatusNoMoreData
	}
	if len(buf) < MinBufLen {
		return 0, StatusMoreDataForChunk
	}

	streamLen := headerSize + p.msg.totalSize
	remaining := streamLen - p.msg.readOffset
	n := len(buf)
	if n > remaining {
		n = remaining
	}

	p.fillFrom(p.msg.readOffset, buf[:n])
	p.msg.readOffset += n

	if p.msg.readOffset >= streamLen {
		p.msg.source.source.MarkMsgRead()
		p.Abort()
		return n, StatusEndOfChunk
	}

	if p.msg.multiPacket {
		return n, StatusMoreDataForChunk
	}
	return n, StatusEndOfChunk
}

// GetChunk is the simplest way to drain the packetizer: one call returns
// one complete chunk (single-packet mode), or false if nothing is
// available.
func (p *Packetizer) GetChunk(buf []byte) (int, bool) {
	if len(buf) < MinBufLen {
		return 0, false
	}
	if _, ok := p.Begin(false); !ok {
		return 0, false
	}
	n, status := p.GetNext(buf)
	if status != StatusEndOfChunk {
		if p.logger != nil {
			p.logger.Errorf("packetizer: unexpected status %d draining a single chunk", status)
		}
		return 0, false
	}
	return n, true
}
