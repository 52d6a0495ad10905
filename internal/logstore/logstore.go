// Package logstore implements the RAM-backed structured log ring: append
// with a level/type/sent/read header byte per entry, iteration, and
// in-place header rewriting used to mark entries sent without consuming
// them from the ring.
//
// Grounded on
// _examples/original_source/observability/ticos-firmware-sdk/components/core/src/ticos_log_private.h
// for the header bit layout (`0brsxx.tlll`) and entry framing
// (`sTcsRamLogEntry`); the underlying append/evict log-store
// implementation itself (ticos_log.c) was not among the retrieved
// original_source/ files, so Store's space-reclamation policy (reject a
// save that doesn't fit, rather than evicting old entries) follows the
// same "drop on full, let the caller observe it" convention
// ticos_event_storage.c uses elsewhere in the pack.
package logstore

import (
	"github.com/ticos-sdk/go-ticos/internal/ring"
)

// RecordType distinguishes preformatted (printf-expanded) log messages
// from compact (binary-encoded) ones, carried in the header's type bit.
type RecordType uint8

const (
	RecordTypePreformatted RecordType = 0
	RecordTypeCompact      RecordType = 1
)

const (
	hdrLevelMask = 0x07
	hdrTypePos   = 3
	hdrTypeMask  = 0x08
	hdrSentMask  = 0x40
	hdrReadMask  = 0x80
	entryHdrSize = 2 // hdr byte + len byte
	maxMsgLen    = 255
)

func levelFromHdr(hdr uint8) uint8      { return hdr & hdrLevelMask }
func typeFromHdr(hdr uint8) RecordType  { return RecordType((hdr & hdrTypeMask) >> hdrTypePos) }
func isSent(hdr uint8) bool             { return hdr&hdrSentMask != 0 }

func buildHdr(level uint8, typ RecordType) uint8 {
	return (level & hdrLevelMask) | (uint8(typ) << hdrTypePos)
}

// Entry is one decoded log record, yielded during iteration.
type Entry struct {
	Offset int // byte offset of this entry's header within the ring
	Hdr    uint8
	Level  uint8
	Type   RecordType
	Sent   bool
	Msg    []byte
}

// Store is the append-only ring of log entries.
type Store struct {
	buf         *ring.Buffer
	minSaveLevel uint8
}

// New wraps storage as an empty log store.
func New(storage []byte) *Store {
	return &Store{buf: ring.New(storage)}
}

// SetMinSaveLevel filters out Save calls below this level (0 = save
// everything).
func (s *Store) SetMinSaveLevel(level uint8) {
	s.minSaveLevel = level
}

// Save appends one log entry. It returns false if the level is below the
// configured minimum, the message is too long to frame (>255 bytes), or
// the ring doesn't have room.
func (s *Store) Save(level uint8, typ RecordType, msg []byte) bool {
	if level < s.minSaveLevel {
		return false
	}
	if len(msg) > maxMsgLen {
		return false
	}
	hdr := buildHdr(level, typ)
	frame := make([]byte, entryHdrSize+len(msg))
	frame[0] = hdr
	frame[1] = uint8(len(msg))
	copy(frame[2:], msg)
	return s.buf.Write(frame)
}

// iterCallback is invoked once per entry, with the entry's current
// offset and header; returning rewrite=true writes newHdr over the header
// in place before continuing. Returning cont=false stops iteration early.
type iterCallback func(entry Entry) (newHdr uint8, rewrite bool, cont bool)

func (s *Store) iterate(cb iterCallback) {
	offset := 0
	for offset < s.buf.ReadSize() {
		var hdrLen [2]byte
		if !s.buf.Read(offset, hdrLen[:]) {
			return
		}
		hdr, msgLen := hdrLen[0], int(hdrLen[1])

		msg := make([]byte, msgLen)
		if msgLen > 0 && !s.buf.Read(offset+entryHdrSize, msg) {
			return
		}

		entry := Entry{
			Offset: offset,
			Hdr:    hdr,
			Level:  levelFromHdr(hdr),
			Type:   typeFromHdr(hdr),
			Sent:   isSent(hdr),
			Msg:    msg,
		}

		newHdr, rewrite, cont := cb(entry)
		if rewrite {
			s.buf.WriteAt(offset, []byte{newHdr})
		}

		offset += entryHdrSize + msgLen
		if !cont {
			return
		}
	}
}

// Iterate walks every stored entry in order, oldest first.
func (s *Store) Iterate(cb func(entry Entry) bool) {
	s.iterate(func(e Entry) (uint8, bool, bool) {
		return 0, false, cb(e)
	})
}

// CountUnsent returns how many entries have not yet had their sent bit
// set.
func (s *Store) CountUnsent() int {
	count := 0
	s.Iterate(func(e Entry) bool {
		if !e.Sent {
			count++
		}
		return true
	})
	return count
}

// MarkFirstNUnsent sets the sent bit on the first n unsent entries
// (oldest first), matching the original's mark_msg_read_cb behavior of
// only marking the batch that was actually snapshotted and sent, not any
// logs appended afterward.
func (s *Store) MarkFirstNUnsent(n int) {
	if n <= 0 {
		return
	}
	marked := 0
	s.iterate(func(e Entry) (uint8, bool, bool) {
		if e.Sent {
			return 0, false, true
		}
		marked++
		return e.Hdr | hdrSentMask, true, marked < n
	})
}
