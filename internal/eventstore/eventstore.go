// Package eventstore implements the reserve/commit event writer and
// batched-readout data source: a two-phase writer over the ring buffer
// tolerant of a crash mid-write,
// and a reader that coalesces several small queued events into one
// packetizer message up to a configurable batch-size cap.
//
// Grounded on
// _examples/original_source/observability/ticos-firmware-sdk/components/core/src/ticos_event_storage.c
// and ticos_batched_events.c (the array-begin header for N>1 queued
// events). NV-storage persistence (an optional platform delegate in the
// original) is modeled as the PersistTarget interface so tests can
// exercise the drain loop without a real flash backend.
package eventstore

import (
	"encoding/binary"
	"sync"

	"github.com/ticos-sdk/go-ticos/internal/cbor"
	"github.com/ticos-sdk/go-ticos/internal/interfaces"
	"github.com/ticos-sdk/go-ticos/internal/ring"
)

const (
	writeInProgress uint16 = 0xFFFF
	headerSize             = 2
	maxBatchedHeaderLen    = 5
)

// Config controls read batching.
type Config struct {
	// BatchingEnabled allows has_data to coalesce multiple queued events
	// into a single packetizer message.
	BatchingEnabled bool
	// MaxBatchBytes caps the combined payload size of a batched read.
	MaxBatchBytes int
}

// DefaultConfig batches up to 1024 bytes per read, matching a
// conservative embedded MTU budget.
func DefaultConfig() Config {
	return Config{BatchingEnabled: true, MaxBatchBytes: 1024}
}

type writeState struct {
	inProgress   bool
	bytesWritten int
}

type readState struct {
	activeReadSize int
	numEvents      int
	header         []byte
}

// PersistTarget is the optional nonvolatile-storage delegate events drain
// into once queued in RAM.
type PersistTarget interface {
	Enabled() bool
	Write(read func(offset int, buf []byte) bool, size int) bool
}

// Store is the RAM-backed event storage and its batched data-source
// facade.
type Store struct {
	mu     sync.Mutex
	buf    *ring.Buffer
	cfg    Config
	write  writeState
	read   readState
	persist PersistTarget
}

// New wraps storage as an event store with the given batching config.
// storage is zeroed and owned by the Store.
func New(storage []byte, cfg Config) *Store {
	return &Store{buf: ring.New(storage), cfg: cfg}
}

// SetPersistTarget registers an optional NV-storage delegate.
func (s *Store) SetPersistTarget(p PersistTarget) {
	s.persist = p
}

// BeginWrite reserves a write-in-progress header and returns the
// remaining free space, or 0 if a write is already outstanding or there
// is no room for the sentinel header.
func (s *Store) BeginWrite() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.write.inProgress {
		return 0
	}

	hdr := make([]byte, headerSize)
	binary.LittleEndian.PutUint16(hdr, writeInProgress)
	if !s.buf.Write(hdr) {
		return 0
	}

	s.write = writeState{inProgress: true, bytesWritten: headerSize}
	return s.buf.WriteSize()
}

// AppendData appends to the event currently being written.
func (s *Store) AppendData(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.buf.Write(data) {
		return false
	}
	s.write.bytesWritten += len(data)
	return true
}

// FinishWrite commits the reserved header with the final size, or rolls
// back the whole reservation if rollback is true.
func (s *Store) FinishWrite(rollback bool) {
	s.mu.Lock()
	if !s.write.inProgress {
		s.mu.Unlock()
		return
	}

	if rollback {
		s.buf.ConsumeFromEnd(s.write.bytesWritten)
	} else {
		hdr := make([]byte, headerSize)
		binary.LittleEndian.PutUint16(hdr, uint16(s.write.bytesWritten))
		s.buf.WriteAtOffsetFromEnd(s.write.bytesWritten, hdr)
	}
	s.write = writeState{}
	s.mu.Unlock()
}

// BytesUsed and BytesFree report the ring's current utilization.
func (s *Store) BytesUsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.ReadSize()
}

func (s *Store) BytesFree() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.WriteSize()
}

func (s *Store) totalEventSize(st readState) int {
	if st.numEvents == 0 {
		return 0
	}
	hdrOverhead := st.numEvents * headerSize
	return st.activeReadSize + len(st.header) - hdrOverhead
}

func (s *Store) computeReadState() readState {
	st := readState{}
	for {
		hdr := make([]byte, headerSize)
		if !s.buf.Read(st.activeReadSize, hdr) {
			break
		}
		size := binary.LittleEndian.Uint16(hdr)
		if size == writeInProgress {
			break
		}

		st.numEvents++
		st.activeReadSize += int(size)

		if !s.cfg.BatchingEnabled {
			break
		}
		if st.numEvents > 1 && s.totalEventSize(st) > s.cfg.MaxBatchBytes {
			st.numEvents--
			st.activeReadSize -= int(size)
			break
		}
	}
	st.header = buildBatchHeader(st.numEvents)
	return st
}

func buildBatchHeader(numEvents int) []byte {
	if numEvents <= 1 {
		return nil
	}
	buf := make([]byte, maxBatchedHeaderLen)
	enc := cbor.NewEncoder(func(ctx interface{}, offset int, data []byte) {
		copy(buf[offset:], data)
	}, nil, maxBatchedHeaderLen)
	enc.EncodeArrayBegin(numEvents)
	return buf[:enc.Size()]
}

// HasMoreMsgs implements interfaces.DataSource: it reports the size of the
// next (possibly batched) message, recomputing the read window if none is
// already staged.
func (s *Store) HasMoreMsgs() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if size := s.totalEventSize(s.read); size != 0 {
		return size, true
	}

	s.read = s.computeReadState()
	size := s.totalEventSize(s.read)
	return size, size != 0
}

// ReadMsg implements interfaces.DataSource, serving the batch header
// first (if any) and then each entry's payload with its 2-byte per-entry
// header stripped.
func (s *Store) ReadMsg(offset int, dst []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	bufLen := len(dst)
	total := s.totalEventSize(s.read)
	if offset+bufLen > total {
		return false
	}

	out := dst
	if offset < len(s.read.header) {
		toCopy := bufLen
		if rem := len(s.read.header) - offset; rem < toCopy {
			toCopy = rem
		}
		copy(out[:toCopy], s.read.header[offset:offset+toCopy])
		out = out[toCopy:]
		bufLen -= toCopy
		offset = 0
	} else {
		offset -= len(s.read.header)
	}

	currOffset := 0
	readOffset := 0
	for bufLen > 0 {
		hdr := make([]byte, headerSize)
		if !s.buf.Read(readOffset, hdr) {
			return false
		}
		readOffset += headerSize
		eventSize := int(binary.LittleEndian.Uint16(hdr)) - headerSize

		if currOffset+eventSize < offset {
			currOffset += eventSize
			readOffset += eventSize
			continue
		}

		evtStart := offset - currOffset
		toRead := eventSize - evtStart
		if toRead > bufLen {
			toRead = bufLen
		}
		chunk := make([]byte, toRead)
		if !s.buf.Read(readOffset+evtStart, chunk) {
			return false
		}
		copy(out, chunk)
		out = out[toRead:]
		currOffset += eventSize
		readOffset += eventSize
		bufLen -= toRead
		offset += toRead
	}
	return true
}

// MarkMsgRead implements interfaces.DataSource: it consumes the staged
// batch of events and resets the read window.
func (s *Store) MarkMsgRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.read.activeReadSize == 0 {
		return
	}
	s.buf.Consume(s.read.activeReadSize)
	s.read = readState{}
}

// Persist drains RAM-queued events into the registered PersistTarget,
// returning the number of events successfully handed off. It is a no-op
// if no target is registered or the target reports itself disabled.
func (s *Store) Persist() int {
	if s.persist == nil || !s.persist.Enabled() {
		return 0
	}

	n := 0
	for {
		size, ok := s.HasMoreMsgs()
		if !ok {
			break
		}
		if !s.persist.Write(s.ReadMsg, size) {
			break
		}
		s.MarkMsgRead()
		n++
	}
	return n
}

var _ interfaces.DataSource = (*Store)(nil)
