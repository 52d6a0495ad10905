// Package memstorage provides a RAM-backed interfaces.Storage, the
// Collector's default coredump storage and the backend used for storage
// in tests.
//
// Adapted from ehrlich-b-go-ublk/backend/mem.go: kept the shard-range
// locking technique (cheap parallelism without a single global mutex),
// rewritten against this project's erase/write/read/get-info/clear
// Storage contract instead of io_uring's ReadAt/WriteAt.
package memstorage

import (
	"sync"

	"github.com/ticos-sdk/go-ticos/internal/interfaces"
)

// ShardSize is the size of each locked region, chosen for embedded
// storage regions (typically well under a megabyte) rather than a
// block device's 64KB shard size.
const ShardSize = 4 * 1024

// Memory is a RAM-backed Storage protected by per-shard locks so
// unrelated regions of a large region (e.g. a coredump area and an
// event-storage area backed by the same Memory) don't contend.
type Memory struct {
	data   []byte
	shards []sync.RWMutex
}

// New creates a zero-filled Memory region of the given size.
func New(size int) *Memory {
	numShards := (size + ShardSize - 1) / ShardSize
	if numShards == 0 {
		numShards = 1
	}
	return &Memory{
		data:   make([]byte, size),
		shards: make([]sync.RWMutex, numShards),
	}
}

func (m *Memory) shardRange(offset, length int) (start, end int) {
	if length <= 0 {
		length = 1
	}
	start = offset / ShardSize
	end = (offset + length - 1) / ShardSize
	if end >= len(m.shards) {
		end = len(m.shards) - 1
	}
	if start < 0 {
		start = 0
	}
	return start, end
}

// GetInfo reports the region's total capacity.
func (m *Memory) GetInfo() interfaces.StorageInfo {
	return interfaces.StorageInfo{Size: len(m.data)}
}

// Read copies len(buf) bytes starting at offset. Reports false if the
// range falls outside the region.
func (m *Memory) Read(offset int, buf []byte) bool {
	if offset < 0 || offset+len(buf) > len(m.data) {
		return false
	}
	start, end := m.shardRange(offset, len(buf))
	for i := start; i <= end; i++ {
		m.shards[i].RLock()
	}
	copy(buf, m.data[offset:offset+len(buf)])
	for i := start; i <= end; i++ {
		m.shards[i].RUnlock()
	}
	return true
}

// Write copies data into the region starting at offset. Reports false if
// the range falls outside the region.
func (m *Memory) Write(offset int, data []byte) bool {
	if offset < 0 || offset+len(data) > len(m.data) {
		return false
	}
	start, end := m.shardRange(offset, len(data))
	for i := start; i <= end; i++ {
		m.shards[i].Lock()
	}
	copy(m.data[offset:offset+len(data)], data)
	for i := start; i <= end; i++ {
		m.shards[i].Unlock()
	}
	return true
}

// Erase zeroes [offset, offset+length), matching flash's erase-before-
// write convention closely enough for a RAM-backed test double.
func (m *Memory) Erase(offset, length int) bool {
	if offset < 0 || offset+length > len(m.data) {
		return false
	}
	start, end := m.shardRange(offset, length)
	for i := start; i <= end; i++ {
		m.shards[i].Lock()
	}
	for i := offset; i < offset+length; i++ {
		m.data[i] = 0
	}
	for i := start; i <= end; i++ {
		m.shards[i].Unlock()
	}
	return true
}

// Clear erases the entire region.
func (m *Memory) Clear() bool {
	return m.Erase(0, len(m.data))
}

// SaveBegin has no precondition for a RAM-backed region; it always
// succeeds.
func (m *Memory) SaveBegin() bool { return true }

var _ interfaces.Storage = (*Memory)(nil)
