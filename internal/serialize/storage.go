package serialize

import (
	"sync/atomic"

	"github.com/ticos-sdk/go-ticos/internal/cbor"
	"github.com/ticos-sdk/go-ticos/internal/interfaces"
)

// StorageWriter is the subset of eventstore.Store the encode-to-storage
// glue needs; kept as an interface here to avoid an import cycle between
// serialize and eventstore (eventstore doesn't need to know about CBOR).
type StorageWriter interface {
	BeginWrite() int
	AppendData(data []byte) bool
	FinishWrite(rollback bool)
}

// DropCounter tracks events dropped for lack of storage space, mirroring
// ticos_serializer_helper's s_num_storage_drops/s_last_drop_count pair so
// callers can log "first drop" and "recovered after N drops" transitions.
type DropCounter struct {
	numDrops  atomic.Uint32
	lastCount atomic.Uint32
}

// RecordFailure increments the in-progress drop count, returning true the
// first time it transitions from zero (the point a caller should log).
func (d *DropCounter) RecordFailure() (firstDrop bool) {
	return d.numDrops.Add(1) == 1
}

// RecordSuccess folds any pending drop count into the running total and
// resets it, returning how many drops preceded this success (0 means
// none).
func (d *DropCounter) RecordSuccess() (precedingDrops uint32) {
	n := d.numDrops.Swap(0)
	if n != 0 {
		d.lastCount.Add(n)
	}
	return n
}

// ReadDropCount returns and resets the accumulated drop count.
func (d *DropCounter) ReadDropCount() uint32 {
	return d.lastCount.Swap(0) + d.numDrops.Swap(0)
}

// EncodeToStorage reserves space via storage.BeginWrite, runs encodeFn
// against a write-mode encoder backed by storage.AppendData, and commits
// or rolls back depending on whether encodeFn succeeded, tracking drops
// via drops.
func EncodeToStorage(storage StorageWriter, drops *DropCounter, logger interfaces.Logger, encodeFn func(e *cbor.Encoder) bool) bool {
	spaceAvailable := storage.BeginWrite()

	enc := cbor.NewEncoder(func(ctx interface{}, offset int, data []byte) {
		storage.AppendData(data)
	}, nil, spaceAvailable)

	success := encodeFn(enc)
	storage.FinishWrite(!success)

	if !success {
		if drops.RecordFailure() && logger != nil {
			logger.Errorf("event storage full")
		}
		return false
	}

	if preceding := drops.RecordSuccess(); preceding != 0 && logger != nil {
		logger.Infof("event saved successfully after %d drops", preceding)
	}
	return true
}

// CheckStorageSize reports whether storage can hold at least one event of
// the given worst-case size, logging a warning if not.
func CheckStorageSize(storageSize, worstCaseSize int, eventType string, logger interfaces.Logger) bool {
	if worstCaseSize > storageSize {
		if logger != nil {
			logger.Warnf("event storage (%d) smaller than largest %s event (%d)", storageSize, eventType, worstCaseSize)
		}
		return false
	}
	return true
}
