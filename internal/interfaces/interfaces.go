// Package interfaces provides internal interface definitions shared across
// go-ticos packages, kept separate from the public ticos package to avoid
// import cycles between the root package and its internal subpackages.
package interfaces

import "context"

// DataSource is the unifying abstraction across event kinds: coredump,
// event, log, and CDR sources all implement it and are driven identically
// by the packetizer.
type DataSource interface {
	// HasMoreMsgs reports whether a message is ready and its total size.
	HasMoreMsgs() (totalSize int, ok bool)
	// ReadMsg fills buf with bytes from [offset, offset+len(buf)) of the
	// currently available message. It returns false on read failure.
	ReadMsg(offset int, buf []byte) bool
	// MarkMsgRead advances past the current message, the sole means of
	// progressing to the next one.
	MarkMsgRead()
}

// Storage is the backing-store abstraction used by both event-storage NV
// persistence and the coredump writer.
type Storage interface {
	GetInfo() StorageInfo
	Read(offset int, buf []byte) bool
	Write(offset int, data []byte) bool
	Erase(offset, length int) bool
	Clear() bool
	SaveBegin() bool
}

// StorageInfo describes a Storage region's capacity.
type StorageInfo struct {
	Size int
}

// Logger is the logging contract components depend on, implemented by
// internal/logging.Logger (logrus-backed).
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
}

// Clock abstracts wall-clock and monotonic time so tests can control both
// without sleeping.
type Clock interface {
	Now() (unixSeconds int64, ok bool)
	MonotonicMillis() uint64
}

// Locker is the recursive-mutex contract required for all state-mutating
// calls against shared rings.
type Locker interface {
	Lock()
	Unlock()
}

// Transport delivers a fully framed chunk to its destination (HTTP POST or
// base64 log-sink export) and reports whether it was accepted.
type Transport interface {
	Send(ctx context.Context, msgType byte, chunk []byte) error
}
