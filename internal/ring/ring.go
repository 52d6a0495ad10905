// Package ring implements the fixed-capacity circular buffer that backs
// event storage and the structured log store.
//
// Grounded on
// _examples/original_source/observability/ticos-firmware-sdk/components/util/src/ticos_circular_buffer.c.
// The buffer tracks a read window with read_offset+read_size rather than
// head/tail pointers, which is what makes write_at_offset_from_end (the
// reserve/patch primitive event storage needs to rewrite a header after
// the body has already been written) a few lines of modular arithmetic
// instead of a structural rework.
package ring

// Buffer is a fixed-capacity circular byte buffer over caller-supplied
// storage. It is not safe for concurrent use; callers coordinate locking
// externally the same way the original relies on ticos_lock/unlock.
type Buffer struct {
	storage    []byte
	readOffset int
	readSize   int
}

// New wraps storage as an empty circular buffer. storage must be non-empty
// and is zeroed.
func New(storage []byte) *Buffer {
	for i := range storage {
		storage[i] = 0
	}
	return &Buffer{storage: storage}
}

// ReadSize returns the number of bytes currently available to read.
func (b *Buffer) ReadSize() int {
	return b.readSize
}

// WriteSize returns the number of bytes of free space available to write.
func (b *Buffer) WriteSize() int {
	return b.spaceAvailable()
}

func (b *Buffer) spaceAvailable() int {
	return len(b.storage) - b.readSize
}

// Read copies data_len bytes starting offset bytes into the read window
// into data. It fails if the requested range extends past what has been
// written.
func (b *Buffer) Read(offset int, data []byte) bool {
	dataLen := len(data)
	if b.readSize < offset+dataLen {
		return false
	}

	readIdx := (b.readOffset + offset) % len(b.storage)
	contiguous := len(b.storage) - readIdx
	toRead := dataLen
	if contiguous < toRead {
		toRead = contiguous
	}

	copy(data[:toRead], b.storage[readIdx:readIdx+toRead])
	rem := dataLen - toRead
	if rem != 0 {
		copy(data[toRead:], b.storage[:rem])
	}
	return true
}

// ReadPointer returns a direct slice into storage starting at offset
// within the read window, truncated to the longest contiguous run
// available (the caller loops via ReadWithCallback for spans that wrap).
func (b *Buffer) ReadPointer(offset int) (ptr []byte, ok bool) {
	if b.readSize < offset {
		return nil, false
	}
	readIdx := (b.readOffset + offset) % len(b.storage)
	maxBytes := b.readSize - offset
	contiguous := len(b.storage) - readIdx
	n := contiguous
	if maxBytes < n {
		n = maxBytes
	}
	return b.storage[readIdx : readIdx+n], true
}

// ReadCallback receives a contiguous run of bytes at dstOffset within the
// overall [offset, offset+dataLen) span being read.
type ReadCallback func(dstOffset int, chunk []byte) bool

// ReadWithCallback streams [offset, offset+dataLen) to cb in as many
// contiguous runs as the wraparound requires, stopping early if cb returns
// false.
func (b *Buffer) ReadWithCallback(offset, dataLen int, cb ReadCallback) bool {
	if b.readSize < offset+dataLen {
		return false
	}

	bytesLeft := dataLen
	for bytesLeft > 0 {
		dstOffset := dataLen - bytesLeft
		ptr, ok := b.ReadPointer(offset + dstOffset)
		if !ok {
			return false
		}
		toRead := bytesLeft
		if len(ptr) < toRead {
			toRead = len(ptr)
		}
		if !cb(dstOffset, ptr[:toRead]) {
			return false
		}
		bytesLeft -= toRead
	}
	return true
}

// Consume advances the read window past consumeLen bytes, committing them
// as read.
func (b *Buffer) Consume(consumeLen int) bool {
	if b.readSize < consumeLen {
		return false
	}
	b.readOffset = (b.readOffset + consumeLen) % len(b.storage)
	b.readSize -= consumeLen
	return true
}

// ConsumeFromEnd rolls back consumeLen bytes most recently written,
// without moving readOffset. Used to abandon a reservation that failed
// mid-write.
func (b *Buffer) ConsumeFromEnd(consumeLen int) bool {
	if b.readSize < consumeLen {
		return false
	}
	b.readSize -= consumeLen
	return true
}

func (b *Buffer) writeAtOffsetFromEnd(offsetFromEnd int, data []byte) bool {
	if b.readSize < offsetFromEnd {
		return false
	}

	dataLen := len(data)
	newBytes := 0
	if dataLen > offsetFromEnd {
		newBytes = dataLen - offsetFromEnd
	}
	if b.spaceAvailable() < newBytes {
		return false
	}

	writeIdx := (b.readOffset + b.readSize - offsetFromEnd) % len(b.storage)
	// Go's % can return a result in [-(m-1), m-1] only for negative
	// dividends, which cannot occur here since readOffset+readSize >=
	// offsetFromEnd, but normalize defensively for clarity.
	if writeIdx < 0 {
		writeIdx += len(b.storage)
	}
	contiguous := len(b.storage) - writeIdx
	toWrite := dataLen
	if contiguous < toWrite {
		toWrite = contiguous
	}

	copy(b.storage[writeIdx:writeIdx+toWrite], data[:toWrite])
	rem := dataLen - toWrite
	if rem != 0 {
		copy(b.storage[:rem], data[toWrite:])
	}

	b.readSize += newBytes
	return true
}

// Write appends data to the end of the read window, growing it, failing
// if there isn't enough free space.
func (b *Buffer) Write(data []byte) bool {
	return b.writeAtOffsetFromEnd(0, data)
}

// WriteAtOffsetFromEnd overwrites (or extends) data starting offsetFromEnd
// bytes before the current end of the read window. This is the
// reserve/patch primitive a two-phase writer uses to go back and fill in a
// header after reserving space for a body.
func (b *Buffer) WriteAtOffsetFromEnd(offsetFromEnd int, data []byte) bool {
	return b.writeAtOffsetFromEnd(offsetFromEnd, data)
}

// WriteAt overwrites data in place starting offset bytes into the read
// window, without growing or moving it. Used to rewrite a previously
// written entry's header (e.g. flipping a sent/read bit) in a ring where
// entries are iterated and patched without being consumed, unlike the
// reserve/commit writers that only ever patch near the write frontier.
func (b *Buffer) WriteAt(offset int, data []byte) bool {
	dataLen := len(data)
	if b.readSize < offset+dataLen {
		return false
	}

	writeIdx := (b.readOffset + offset) % len(b.storage)
	contiguous := len(b.storage) - writeIdx
	toWrite := dataLen
	if contiguous < toWrite {
		toWrite = contiguous
	}

	copy(b.storage[writeIdx:writeIdx+toWrite], data[:toWrite])
	rem := dataLen - toWrite
	if rem != 0 {
		copy(b.storage[:rem], data[toWrite:])
	}
	return true
}

// Capacity returns the total storage size backing the buffer.
func (b *Buffer) Capacity() int {
	return len(b.storage)
}
