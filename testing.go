package ticos

import (
	"context"
	"sync"

	"github.com/ticos-sdk/go-ticos/internal/interfaces"
)

// MockTransport records every chunk passed to Send instead of delivering
// it anywhere, for asserting against a Collector's upload behavior in
// tests without standing up an HTTP server.
type MockTransport struct {
	mu   sync.Mutex
	sent []sentChunk

	// FailNext, if set, is returned (and cleared) by the next Send call
	// instead of recording the chunk, to exercise retry/abort paths.
	FailNext error
}

type sentChunk struct {
	msgType byte
	data    []byte
}

// NewMockTransport creates an empty MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Send implements interfaces.Transport.
func (m *MockTransport) Send(ctx context.Context, msgType byte, chunk []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNext != nil {
		err := m.FailNext
		m.FailNext = nil
		return err
	}

	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	m.sent = append(m.sent, sentChunk{msgType: msgType, data: cp})
	return nil
}

// Chunks returns a copy of every chunk sent so far, in send order.
func (m *MockTransport) Chunks() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]byte, len(m.sent))
	for i, c := range m.sent {
		out[i] = c.data
	}
	return out
}

// SendCount returns the number of successful Send calls.
func (m *MockTransport) SendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// Reset clears every recorded chunk.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

var _ interfaces.Transport = (*MockTransport)(nil)

// MockCdrSource is an in-memory CdrSource for exercising RegisterCdrSource
// and the packetizer's CDR path without a real recording provider.
type MockCdrSource struct {
	mu sync.Mutex

	meta   CdrMetadata
	data   []byte
	ready  bool
	marked bool
}

// NewMockCdrSource creates a source with no recording ready.
func NewMockCdrSource() *MockCdrSource {
	return &MockCdrSource{}
}

// Arm makes a recording available: the next HasCDR call reports meta
// (with DataSizeBytes filled in from len(data)) and subsequent ReadData
// calls serve data.
func (s *MockCdrSource) Arm(meta CdrMetadata, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.meta = meta
	s.data = data
	s.ready = true
	s.marked = false
}

// HasCDR implements serialize.CdrSource.
func (s *MockCdrSource) HasCDR() (CdrMetadata, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return CdrMetadata{}, false
	}
	m := s.meta
	m.DataSizeBytes = len(s.data)
	return m, true
}

// ReadData implements serialize.CdrSource.
func (s *MockCdrSource) ReadData(offset int, buf []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if offset+len(buf) > len(s.data) {
		return false
	}
	copy(buf, s.data[offset:offset+len(buf)])
	return true
}

// MarkRead implements serialize.CdrSource.
func (s *MockCdrSource) MarkRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.marked = true
	s.ready = false
}

// WasMarkedRead reports whether the armed recording was fully consumed.
func (s *MockCdrSource) WasMarkedRead() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marked
}

var _ CdrSource = (*MockCdrSource)(nil)
