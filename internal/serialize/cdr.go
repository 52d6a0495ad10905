// Custom Data Recording (CDR) serializer: a multi-source registry whose
// packetizer-facing data source iterates registered sources in
// registration order, pre-serializing each recording's metadata into a
// fixed-size buffer the first time it's asked about so a small chunk
// size doesn't cause the metadata to be rebuilt on every ReadMsg call.
//
// Grounded on
// _examples/original_source/observability/ticos-firmware-sdk/components/core/src/ticos_custom_data_recording.c.
package serialize

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ticos-sdk/go-ticos/internal/cbor"
	"github.com/ticos-sdk/go-ticos/internal/interfaces"
	ticos "github.com/ticos-sdk/go-ticos/internal/protocol"
)

// CdrMetadata describes one custom data recording.
type CdrMetadata struct {
	StartTime        *int64
	DurationMs       uint32
	Mimetypes        []string
	CollectionReason string
	DataSizeBytes    int
}

// CdrSource is implemented by a platform-specific recording provider.
// HasCDR reports (and fills metadata for) a recording ready to upload;
// ReadData streams its binary payload; MarkRead is called once the full
// recording (metadata + payload) has been consumed.
type CdrSource interface {
	HasCDR() (CdrMetadata, bool)
	ReadData(offset int, buf []byte) bool
	MarkRead()
}

var (
	ErrCdrRegistryFull  = fmt.Errorf("serialize: cdr source registry is full")
	ErrCdrMetadataTooBig = fmt.Errorf("serialize: cdr metadata exceeds the configured encoded-metadata buffer")
)

// CdrRegistry holds up to maxSources registered CdrSource implementations,
// in registration order.
type CdrRegistry struct {
	sources []CdrSource
	max     int
}

// NewCdrRegistry creates a registry capped at maxSources entries.
func NewCdrRegistry(maxSources int) *CdrRegistry {
	return &CdrRegistry{max: maxSources}
}

// Register adds impl to the registry, returning its index, or
// ErrCdrRegistryFull if the cap has been reached.
func (r *CdrRegistry) Register(impl CdrSource) (int, error) {
	if len(r.sources) >= r.max {
		return 0, ErrCdrRegistryFull
	}
	r.sources = append(r.sources, impl)
	return len(r.sources) - 1, nil
}

// Reset clears every registered source; a recording already claimed by a
// CdrDataSource is not released.
func (r *CdrRegistry) Reset() {
	r.sources = nil
}

func encodeCdrMetadata(e *cbor.Encoder, info DeviceInfo, m CdrMetadata) bool {
	ok := EncodeEnvelope(e, ticos.EventTypeCdr, m.StartTime, info)
	ok = ok && e.EncodeUnsignedInteger(ticos.EventKeyEventInfo)

	const cdrNumPairs = 4 // duration, mimetypes, reason, data
	ok = ok && e.EncodeDictionaryBegin(cdrNumPairs)
	ok = ok && encodeUint32KV(e, ticos.CdrInfoKeyDurationMs, m.DurationMs)

	ok = ok && e.EncodeUnsignedInteger(ticos.CdrInfoKeyMimetypes) && e.EncodeArrayBegin(len(m.Mimetypes))
	for _, mt := range m.Mimetypes {
		ok = ok && e.EncodeString(mt)
	}

	ok = ok && encodeStringKV(e, ticos.CdrInfoKeyReason, m.CollectionReason)

	ok = ok && e.EncodeUnsignedInteger(ticos.CdrInfoKeyData) && e.EncodeByteStringBegin(m.DataSizeBytes)
	// the binary blob itself is streamed separately by CdrDataSource.ReadMsg
	return ok
}

// CdrDataSource implements interfaces.DataSource, exposing the first
// registered source with a recording ready as a single packetizer
// message: pre-serialized metadata followed by the source's raw payload.
type CdrDataSource struct {
	registry   *CdrRegistry
	deviceInfo DeviceInfo
	logger     interfaces.Logger
	maxMetaLen int

	active           CdrSource
	encodedMetadata  []byte
	totalEncodeLen   int

	// correlationID identifies the in-flight recording across the
	// "claimed" and "fully read" log lines; it has no wire
	// representation, since data_export's on-wire CDR metadata is fixed
	// by ticos_custom_data_recording.c and isn't ours to extend.
	correlationID string
}

// CorrelationID returns the id assigned to the recording currently being
// read, or "" if none is active.
func (d *CdrDataSource) CorrelationID() string {
	return d.correlationID
}

// NewCdrDataSource wires a data source to its registry. maxMetadataLen
// bounds the pre-serialized metadata buffer (see
// ticos.DefaultCDRMaxEncodedMetadataLen for the default).
func NewCdrDataSource(registry *CdrRegistry, deviceInfo DeviceInfo, logger interfaces.Logger, maxMetadataLen int) *CdrDataSource {
	return &CdrDataSource{registry: registry, deviceInfo: deviceInfo, logger: logger, maxMetaLen: maxMetadataLen}
}

func (d *CdrDataSource) tryClaimSource() {
	if d.active != nil {
		return
	}
	for _, src := range d.registry.sources {
		if src == nil {
			continue
		}
		if meta, ok := src.HasCDR(); ok {
			d.active = src
			d.correlationID = uuid.NewString()
			d.prepareMetadata(meta)
			if d.active != nil && d.logger != nil {
				d.logger.Debugf("cdr: claimed recording reason=%q corr_id=%s", meta.CollectionReason, d.correlationID)
			}
			return
		}
	}
}

func (d *CdrDataSource) prepareMetadata(meta CdrMetadata) {
	buf := make([]byte, d.maxMetaLen)
	n := 0
	e := cbor.NewEncoder(func(ctx interface{}, offset int, data []byte) {
		copy(buf[offset:], data)
		n = offset + len(data)
	}, nil, d.maxMetaLen)

	if !encodeCdrMetadata(e, d.deviceInfo, meta) {
		if d.logger != nil {
			d.logger.Errorf("not enough storage to serialize CDR metadata, increase the encoded-metadata buffer size")
		}
		d.active = nil
		d.correlationID = ""
		return
	}

	d.encodedMetadata = buf[:n]
	d.totalEncodeLen = n + meta.DataSizeBytes
}

// HasMoreMsgs scans the registry for the first source with a ready
// recording and reports its total encoded size (metadata + payload).
func (d *CdrDataSource) HasMoreMsgs() (int, bool) {
	d.tryClaimSource()
	if d.active == nil {
		return 0, false
	}
	return d.totalEncodeLen, true
}

// ReadMsg serves bytes from the pre-serialized metadata buffer, then
// falls through to the active source's ReadData for the payload,
// matching prv_cdr_read's split.
func (d *CdrDataSource) ReadMsg(offset int, buf []byte) bool {
	if d.active == nil {
		return false
	}
	if offset+len(buf) > d.totalEncodeLen {
		return false
	}

	if offset < len(d.encodedMetadata) {
		n := len(d.encodedMetadata) - offset
		if n > len(buf) {
			n = len(buf)
		}
		copy(buf, d.encodedMetadata[offset:offset+n])
		buf = buf[n:]
		if len(buf) == 0 {
			return true
		}
		offset = 0
	} else {
		offset -= len(d.encodedMetadata)
	}

	return d.active.ReadData(offset, buf)
}

// MarkMsgRead notifies the active source its recording has been fully
// sent and releases it so the registry can be scanned again.
func (d *CdrDataSource) MarkMsgRead() {
	if d.active == nil {
		return
	}
	if d.logger != nil {
		d.logger.Debugf("cdr: recording fully sent corr_id=%s", d.correlationID)
	}
	d.active.MarkRead()
	d.active = nil
	d.encodedMetadata = nil
	d.totalEncodeLen = 0
	d.correlationID = ""
}

var _ interfaces.DataSource = (*CdrDataSource)(nil)
