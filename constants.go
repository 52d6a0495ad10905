package ticos

import "github.com/ticos-sdk/go-ticos/internal/protocol"

// Protocol constants shared by the wire formats described in SPEC_FULL.md.
// Re-exported from internal/protocol, which is where internal components
// also get them from (see that package's doc comment for why).
const (
	RebootInfoMagic             = protocol.RebootInfoMagic
	RebootInfoVersion           = protocol.RebootInfoVersion
	RebootReasonUnset           = protocol.RebootReasonUnset
	EventStorageWriteInProgress = protocol.EventStorageWriteInProgress
	CoredumpMagic               = protocol.CoredumpMagic
	CoredumpVersion             = protocol.CoredumpVersion
	CoredumpFooterMagic         = protocol.CoredumpFooterMagic
	SchemaVersion               = protocol.SchemaVersion
)

// MessageType identifies the kind of data framed by the packetizer/chunk
// transport, carried in the low nibble of the 1-byte wire header.
type MessageType = protocol.MessageType

const (
	MessageTypeNone     = protocol.MessageTypeNone
	MessageTypeCoredump = protocol.MessageTypeCoredump
	MessageTypeEvent    = protocol.MessageTypeEvent
	MessageTypeLog      = protocol.MessageTypeLog
	MessageTypeCDR      = protocol.MessageTypeCDR
)

// WireHeader returns the single framing byte for a message of the given
// type, optionally flagged as RLE-encoded.
func WireHeader(t MessageType, rle bool) byte {
	return protocol.WireHeader(t, rle)
}

// DataSourceMask bits select which of the packetizer's data sources are
// active. Values match the MessageType bit positions used on the wire.
type DataSourceMask = protocol.DataSourceMask

const (
	DataSourceMaskCoredump = protocol.DataSourceMaskCoredump
	DataSourceMaskEvent    = protocol.DataSourceMaskEvent
	DataSourceMaskLog      = protocol.DataSourceMaskLog
	DataSourceMaskCDR      = protocol.DataSourceMaskCDR
	DataSourceMaskAll      = protocol.DataSourceMaskAll
)

// Event envelope key ids.
const (
	EventKeyTimestamp    = protocol.EventKeyTimestamp
	EventKeyType         = protocol.EventKeyType
	EventKeySchemaVer    = protocol.EventKeySchemaVer
	EventKeyEventInfo    = protocol.EventKeyEventInfo
	EventKeyHardwareVer  = protocol.EventKeyHardwareVer
	EventKeyDeviceSerial = protocol.EventKeyDeviceSerial
	EventKeySoftwareVer  = protocol.EventKeySoftwareVer
	EventKeySoftwareType = protocol.EventKeySoftwareType
	EventKeyBuildID      = protocol.EventKeyBuildID
)

// EventType values tag the envelope's "2" key.
type EventType = protocol.EventType

const (
	EventTypeHeartbeat = protocol.EventTypeHeartbeat
	EventTypeTrace     = protocol.EventTypeTrace
	EventTypeLogError  = protocol.EventTypeLogError
	EventTypeLogs      = protocol.EventTypeLogs
	EventTypeCdr       = protocol.EventTypeCdr
)

// Trace event_info dictionary keys.
const (
	TraceInfoKeyReason            = protocol.TraceInfoKeyReason
	TraceInfoKeyProgramCounter    = protocol.TraceInfoKeyProgramCounter
	TraceInfoKeyLinkRegister      = protocol.TraceInfoKeyLinkRegister
	TraceInfoKeyMcuReasonRegister = protocol.TraceInfoKeyMcuReasonRegister
	TraceInfoKeyCoredumpSaved     = protocol.TraceInfoKeyCoredumpSaved
	TraceInfoKeyUserReason        = protocol.TraceInfoKeyUserReason
	TraceInfoKeyStatusCode        = protocol.TraceInfoKeyStatusCode
	TraceInfoKeyLog               = protocol.TraceInfoKeyLog
)

// Heartbeat event_info dictionary key.
const HeartbeatInfoKeyMetrics = protocol.HeartbeatInfoKeyMetrics

// CDR event_info dictionary keys.
const (
	CdrInfoKeyDurationMs = protocol.CdrInfoKeyDurationMs
	CdrInfoKeyMimetypes  = protocol.CdrInfoKeyMimetypes
	CdrInfoKeyReason     = protocol.CdrInfoKeyReason
	CdrInfoKeyData       = protocol.CdrInfoKeyData
)

// Default sizing, overridable via internal/config.
const (
	DefaultEventStorageCapacity    = protocol.DefaultEventStorageCapacity
	DefaultPacketizerMTU           = protocol.DefaultPacketizerMTU
	DefaultCDRMaxSources           = protocol.DefaultCDRMaxSources
	DefaultCDRMaxEncodedMetadataLen = protocol.DefaultCDRMaxEncodedMetadataLen
)
