// Package protocol holds the wire-format constants, error taxonomy, and
// metrics/observer shapes shared across go-ticos: the root package and
// every internal component (serialize, packetizer, config, coredump,
// export) need the same MessageType/EventType/Code/Observer vocabulary,
// and the root package's composition root (sdk.go) imports those
// components, so the shared vocabulary has to live somewhere neither
// side's import graph loops back through. The root package re-exports
// everything here via type aliases so callers never see this package
// name.
package protocol

// Protocol constants shared by the wire formats described in SPEC_FULL.md.
const (
	// RebootInfoMagic stamps the non-initialized RAM reboot-tracking region.
	RebootInfoMagic uint32 = 0x21544252
	// RebootInfoVersion is the current reboot-info record layout version.
	RebootInfoVersion uint8 = 2
	// RebootReasonUnset is the sentinel "no reason latched yet" value.
	RebootReasonUnset uint32 = 0xFFFFFFFF

	// EventStorageWriteInProgress is the sentinel length prefix marking an
	// event-storage entry whose write has not yet committed.
	EventStorageWriteInProgress uint16 = 0xFFFF

	// CoredumpMagic identifies a valid coredump header ('CORE').
	CoredumpMagic uint32 = 0x45524F43
	// CoredumpVersion is the current coredump layout version.
	CoredumpVersion uint32 = 2
	// CoredumpFooterMagic identifies a valid coredump footer ('DUMP').
	CoredumpFooterMagic uint32 = 0x504D5544

	// SchemaVersion is the event-envelope schema version (key 3).
	SchemaVersion uint32 = 1
)

// MessageType identifies the kind of data framed by the packetizer/chunk
// transport, carried in the low nibble of the 1-byte wire header.
type MessageType uint8

const (
	MessageTypeNone     MessageType = 0
	MessageTypeCoredump MessageType = 1
	MessageTypeEvent    MessageType = 2
	MessageTypeLog      MessageType = 3
	MessageTypeCDR      MessageType = 4
)

// messageTypeRLEFlag is OR'd into the wire header's high bit when the
// packetizer is streaming through an RLE-wrapped source.
const messageTypeRLEFlag = 0x80

// WireHeader returns the single framing byte for a message of the given
// type, optionally flagged as RLE-encoded.
func WireHeader(t MessageType, rle bool) byte {
	b := byte(t)
	if rle {
		b |= messageTypeRLEFlag
	}
	return b
}

// DataSourceMask bits select which of the packetizer's data sources are
// active. Values match the MessageType bit positions used on the wire.
type DataSourceMask uint32

const (
	DataSourceMaskCoredump DataSourceMask = 1 << MessageTypeCoredump
	DataSourceMaskEvent    DataSourceMask = 1 << MessageTypeEvent
	DataSourceMaskLog      DataSourceMask = 1 << MessageTypeLog
	DataSourceMaskCDR      DataSourceMask = 1 << MessageTypeCDR

	DataSourceMaskAll = DataSourceMaskCoredump | DataSourceMaskEvent | DataSourceMaskLog | DataSourceMaskCDR
)

// Event envelope key ids.
const (
	EventKeyTimestamp    = 1
	EventKeyType         = 2
	EventKeySchemaVer    = 3
	EventKeyEventInfo    = 4
	EventKeyHardwareVer  = 6
	EventKeyDeviceSerial = 7
	EventKeySoftwareVer  = 9
	EventKeySoftwareType = 10
	EventKeyBuildID      = 11
)

// EventType values tag the envelope's "2" key.
type EventType uint32

const (
	EventTypeHeartbeat EventType = 1
	EventTypeTrace     EventType = 2
	EventTypeLogError  EventType = 3
	EventTypeLogs      EventType = 4
	EventTypeCdr       EventType = 5
)

// Trace event_info dictionary keys.
const (
	TraceInfoKeyReason            = 1
	TraceInfoKeyProgramCounter    = 2
	TraceInfoKeyLinkRegister      = 3
	TraceInfoKeyMcuReasonRegister = 4
	TraceInfoKeyCoredumpSaved     = 5
	TraceInfoKeyUserReason        = 6
	TraceInfoKeyStatusCode        = 7
	TraceInfoKeyLog               = 8
)

// Heartbeat event_info dictionary key.
const HeartbeatInfoKeyMetrics = 1

// CDR event_info dictionary keys.
const (
	CdrInfoKeyDurationMs = 1
	CdrInfoKeyMimetypes  = 2
	CdrInfoKeyReason     = 3
	CdrInfoKeyData       = 4
)

// Default sizing, overridable via internal/config.
const (
	DefaultEventStorageCapacity = 4096
	DefaultPacketizerMTU        = 512
	DefaultCDRMaxSources        = 4
	DefaultCDRMaxEncodedMetadataLen = 128
)
