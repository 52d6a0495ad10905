// Package serialize builds the CBOR event envelope shared by every event
// type, plus the per-type encoders for trace/reboot, heartbeat metrics,
// logs, and CDR payloads.
//
// Grounded on
// _examples/original_source/observability/ticos-firmware-sdk/components/core/src/ticos_serializer_helper.c
// for the envelope and reserve/commit-to-storage glue, and the
// per-type source files named in each sibling file's doc comment.
package serialize

import (
	"github.com/ticos-sdk/go-ticos/internal/cbor"
	ticos "github.com/ticos-sdk/go-ticos/internal/protocol"
)

// DeviceInfo supplies the fields the original derives from a platform
// device-info accessor.
type DeviceInfo struct {
	DeviceSerial    string
	SoftwareType    string
	SoftwareVersion string
	HardwareVersion string
	BuildID         []byte
	// EncodeDeviceSerial mirrors TICOS_EVENT_INCLUDE_DEVICE_SERIAL: by
	// default the serial is omitted from every event to save space
	// (it's implied by the chunks endpoint's device-identifier path),
	// and only encoded when this is explicitly set.
	EncodeDeviceSerial bool
}

// EncodeEnvelope writes the dictionary-begin header plus every top-level
// envelope field except "event_info" (key 4), which the caller appends
// immediately afterward since its shape is type-specific. unixTS is nil
// when no wall-clock time is available for this boot.
func EncodeEnvelope(e *cbor.Encoder, eventType ticos.EventType, unixTS *int64, info DeviceInfo) bool {
	hasSerial := info.EncodeDeviceSerial && info.DeviceSerial != ""
	hasBuildID := len(info.BuildID) > 0
	hasTS := unixTS != nil

	numPairs := 1 /* type */ +
		boolToInt(hasTS) +
		boolToInt(hasSerial) +
		3 /* sw version, sw type, hw version */ +
		boolToInt(hasBuildID) +
		1 /* schema version */ +
		1 /* event_info */

	ok := e.EncodeDictionaryBegin(numPairs)
	ok = ok && encodeUint32KV(e, ticos.EventKeyType, uint32(eventType))
	ok = ok && encodeUint32KV(e, ticos.EventKeySchemaVer, ticos.SchemaVersion)

	if hasSerial {
		ok = ok && encodeStringKV(e, ticos.EventKeyDeviceSerial, info.DeviceSerial)
	}
	ok = ok && encodeStringKV(e, ticos.EventKeySoftwareType, info.SoftwareType)
	ok = ok && encodeStringKV(e, ticos.EventKeySoftwareVer, info.SoftwareVersion)
	ok = ok && encodeStringKV(e, ticos.EventKeyHardwareVer, info.HardwareVersion)

	if hasBuildID {
		ok = ok && encodeByteStringKV(e, ticos.EventKeyBuildID, info.BuildID)
	}
	if hasTS {
		ok = ok && encodeUint32KV(e, ticos.EventKeyTimestamp, uint32(*unixTS))
	}
	return ok
}

func encodeUint32KV(e *cbor.Encoder, key uint32, value uint32) bool {
	return e.EncodeUnsignedInteger(key) && e.EncodeUnsignedInteger(value)
}

func encodeInt32KV(e *cbor.Encoder, key uint32, value int32) bool {
	return e.EncodeUnsignedInteger(key) && e.EncodeSignedInteger(value)
}

func encodeByteStringKV(e *cbor.Encoder, key uint32, value []byte) bool {
	return e.EncodeUnsignedInteger(key) && e.EncodeByteString(value)
}

func encodeStringKV(e *cbor.Encoder, key uint32, value string) bool {
	return e.EncodeUnsignedInteger(key) && e.EncodeString(value)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ComputeSize runs encodeFn against a size-only encoder, used to size
// backing storage before the real encode pass.
func ComputeSize(encodeFn func(e *cbor.Encoder) bool) int {
	sizer := cbor.NewSizeOnlyEncoder()
	encodeFn(sizer)
	return sizer.Size()
}
