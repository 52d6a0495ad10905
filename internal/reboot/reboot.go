// Package reboot implements the reboot-tracking state machine: a
// magic-stamped region that would live in non-initialized RAM on real
// firmware, tracked here as an in-process struct so the collector can run
// the same state machine across process restarts whenever the caller
// persists and restores the encoded bytes itself.
//
// Modeled on ticos_ram_reboot_info_tracking.c from the original firmware
// SDK. Struct marshaling follows a manual encoding/binary LittleEndian
// style rather than reflection-based codecs, matching how the rest of
// this tree lays out fixed wire structs.
package reboot

import (
	"encoding/binary"

	"github.com/ticos-sdk/go-ticos/internal/interfaces"
)

const (
	magic            uint32 = 0x21544252
	version          uint8  = 2
	reasonNotSet     uint32 = 0xFFFFFFFF
	regionSize              = 64 // magic+version+crash_count+rsvd+coredump_saved+reason+pc+lr+reset_reg+rsvd2[10]
)

// Reason mirrors eTicosRebootReason. The firmware SDK treats any value
// greater than or equal to UnknownError, and ReasonUnknown itself, as an
// unexpected-reboot signal; the other values below UnknownError are
// deliberate, expected transitions.
type Reason uint32

const (
	ReasonUnknown Reason = iota
	ReasonPowerOnReset
	ReasonSoftwareReset
	ReasonSoftwareUpdate
	ReasonButtonReset
	ReasonPinReset
	ReasonLowPowerReset
	ReasonHardwareWatchdog

	// ReasonUnknownError and everything after it are classified as
	// unexpected reboots.
	ReasonUnknownError Reason = 0x8000
	ReasonAssert       Reason = 0x8001
	ReasonHardFault    Reason = 0x8002
	ReasonBusFault     Reason = 0x8003
	ReasonUsageFault    Reason = 0x8004
	ReasonNMIWatchdog   Reason = 0x8005
	ReasonSoftwareWatchdog Reason = 0x8006
	ReasonBrownOutReset Reason = 0x8007
	ReasonLockup        Reason = 0x8008
)

// IsError reports whether r falls in the unexpected-reboot range.
func (r Reason) IsError() bool {
	return r == ReasonUnknown || r >= ReasonUnknownError
}

// info is the persisted record, laid out to mirror sTcsRebootInfo's field
// order so persist/decode round-trip byte-for-byte.
type info struct {
	magic            uint32
	version          uint8
	crashCount       uint8
	coredumpSaved    uint8
	lastRebootReason uint32
	pc               uint32
	lr               uint32
	resetReasonReg0  uint32
}

// RegInfo carries platform register values captured at the point a reboot
// becomes imminent, the Go equivalent of sTcsRebootTrackingRegInfo.
type RegInfo struct {
	PC uint32
	LR uint32
}

// ResetInfo is what callers read back after a boot to learn why the
// previous run ended.
type ResetInfo struct {
	Reason          Reason
	PC              uint32
	LR              uint32
	ResetReasonReg0 uint32
	CoredumpSaved   bool
}

// ReasonData exposes both the hardware-reported reason and the
// first-latched reason for a boot cycle, for metrics classification.
type ReasonData struct {
	RegReason    Reason
	StoredReason Reason
}

// Tracker holds the reboot-tracking state machine. It is not safe for
// concurrent use without external locking, matching the original's
// reliance on the caller's ticos_lock/unlock.
type Tracker struct {
	region []byte // regionSize bytes, the persisted "RAM" region
	info   info

	reasonData  ReasonData
	reasonValid bool

	observer interfaces.Logger
}

// NewTracker wires a Tracker to a caller-supplied region buffer. If the
// region doesn't carry the magic, it is (re)initialized, exactly as the
// firmware does on a first boot or after memory corruption.
func NewTracker(region []byte, logger interfaces.Logger) *Tracker {
	t := &Tracker{region: region, observer: logger}
	t.checkOrInit()
	return t
}

// RegionSize is the number of bytes a caller must provide as the
// persisted region.
func RegionSize() int { return regionSize }

func (t *Tracker) checkOrInit() {
	if len(t.region) >= 4 {
		if m := binary.LittleEndian.Uint32(t.region[0:4]); m == magic {
			t.info = decode(t.region)
			return
		}
	}
	t.info = info{magic: magic, version: version, lastRebootReason: reasonNotSet}
	t.persist()
}

func decode(b []byte) info {
	var i info
	i.magic = binary.LittleEndian.Uint32(b[0:4])
	i.version = b[4]
	i.crashCount = b[5]
	i.coredumpSaved = b[7]
	i.lastRebootReason = binary.LittleEndian.Uint32(b[8:12])
	i.pc = binary.LittleEndian.Uint32(b[12:16])
	i.lr = binary.LittleEndian.Uint32(b[16:20])
	i.resetReasonReg0 = binary.LittleEndian.Uint32(b[20:24])
	return i
}

func (t *Tracker) persist() {
	if len(t.region) < 24 {
		return
	}
	b := t.region
	binary.LittleEndian.PutUint32(b[0:4], t.info.magic)
	b[4] = t.info.version
	b[5] = t.info.crashCount
	b[6] = 0
	b[7] = t.info.coredumpSaved
	binary.LittleEndian.PutUint32(b[8:12], t.info.lastRebootReason)
	binary.LittleEndian.PutUint32(b[12:16], t.info.pc)
	binary.LittleEndian.PutUint32(b[16:20], t.info.lr)
	binary.LittleEndian.PutUint32(b[20:24], t.info.resetReasonReg0)
}

func (t *Tracker) recordReason(regReason Reason) {
	prior := Reason(t.info.lastRebootReason)
	t.reasonData.RegReason = regReason
	if prior != Reason(reasonNotSet) {
		t.reasonData.StoredReason = prior
	} else {
		t.reasonData.StoredReason = regReason
	}
	t.reasonValid = true
}

func (t *Tracker) unexpectedRebootOccurred() bool {
	if t.reasonData.StoredReason != Reason(reasonNotSet) && t.reasonData.StoredReason.IsError() {
		return true
	}
	return t.reasonData.RegReason.IsError()
}

func (t *Tracker) recordRebootEvent(reason Reason, reg *RegInfo) {
	t.recordReason(reason)

	if t.info.lastRebootReason != reasonNotSet {
		// Already tracking a reboot in this crash loop: keep the
		// first cause, don't overwrite it.
		return
	}
	t.info.lastRebootReason = uint32(reason)
	if reg != nil {
		t.info.pc = reg.PC
		t.info.lr = reg.LR
	}
	t.persist()
}

// Boot records this boot's reboot reason and register state, bumping the
// crash count if the reboot is classified unexpected. regReg0 is the raw
// platform reset-reason register value, if available.
func (t *Tracker) Boot(resetReason Reason, regReg0 uint32) {
	t.info.resetReasonReg0 = regReg0
	t.recordRebootEvent(resetReason, nil)

	if t.unexpectedRebootOccurred() {
		// REDESIGN FLAG: the original crash_count field is a uint8
		// that silently wraps past 255; this port saturates instead
		// so a long crash loop doesn't cycle back through 0 and look
		// like a freshly booted device.
		if t.info.crashCount < 255 {
			t.info.crashCount++
		}
	}
	t.persist()
}

// MarkResetImminent records a reboot reason ahead of a deliberate reset
// (e.g. right before rebooting after an assert), along with any captured
// register state.
func (t *Tracker) MarkResetImminent(reason Reason, reg *RegInfo) {
	t.recordRebootEvent(reason, reg)
}

// ReadResetInfo reports the latched reboot reason from the current crash
// loop, if any.
func (t *Tracker) ReadResetInfo() (ResetInfo, bool) {
	if t.info.lastRebootReason == reasonNotSet && t.info.resetReasonReg0 == 0 {
		return ResetInfo{}, false
	}
	return ResetInfo{
		Reason:          Reason(t.info.lastRebootReason),
		PC:              t.info.pc,
		LR:              t.info.lr,
		ResetReasonReg0: t.info.resetReasonReg0,
		CoredumpSaved:   t.info.coredumpSaved == 1,
	}, true
}

// ResetCrashCount zeroes the crash-loop counter, called once a coredump
// or reboot event for the loop has been collected.
func (t *Tracker) ResetCrashCount() {
	t.info.crashCount = 0
	t.persist()
}

// CrashCount returns the current crash-loop counter.
func (t *Tracker) CrashCount() uint8 {
	return t.info.crashCount
}

// ClearResetInfo clears the latched reason for the current crash loop,
// called once the reboot event has been read out and transmitted.
func (t *Tracker) ClearResetInfo() {
	t.info.lastRebootReason = reasonNotSet
	t.info.coredumpSaved = 0
	t.info.pc = 0
	t.info.lr = 0
	t.info.resetReasonReg0 = 0
	t.persist()
}

// MarkCoredumpSaved records that a coredump was saved for the current
// boot's crash, so metrics on the next boot can report it.
func (t *Tracker) MarkCoredumpSaved() {
	t.info.coredumpSaved = 1
	t.persist()
}

// GetRebootReason returns the dual reg/stored reason captured this boot,
// if Boot or MarkResetImminent has run.
func (t *Tracker) GetRebootReason() (ReasonData, bool) {
	if !t.reasonValid {
		return ReasonData{}, false
	}
	return t.reasonData, true
}

// UnexpectedRebootOccurred reports whether this boot's reason classifies
// as unexpected.
func (t *Tracker) UnexpectedRebootOccurred() (bool, bool) {
	if !t.reasonValid {
		return false, false
	}
	return t.unexpectedRebootOccurred(), true
}

// ClearRebootReason discards the in-memory (non-persisted) reason data,
// used once the metrics subsystem has consumed it for this boot.
func (t *Tracker) ClearRebootReason() {
	t.reasonData = ReasonData{}
	t.reasonValid = false
}
