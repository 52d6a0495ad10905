// Package metrics implements the heartbeat metrics value store: a
// registry of named unsigned/signed/timer/string values, saturating
// add semantics, and 31-bit-wraparound-aware elapsed-time timers.
//
// Grounded on
// _examples/original_source/observability/ticos-firmware-sdk/components/metrics/src/ticos_metrics.c.
// The original generates its key table, value table, and per-type index
// tables at compile time via X-macros expanding a heartbeat_config.def
// file (kTcsMetricKeyToValueIndex, s_ticos_heartbeat_keys, and friends).
// That code-generation technique has no Go equivalent, so this is a
// runtime registry instead: callers call Register* once at startup and
// get the same stable-order iteration the original's ROM tables gave
// for free.
package metrics

import (
	"fmt"
	"sync"

	"github.com/ticos-sdk/go-ticos/internal/interfaces"
)

// Type tags a registered metric's value kind.
type Type int

const (
	TypeUnsigned Type = iota
	TypeSigned
	TypeTimer
	TypeString
)

func (t Type) String() string {
	switch t {
	case TypeUnsigned:
		return "unsigned"
	case TypeSigned:
		return "signed"
	case TypeTimer:
		return "timer"
	case TypeString:
		return "string"
	default:
		return "unknown"
	}
}

// timerValMax is the point at which the 31-bit elapsed-ms timestamp
// wraps; bit 31 itself is reserved to flag "timer running" in the
// original's packed bitfield. Here the two are kept as separate fields,
// but the modulus still governs wraparound math.
const timerValMax = 0x80000000

var (
	ErrKeyNotFound        = fmt.Errorf("metrics: key not found")
	ErrTypeIncompatible   = fmt.Errorf("metrics: type incompatible with operation")
	ErrBadParam           = fmt.Errorf("metrics: bad parameter")
	ErrAlreadyRegistered  = fmt.Errorf("metrics: key already registered")
	ErrStorageTooSmall    = fmt.Errorf("metrics: storage too small for heartbeat")
)

type registeredKey struct {
	id           string
	typ          Type
	min          int32
	maxStringLen int
}

type valueSlot struct {
	u32          uint32
	i32          int32
	str          string
	timerRunning bool
	startTimeMs  uint32
}

// Registry holds every registered metric key and its current value, in
// the order keys were registered (the stable order the heartbeat array
// is serialized in).
type Registry struct {
	mu     sync.Mutex
	clock  interfaces.Clock
	keys   []registeredKey
	values []valueSlot
	index  map[string]int
}

// NewRegistry creates an empty registry. clock supplies MonotonicMillis
// for timer bookkeeping; it may be nil if no Timer metrics are
// registered.
func NewRegistry(clock interfaces.Clock) *Registry {
	return &Registry{clock: clock, index: make(map[string]int)}
}

func (r *Registry) register(id string, typ Type, min int32, maxStringLen int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.index[id]; exists {
		return ErrAlreadyRegistered
	}
	r.index[id] = len(r.keys)
	r.keys = append(r.keys, registeredKey{id: id, typ: typ, min: min, maxStringLen: maxStringLen})
	r.values = append(r.values, valueSlot{})
	return nil
}

// RegisterUnsigned adds an unsigned-integer metric, initialized to 0.
func (r *Registry) RegisterUnsigned(id string) error {
	return r.register(id, TypeUnsigned, 0, 0)
}

// RegisterSigned adds a signed-integer metric, initialized to 0. min is
// advisory range metadata mirroring the original's cloud-normalization
// hint; it has no effect on wire encoding.
func (r *Registry) RegisterSigned(id string, min int32) error {
	return r.register(id, TypeSigned, min, 0)
}

// RegisterTimer adds a timer metric, initialized to stopped/zero.
func (r *Registry) RegisterTimer(id string) error {
	return r.register(id, TypeTimer, 0, 0)
}

// RegisterString adds a string metric whose values are truncated to
// maxLen bytes (excluding an implicit NUL the original reserves).
func (r *Registry) RegisterString(id string, maxLen int) error {
	if maxLen <= 0 {
		return ErrBadParam
	}
	return r.register(id, TypeString, 0, maxLen)
}

func (r *Registry) find(id string) (int, bool) {
	idx, ok := r.index[id]
	return idx, ok
}

func (r *Registry) findOfType(id string, typ Type) (int, error) {
	idx, ok := r.find(id)
	if !ok {
		return 0, ErrKeyNotFound
	}
	if r.keys[idx].typ != typ {
		return 0, ErrTypeIncompatible
	}
	return idx, nil
}

// SetUnsigned overwrites an unsigned metric's value.
func (r *Registry) SetUnsigned(id string, v uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, err := r.findOfType(id, TypeUnsigned)
	if err != nil {
		return err
	}
	r.values[idx].u32 = v
	return nil
}

// SetSigned overwrites a signed metric's value.
func (r *Registry) SetSigned(id string, v int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, err := r.findOfType(id, TypeSigned)
	if err != nil {
		return err
	}
	r.values[idx].i32 = v
	return nil
}

// SetString overwrites a string metric's value, truncating to the
// registered max length.
func (r *Registry) SetString(id string, v string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, err := r.findOfType(id, TypeString)
	if err != nil {
		return err
	}
	max := r.keys[idx].maxStringLen
	if len(v) > max {
		v = v[:max]
	}
	r.values[idx].str = v
	return nil
}

// Add applies a saturating increment (positive or negative) to an
// Unsigned or Signed metric. Signed addition clips to the int32 range
// via an int64 intermediate; unsigned addition clips to [0, MaxUint32]
// using an overflow-direction check, matching the original's
// prv_find_key_and_add.
func (r *Registry) Add(id string, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.find(id)
	if !ok {
		return ErrKeyNotFound
	}
	switch r.keys[idx].typ {
	case TypeSigned:
		sum := int64(r.values[idx].i32) + delta
		const maxI32 = int64(1<<31 - 1)
		const minI32 = -int64(1 << 31)
		switch {
		case sum > maxI32:
			sum = maxI32
		case sum < minI32:
			sum = minI32
		}
		r.values[idx].i32 = int32(sum)
		return nil
	case TypeUnsigned:
		before := r.values[idx].u32
		after := before + uint32(delta)
		amountPositive := delta > 0
		didIncrease := after > before
		if amountPositive != didIncrease {
			if amountPositive {
				after = ^uint32(0)
			} else {
				after = 0
			}
		}
		r.values[idx].u32 = after
		return nil
	default:
		return ErrTypeIncompatible
	}
}

// ReadUnsigned returns the current value of an Unsigned metric.
func (r *Registry) ReadUnsigned(id string) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, err := r.findOfType(id, TypeUnsigned)
	if err != nil {
		return 0, err
	}
	return r.values[idx].u32, nil
}

// ReadSigned returns the current value of a Signed metric.
func (r *Registry) ReadSigned(id string) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, err := r.findOfType(id, TypeSigned)
	if err != nil {
		return 0, err
	}
	return r.values[idx].i32, nil
}

// ReadString returns the current value of a String metric.
func (r *Registry) ReadString(id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, err := r.findOfType(id, TypeString)
	if err != nil {
		return "", err
	}
	return r.values[idx].str, nil
}

// ReadTimer returns the accumulated elapsed milliseconds of a Timer
// metric (not including time since the last force-update, if running).
func (r *Registry) ReadTimer(id string) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, err := r.findOfType(id, TypeTimer)
	if err != nil {
		return 0, err
	}
	return r.values[idx].u32, nil
}

// elapsedSince31Bit computes the wraparound-aware delta between two
// 31-bit monotonic millisecond timestamps, matching
// prv_update_timer_metric's rollover branch.
func elapsedSince31Bit(start, stop uint32) uint32 {
	if stop >= start {
		return stop - start
	}
	return uint32(timerValMax) - start + stop
}

func (r *Registry) nowMasked() uint32 {
	return uint32(r.clock.MonotonicMillis()) &^ uint32(timerValMax)
}

// TimerStart begins a timer metric's running interval. It is a no-op
// (returning ErrBadParam as "no change") if the timer is already
// running.
func (r *Registry) TimerStart(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, err := r.findOfType(id, TypeTimer)
	if err != nil {
		return err
	}
	slot := &r.values[idx]
	if slot.timerRunning {
		return ErrBadParam
	}
	slot.startTimeMs = r.nowMasked()
	slot.timerRunning = true
	return nil
}

// timerUpdate folds the elapsed time since start (or since the last
// force-update) into the accumulated value. When stop is true the timer
// is left stopped; otherwise it keeps running, resampled from the stop
// instant (used for mid-flight heartbeat serialization so a long-running
// timer's in-progress interval isn't lost).
func (r *Registry) timerUpdate(id string, stop bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, err := r.findOfType(id, TypeTimer)
	if err != nil {
		return err
	}
	slot := &r.values[idx]
	if !slot.timerRunning {
		return nil
	}
	stopTimeMs := r.nowMasked()
	slot.u32 += elapsedSince31Bit(slot.startTimeMs, stopTimeMs)
	if stop {
		slot.timerRunning = false
		slot.startTimeMs = 0
	} else {
		slot.startTimeMs = stopTimeMs
	}
	return nil
}

// TimerStop ends a timer metric's running interval, folding the elapsed
// time into its accumulated value.
func (r *Registry) TimerStop(id string) error {
	return r.timerUpdate(id, true)
}

// ForceUpdateRunningTimers samples every currently-running timer without
// stopping it, matching prv_heartbeat_timer's pre-serialize pass over
// every Timer-typed key.
func (r *Registry) ForceUpdateRunningTimers() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.keys))
	for _, k := range r.keys {
		if k.typ == TypeTimer {
			ids = append(ids, k.id)
		}
	}
	r.mu.Unlock()
	for _, id := range ids {
		_ = r.timerUpdate(id, false)
	}
}

// NumMetrics returns the number of registered metrics.
func (r *Registry) NumMetrics() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

// Value is a point-in-time snapshot of one registered metric.
type Value struct {
	ID       string
	Type     Type
	Unsigned uint32
	Signed   int32
	Str      string
}

// Snapshot returns every registered metric's current value in
// registration order, the order the heartbeat array is serialized in.
func (r *Registry) Snapshot() []Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Value, len(r.keys))
	for i, k := range r.keys {
		out[i] = Value{ID: k.id, Type: k.typ, Unsigned: r.values[i].u32, Signed: r.values[i].i32, Str: r.values[i].str}
	}
	return out
}

// ResetAll zeroes every scalar value and clears every string buffer,
// leaving timer running/stopped state and registration order untouched
// (prv_reset_metrics). Called immediately after a heartbeat snapshot is
// serialized.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.values {
		r.values[i].u32 = 0
		r.values[i].i32 = 0
		r.values[i].str = ""
	}
}

// Iterate calls cb for every registered metric in registration order,
// stopping early if cb returns false.
func (r *Registry) Iterate(cb func(v Value) bool) {
	for _, v := range r.Snapshot() {
		if !cb(v) {
			return
		}
	}
}
