// Package watchdog implements task-watchdog channel tracking: callers
// mark named channels "started" and "fed" on whatever
// schedule makes sense for their task, and a periodic check classifies
// any channel whose last feed is older than the configured timeout as
// expired.
//
// Grounded on
// _examples/original_source/observability/ticos-firmware-sdk/components/core/src/ticos_task_watchdog.c.
// The original has a fixed, compile-time-sized channel array
// (eTicosTaskWatchdogChannel) since embedded targets can't allocate a
// map; this port uses channel names registered at construction time
// instead, since a Go SDK has no header to generate a fixed channel-id
// enum from. CheckAll/Bookkeep keep
// the original's split: CheckAll drives the expired/healthy callbacks
// (trigger a hardware watchdog reset vs. refresh it), Bookkeep only
// reports expired channels without invoking callbacks, matching
// ticos_task_watchdog_bookkeep's "don't trigger callbacks" contract.
package watchdog

import (
	"sync"
	"time"

	"github.com/ticos-sdk/go-ticos/internal/interfaces"
)

// State mirrors eTicosTaskWatchdogChannelState.
type State int

const (
	StateStopped State = iota
	StateStarted
)

type channelInfo struct {
	state     State
	fedTimeMs uint64
}

// Watchdog tracks every registered channel's last-fed time against a
// shared timeout.
type Watchdog struct {
	mu      sync.Mutex
	clock   interfaces.Clock
	logger  interfaces.Logger
	timeout time.Duration

	channels map[string]*channelInfo
	order    []string
}

// New creates a Watchdog with no channels registered. timeout matches
// TICOS_TASK_WATCHDOG_TIMEOUT_INTERVAL_MS.
func New(clock interfaces.Clock, timeout time.Duration, logger interfaces.Logger) *Watchdog {
	return &Watchdog{clock: clock, timeout: timeout, logger: logger, channels: make(map[string]*channelInfo)}
}

// RegisterChannel adds a named channel in the Stopped state, matching
// the original's zero-initialized g_ticos_task_channel_info entries.
// Registering an already-registered channel is a no-op.
func (w *Watchdog) RegisterChannel(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.channels[name]; exists {
		return
	}
	w.channels[name] = &channelInfo{}
	w.order = append(w.order, name)
}

func (w *Watchdog) nowMs() uint64 {
	return w.clock.MonotonicMillis()
}

// Start marks channel Started and stamps its fed time to now, matching
// ticos_task_watchdog_start.
func (w *Watchdog) Start(channel string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.channels[channel]
	if !ok {
		return
	}
	c.fedTimeMs = w.nowMs()
	c.state = StateStarted
}

// Feed refreshes channel's fed time without changing its state, matching
// ticos_task_watchdog_feed.
func (w *Watchdog) Feed(channel string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.channels[channel]
	if !ok {
		return
	}
	c.fedTimeMs = w.nowMs()
}

// Stop marks channel Stopped, excluding it from expiration checks until
// Start is called again, matching ticos_task_watchdog_stop.
func (w *Watchdog) Stop(channel string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.channels[channel]
	if !ok {
		return
	}
	c.state = StateStopped
}

func (w *Watchdog) expired(c *channelInfo, nowMs uint64) bool {
	if c.state != StateStarted {
		return false
	}
	return (nowMs - c.fedTimeMs) > uint64(w.timeout.Milliseconds())
}

// expiredChannels scans every registered channel in registration order,
// matching prv_ticos_task_watchdog_do_check.
func (w *Watchdog) expiredChannels() []string {
	nowMs := w.nowMs()
	var expired []string
	for _, name := range w.order {
		if w.expired(w.channels[name], nowMs) {
			expired = append(expired, name)
		}
	}
	return expired
}

// CheckAll scans every channel; if any is expired it invokes onExpired
// with the expired channel names (the original's
// TICOS_SOFTWARE_WATCHDOG() panic trigger), otherwise it invokes
// onHealthy (the original's ticos_task_watchdog_platform_refresh_callback,
// e.g. to kick a real hardware watchdog). Either callback may be nil.
func (w *Watchdog) CheckAll(onExpired func(channels []string), onHealthy func()) {
	w.mu.Lock()
	expired := w.expiredChannels()
	w.mu.Unlock()

	if len(expired) > 0 {
		if w.logger != nil {
			w.logger.Errorf("watchdog: %d channel(s) expired: %v", len(expired), expired)
		}
		if onExpired != nil {
			onExpired(expired)
		}
		return
	}
	if onHealthy != nil {
		onHealthy()
	}
}

// Bookkeep updates nothing by itself (the scan is stateless) and never
// invokes a callback; it exists only to mirror
// ticos_task_watchdog_bookkeep's no-side-effect contract for callers
// that want to probe expiration without feeding a hardware watchdog or
// triggering a panic path.
func (w *Watchdog) Bookkeep() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.expiredChannels()
}
