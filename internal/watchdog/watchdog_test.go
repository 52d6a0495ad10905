package watchdog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ ms uint64 }

func (c *fakeClock) Now() (int64, bool)        { return 0, false }
func (c *fakeClock) MonotonicMillis() uint64 { return c.ms }

func TestStartedChannelExpiresAfterTimeout(t *testing.T) {
	clock := &fakeClock{ms: 1000}
	w := New(clock, 500*time.Millisecond, nil)
	w.RegisterChannel("main_loop")
	w.Start("main_loop")

	clock.ms = 1400
	require.Empty(t, w.Bookkeep())

	clock.ms = 1600
	require.Equal(t, []string{"main_loop"}, w.Bookkeep())
}

func TestStoppedChannelNeverExpires(t *testing.T) {
	clock := &fakeClock{ms: 0}
	w := New(clock, 100*time.Millisecond, nil)
	w.RegisterChannel("idle")
	w.Start("idle")
	w.Stop("idle")

	clock.ms = 10000
	require.Empty(t, w.Bookkeep())
}

func TestFeedResetsExpiration(t *testing.T) {
	clock := &fakeClock{ms: 0}
	w := New(clock, 100*time.Millisecond, nil)
	w.RegisterChannel("worker")
	w.Start("worker")

	clock.ms = 90
	w.Feed("worker")

	clock.ms = 150
	require.Empty(t, w.Bookkeep())

	clock.ms = 200
	require.Equal(t, []string{"worker"}, w.Bookkeep())
}

func TestCheckAllInvokesExpiredCallback(t *testing.T) {
	clock := &fakeClock{ms: 0}
	w := New(clock, 100*time.Millisecond, nil)
	w.RegisterChannel("a")
	w.RegisterChannel("b")
	w.Start("a")
	w.Start("b")

	clock.ms = 500

	var expiredCalled []string
	healthyCalled := false
	w.CheckAll(func(channels []string) { expiredCalled = channels }, func() { healthyCalled = true })

	require.ElementsMatch(t, []string{"a", "b"}, expiredCalled)
	require.False(t, healthyCalled)
}

func TestCheckAllInvokesHealthyCallbackWhenNoneExpired(t *testing.T) {
	clock := &fakeClock{ms: 0}
	w := New(clock, 1000*time.Millisecond, nil)
	w.RegisterChannel("a")
	w.Start("a")

	clock.ms = 10

	healthyCalled := false
	w.CheckAll(func([]string) { t.Fatal("should not expire") }, func() { healthyCalled = true })

	require.True(t, healthyCalled)
}

func TestUnregisteredChannelOperationsAreNoOps(t *testing.T) {
	clock := &fakeClock{ms: 0}
	w := New(clock, time.Second, nil)
	w.Start("ghost")
	w.Feed("ghost")
	w.Stop("ghost")
	require.Empty(t, w.Bookkeep())
}

func TestRegisterChannelIsIdempotent(t *testing.T) {
	clock := &fakeClock{ms: 0}
	w := New(clock, time.Second, nil)
	w.RegisterChannel("a")
	w.Start("a")
	w.RegisterChannel("a")
	require.Equal(t, []string{"a"}, w.order)
}
