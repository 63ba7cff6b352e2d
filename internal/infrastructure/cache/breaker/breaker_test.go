package breaker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(clock *fakeClock) *Breaker {
	return New(Settings{
		FailureThreshold: 3,
		Window:           time.Minute,
		Cooldown:         10 * time.Second,
		MaxCooldown:      35 * time.Second,
		Multiplier:       2,
		Now:              clock.Now,
	})
}

func fail(t *testing.T, b *Breaker) {
	t.Helper()
	tk, ok := b.Allow()
	require.True(t, ok)
	b.Report(tk, false)
}

func TestTripsAfterThreshold(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)

	fail(t, b)
	fail(t, b)
	assert.Equal(t, StateClosed, b.State())

	fail(t, b)
	assert.Equal(t, StateOpen, b.State())

	_, ok := b.Allow()
	assert.False(t, ok)
}

func TestFailuresOutsideWindowDoNotTrip(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)

	fail(t, b)
	fail(t, b)
	clock.Advance(61 * time.Second)
	fail(t, b)

	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 1, b.Snapshot().Failures)
}

func TestHalfOpenAdmitsSingleTrial(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)
	for i := 0; i < 3; i++ {
		fail(t, b)
	}

	clock.Advance(9 * time.Second)
	_, ok := b.Allow()
	assert.False(t, ok)

	clock.Advance(time.Second)
	assert.Equal(t, StateHalfOpen, b.State())

	var admitted int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := b.Allow(); ok {
				atomic.AddInt32(&admitted, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), admitted)
}

func TestTrialSuccessCloses(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)
	for i := 0; i < 3; i++ {
		fail(t, b)
	}
	clock.Advance(10 * time.Second)

	tk, ok := b.Allow()
	require.True(t, ok)
	b.Report(tk, true)

	snap := b.Snapshot()
	assert.Equal(t, StateClosed, snap.State)
	assert.Equal(t, 0, snap.Failures)
	assert.Equal(t, 10*time.Second, snap.Cooldown)
}

func TestTrialFailureBacksOffWithCap(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)
	for i := 0; i < 3; i++ {
		fail(t, b)
	}

	expected := []time.Duration{20 * time.Second, 35 * time.Second, 35 * time.Second}
	cooldown := 10 * time.Second
	for _, want := range expected {
		clock.Advance(cooldown)
		tk, ok := b.Allow()
		require.True(t, ok)
		b.Report(tk, false)

		snap := b.Snapshot()
		assert.Equal(t, StateOpen, snap.State)
		assert.Equal(t, want, snap.Cooldown)
		cooldown = want
	}
}

func TestReleaseFreesTrialSlot(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)
	for i := 0; i < 3; i++ {
		fail(t, b)
	}
	clock.Advance(10 * time.Second)

	tk, ok := b.Allow()
	require.True(t, ok)
	_, ok = b.Allow()
	assert.False(t, ok)

	b.Release(tk)
	_, ok = b.Allow()
	assert.True(t, ok)
}

func TestStaleTicketsCannotDoubleTrip(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)

	tickets := make([]Ticket, 6)
	for i := range tickets {
		tk, ok := b.Allow()
		require.True(t, ok)
		tickets[i] = tk
	}
	for _, tk := range tickets {
		b.Report(tk, false)
	}

	snap := b.Snapshot()
	assert.Equal(t, StateOpen, snap.State)
	assert.Equal(t, 10*time.Second, snap.Cooldown)
}

func TestSuccessInClosedKeepsWindow(t *testing.T) {
	clock := newFakeClock()
	b := newTestBreaker(clock)

	fail(t, b)
	tk, _ := b.Allow()
	b.Report(tk, true)
	fail(t, b)

	assert.Equal(t, 2, b.Snapshot().Failures)
}

func TestOnStateChange(t *testing.T) {
	clock := newFakeClock()
	var got []string
	b := New(Settings{
		FailureThreshold: 1,
		Cooldown:         time.Second,
		Now:              clock.Now,
		OnStateChange: func(_ string, from, to State) {
			got = append(got, from.String()+"->"+to.String())
		},
	})

	fail(t, b)
	clock.Advance(time.Second)
	tk, ok := b.Allow()
	require.True(t, ok)
	b.Report(tk, true)

	assert.Equal(t, []string{"closed->open", "open->half_open", "half_open->closed"}, got)
}
