package etherscan

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFakeThrottle(rps float64) (*Throttle, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	th := NewThrottle(rps)
	th.epoch = clock.now
	th.now = clock.Now
	return th, clock
}

func TestThrottleInterval(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, NewThrottle(0).Interval())
	assert.Equal(t, 200*time.Millisecond, NewThrottle(DefaultMaxRequestsPerSecond).Interval())
	assert.Equal(t, 2*time.Millisecond, NewThrottle(500).Interval())
	assert.Equal(t, 400*time.Millisecond, NewThrottle(2.5).Interval())
}

func TestThrottleReserveStaircase(t *testing.T) {
	th, clock := newFakeThrottle(5)

	// first call is never delayed
	slot, wait := th.reserve()
	assert.Equal(t, time.Duration(0), slot)
	assert.Equal(t, time.Duration(0), wait)

	// a burst at the same instant is spread one interval apart
	for i := 1; i <= 4; i++ {
		slot, wait = th.reserve()
		assert.Equal(t, time.Duration(i)*200*time.Millisecond, slot)
		assert.Equal(t, time.Duration(i)*200*time.Millisecond, wait)
	}

	// once the reserved slots have passed the gate is free again
	clock.Advance(2 * time.Second)
	slot, wait = th.reserve()
	assert.Equal(t, 2*time.Second, slot)
	assert.Equal(t, time.Duration(0), wait)

	// a call arriving part way through an interval only waits the remainder
	clock.Advance(50 * time.Millisecond)
	slot, wait = th.reserve()
	assert.Equal(t, 2200*time.Millisecond, slot)
	assert.Equal(t, 150*time.Millisecond, wait)
}

func TestThrottleReserveConcurrentSlotsAreDistinct(t *testing.T) {
	th, _ := newFakeThrottle(10)

	const callers = 200
	slots := make(chan time.Duration, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slot, _ := th.reserve()
			slots <- slot
		}()
	}
	wg.Wait()
	close(slots)

	seen := make(map[time.Duration]bool, callers)
	for slot := range slots {
		require.False(t, seen[slot], "slot %s assigned twice", slot)
		seen[slot] = true
	}
	require.Len(t, seen, callers)

	// the frozen clock means slots form an unbroken staircase
	for i := 0; i < callers; i++ {
		assert.True(t, seen[time.Duration(i)*th.Interval()], "missing slot %d", i)
	}
}

func TestThrottleAcquireSpacesConcurrentCallers(t *testing.T) {
	th := NewThrottle(20)

	const callers = 5
	start := time.Now()

	var mu sync.Mutex
	var dispatched []time.Duration

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			if err := th.Acquire(ctx); err != nil {
				return err
			}
			mu.Lock()
			dispatched = append(dispatched, time.Since(start))
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Len(t, dispatched, callers)

	last := dispatched[0]
	for _, d := range dispatched[1:] {
		if d > last {
			last = d
		}
	}
	assert.GreaterOrEqual(t, last, time.Duration(callers-1)*th.Interval())
}

func TestThrottleAcquireCancelledKeepsSlot(t *testing.T) {
	th := NewThrottle(1)

	require.NoError(t, th.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := th.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// the cancelled caller's slot is not handed out again
	_, wait := th.reserve()
	assert.Greater(t, wait, time.Second)
}

func TestThrottlesAreIndependent(t *testing.T) {
	a := NewThrottle(1)
	b := NewThrottle(1)

	_, wait := a.reserve()
	assert.Zero(t, wait)
	_, wait = b.reserve()
	assert.Zero(t, wait)
}
