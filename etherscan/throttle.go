package etherscan

import (
	"context"
	"math"
	"sync/atomic"
	"time"
)

const DefaultMaxRequestsPerSecond = 5

const noSlot = math.MinInt64

// Throttle spaces requests at least one interval apart, measured from each
// request's scheduled slot rather than its arrival time.
type Throttle struct {
	interval time.Duration
	epoch    time.Time
	now      func() time.Time

	// last scheduled slot, as nanoseconds since epoch
	last atomic.Int64
}

func NewThrottle(maxRequestsPerSecond float64) *Throttle {
	if maxRequestsPerSecond <= 0 {
		maxRequestsPerSecond = DefaultMaxRequestsPerSecond
	}
	t := &Throttle{
		interval: time.Duration(float64(time.Second) / maxRequestsPerSecond),
		epoch:    time.Now(),
		now:      time.Now,
	}
	t.last.Store(noSlot)
	return t
}

func (t *Throttle) Interval() time.Duration { return t.interval }

// Acquire blocks until the caller's slot is reached. The slot is reserved
// before waiting, so a cancelled wait still consumes it.
func (t *Throttle) Acquire(ctx context.Context) error {
	_, wait := t.reserve()
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reserve claims the next slot and returns it, as an offset from epoch,
// together with how long until it is reached.
func (t *Throttle) reserve() (slot, wait time.Duration) {
	for {
		now := int64(t.now().Sub(t.epoch))
		last := t.last.Load()

		next := now
		if last != noSlot && last+int64(t.interval) > now {
			next = last + int64(t.interval)
		}

		if t.last.CompareAndSwap(last, next) {
			return time.Duration(next), time.Duration(next - now)
		}
	}
}
