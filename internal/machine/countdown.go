package machine

import (
	"sync"
	"sync/atomic"
	"time"
)

// Countdown is the dual-timer auto-shutoff abstraction: a coarse 1 Hz tick
// line that maintains a display counter, and a precise one-shot line that
// marks expiry.
//
// Both lines run outside the control goroutine and write only scalar state
// (an atomic counter and an atomic flag). They never touch the pin or call
// back into the machine; the control loop drains the expired flag on its
// own tick. The tick line has no shutoff authority.
type Countdown struct {
	remainingMs atomic.Int64
	expired     atomic.Bool

	mu      sync.Mutex
	oneShot *time.Timer
	ticker  *time.Ticker
	done    chan struct{}
}

// NewCountdown creates an idle countdown.
func NewCountdown() *Countdown {
	return &Countdown{}
}

// Start arms both timer lines for the given duration. Any prior lines are
// stopped first, so restarting never leaks or duplicates timers.
func (c *Countdown) Start(d time.Duration) {
	c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.remainingMs.Store(d.Milliseconds())
	c.expired.Store(false)

	c.oneShot = time.AfterFunc(d, func() {
		c.remainingMs.Store(0)
		c.expired.Store(true)
	})

	c.ticker = time.NewTicker(time.Second)
	done := make(chan struct{})
	c.done = done
	go c.run(c.ticker.C, done)
}

func (c *Countdown) run(tick <-chan time.Time, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-tick:
			if v := c.remainingMs.Load(); v >= 1000 {
				c.remainingMs.Store(v - 1000)
			} else {
				c.remainingMs.Store(0)
			}
		}
	}
}

// Stop cancels both lines and clears the display counter. The expired flag
// is left untouched so an expiry that already fired is still drained.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.oneShot != nil {
		c.oneShot.Stop()
		c.oneShot = nil
	}
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
	c.remainingMs.Store(0)
}

// RemainingMs returns the display counter, floored at 0.
func (c *Countdown) RemainingMs() int64 {
	return c.remainingMs.Load()
}

// TakeExpired consumes the one-shot expiry flag. It returns true exactly
// once per expiry.
func (c *Countdown) TakeExpired() bool {
	return c.expired.CompareAndSwap(true, false)
}

// ClearExpired drops a pending expiry without acting on it.
func (c *Countdown) ClearExpired() {
	c.expired.Store(false)
}
