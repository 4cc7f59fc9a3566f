package throttle

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a verification is dropped because the
// caller's cooldown is still active. It is a deliberate drop, not a failure.
var ErrRateLimited = errors.New("verification cooling down, try again shortly")

// DefaultCooldown is the idle period enforced after each verification completes
const DefaultCooldown = 2 * time.Second

// Cooldown gates verification attempts for one client. The cooldown window
// starts when the in-flight attempt is released, not when it was acquired,
// so the spacing between accepted attempts is request duration + cooldown.
type Cooldown struct {
	mu        sync.Mutex
	period    time.Duration
	busy      bool
	coolUntil time.Time
	nowFunc   func() time.Time
}

// NewCooldown creates an idle gate with the given cooldown period
func NewCooldown(period time.Duration) *Cooldown {
	return NewCooldownWithClock(period, time.Now)
}

// NewCooldownWithClock is NewCooldown with an injectable clock
func NewCooldownWithClock(period time.Duration, now func() time.Time) *Cooldown {
	if period < 0 {
		period = 0
	}
	return &Cooldown{period: period, nowFunc: now}
}

// TryAcquire returns false while an attempt is in flight or cooling down.
// Otherwise it marks the gate busy and returns true. Rejected calls are not queued.
func (c *Cooldown) TryAcquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy || c.nowFunc().Before(c.coolUntil) {
		return false
	}
	c.busy = true
	return true
}

// Release ends the in-flight attempt and starts the cooldown window
func (c *Cooldown) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.busy {
		return
	}
	c.busy = false
	c.coolUntil = c.nowFunc().Add(c.period)
}

// Cooling reports whether a new attempt would currently be rejected
func (c *Cooldown) Cooling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy || c.nowFunc().Before(c.coolUntil)
}

// RetryAfter is how long until the gate opens again. It returns the full
// period while an attempt is still in flight.
func (c *Cooldown) RetryAfter() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return c.period
	}
	if d := c.coolUntil.Sub(c.nowFunc()); d > 0 {
		return d
	}
	return 0
}

// idleSince reports when the gate last became usable, or false while it is busy
func (c *Cooldown) idleSince() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return time.Time{}, false
	}
	return c.coolUntil, true
}
