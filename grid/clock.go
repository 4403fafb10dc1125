package grid

import (
	"sync"
	"time"
)

// Clock supplies the "now" reference for every time-dependent computation.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// DebugClock wraps a base clock with an optional manual override. While an
// override is set, Now returns it verbatim and does not advance.
type DebugClock struct {
	mu       sync.Mutex
	base     Clock
	override time.Time
	active   bool
}

// NewDebugClock returns a DebugClock over base. A nil base means the wall clock.
func NewDebugClock(base Clock) *DebugClock {
	if base == nil {
		base = SystemClock{}
	}
	return &DebugClock{base: base}
}

func (c *DebugClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return c.override
	}
	return c.base.Now()
}

// Set installs t as the override.
func (c *DebugClock) Set(t time.Time) {
	c.mu.Lock()
	c.override = t
	c.active = true
	c.mu.Unlock()
}

// Shift moves the override by d. It is a no-op when no override is set.
func (c *DebugClock) Shift(d time.Duration) {
	c.mu.Lock()
	if c.active {
		c.override = c.override.Add(d)
	}
	c.mu.Unlock()
}

// ShiftDays moves the override by n calendar days, keeping the wall time.
func (c *DebugClock) ShiftDays(n int) {
	c.mu.Lock()
	if c.active {
		c.override = c.override.AddDate(0, 0, n)
	}
	c.mu.Unlock()
}

// Clear removes the override.
func (c *DebugClock) Clear() {
	c.mu.Lock()
	c.active = false
	c.override = time.Time{}
	c.mu.Unlock()
}

// Toggle freezes the clock at the base clock's current time, or clears an
// existing override. It reports whether an override is now active.
func (c *DebugClock) Toggle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		c.active = false
		c.override = time.Time{}
		return false
	}
	c.override = c.base.Now()
	c.active = true
	return true
}

// Overridden reports whether a manual override is in effect.
func (c *DebugClock) Overridden() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
