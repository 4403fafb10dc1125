package grid

import (
	"fmt"
	"time"
)

// Countdown is the live time-to-next-hour readout owned by one mounted row.
// Gen distinguishes successive mounts of the same row so that ticks issued
// for an earlier mount can be recognised and dropped.
type Countdown struct {
	Row       int
	Gen       uint64
	Remaining time.Duration
}

// Timers is the registry of per-row countdowns. A row acquires a countdown
// when it is mounted holding the unlocked cell and releases it when it
// leaves the rendered window.
type Timers struct {
	gen    uint64
	active map[int]*Countdown
}

// NewTimers returns an empty registry.
func NewTimers() *Timers {
	return &Timers{active: make(map[int]*Countdown)}
}

// Start mounts a countdown for row, replacing any existing one.
func (t *Timers) Start(row int, now time.Time) Countdown {
	t.gen++
	c := &Countdown{Row: row, Gen: t.gen, Remaining: UntilNextHour(now)}
	t.active[row] = c
	return *c
}

// Stop releases row's countdown.
func (t *Timers) Stop(row int) {
	delete(t.active, row)
}

// StopAll releases every countdown.
func (t *Timers) StopAll() {
	clear(t.active)
}

// Sync mounts countdowns for rows that lack one and releases those not in
// rows. It returns the newly started countdowns.
func (t *Timers) Sync(rows []int, now time.Time) []Countdown {
	want := make(map[int]struct{}, len(rows))
	for _, r := range rows {
		want[r] = struct{}{}
	}
	for r := range t.active {
		if _, ok := want[r]; !ok {
			delete(t.active, r)
		}
	}
	var started []Countdown
	for _, r := range rows {
		if _, ok := t.active[r]; ok {
			continue
		}
		started = append(started, t.Start(r, now))
	}
	return started
}

// Alive reports whether gen is still the current mount of row.
func (t *Timers) Alive(row int, gen uint64) bool {
	c, ok := t.active[row]
	return ok && c.Gen == gen
}

// Refresh recomputes row's countdown from now.
func (t *Timers) Refresh(row int, now time.Time) bool {
	c, ok := t.active[row]
	if !ok {
		return false
	}
	c.Remaining = UntilNextHour(now)
	return true
}

// RefreshAll recomputes every mounted countdown from now.
func (t *Timers) RefreshAll(now time.Time) {
	for _, c := range t.active {
		c.Remaining = UntilNextHour(now)
	}
}

// Get returns row's current countdown.
func (t *Timers) Get(row int) (Countdown, bool) {
	c, ok := t.active[row]
	if !ok {
		return Countdown{}, false
	}
	return *c, true
}

// Len is the number of mounted countdowns.
func (t *Timers) Len() int { return len(t.active) }

// UntilNextHour is the time from now to the top of the next hour.
func UntilNextHour(now time.Time) time.Duration {
	y, m, d := now.Date()
	next := time.Date(y, m, d, now.Hour()+1, 0, 0, 0, now.Location())
	return next.Sub(now)
}

// FormatCountdown renders d as "m:ss", clamping negatives to zero.
func FormatCountdown(d time.Duration) string {
	secs := max(int(d/time.Second), 0)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
