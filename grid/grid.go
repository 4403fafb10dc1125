package grid

import "time"

// Config gathers the tunables of a grid.
type Config struct {
	Layout   LayoutConfig
	Scale    Scale
	Overscan int
}

// DefaultConfig returns the browser geometry with the default decay scale.
func DefaultConfig() Config {
	return Config{
		Layout:   DefaultLayoutConfig(),
		Scale:    DefaultScale(),
		Overscan: DefaultOverscan,
	}
}

// Binding connects the grid to state it does not own: a read view of the
// selected habit's blocks, the functional update callback used for every
// write, and a key whose identity change recenters the view.
type Binding struct {
	View     func() Blocks
	Set      func(UpdateFunc)
	ResetKey any
}

// Overrider is implemented by clocks that can be frozen for debugging.
type Overrider interface {
	Overridden() bool
}

// Toggled describes the outcome of an accepted toggle.
type Toggled struct {
	Key        BlockKey
	Checked    bool
	At         int64
	WasChecked bool
	PrevAt     int64
}

// Frame is the result of one render pass.
type Frame struct {
	Now          time.Time
	Layout       Layout
	Visible      Window
	Window       Window
	Rows         []Row
	TodayVisible bool
	// Started lists countdowns mounted by this pass that need a tick
	// scheduled. It is empty while the clock is overridden.
	Started []Countdown
}

// Grid ties the mapper, policy, scorer, renderer and viewport together.
type Grid struct {
	cfg      Config
	clock    Clock
	viewport *Viewport
	timers   *Timers
	binding  Binding
	bound    bool
	frozen   bool
}

// New returns an unbound, unmeasured grid. A nil clock reads the wall clock.
func New(cfg Config, clock Clock) *Grid {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Grid{
		cfg:      cfg,
		clock:    clock,
		viewport: NewViewport(cfg.Overscan),
		timers:   NewTimers(),
	}
}

// Clock returns the grid's time source.
func (g *Grid) Clock() Clock { return g.clock }

// Viewport exposes scrolling and visibility.
func (g *Grid) Viewport() *Viewport { return g.viewport }

// Timers exposes the countdown registry.
func (g *Grid) Timers() *Timers { return g.timers }

// Scale returns the decay scale in use.
func (g *Grid) Scale() Scale { return g.cfg.Scale }

// Bound reports whether a habit's state is attached.
func (g *Grid) Bound() bool { return g.bound }

// Bind attaches b. A new reset key recenters the view and cancels every
// mounted countdown.
func (g *Grid) Bind(b Binding) {
	g.binding = b
	g.bound = b.View != nil && b.Set != nil
	if g.viewport.Reset(b.ResetKey) {
		g.timers.StopAll()
	}
}

// Unbind detaches the current state and cancels every countdown.
func (g *Grid) Unbind() {
	g.binding = Binding{}
	g.bound = false
	g.timers.StopAll()
}

// Resize measures the container and updates the viewport.
func (g *Grid) Resize(width, height int) Layout {
	l := g.cfg.Layout.Measure(width, height)
	g.viewport.Resize(l)
	return l
}

// Frozen reports whether the clock is under a manual override.
func (g *Grid) Frozen() bool {
	o, ok := g.clock.(Overrider)
	return ok && o.Overridden()
}

// Frame runs one render pass. The clock is read once and that instant is
// used for every row.
func (g *Grid) Frame() Frame {
	now := g.clock.Now()
	layout := g.viewport.Layout()
	f := Frame{Now: now, Layout: layout, Visible: Window{Stop: -1}, Window: Window{Stop: -1}}

	if !layout.Measured() || !g.bound {
		g.timers.StopAll()
		return f
	}

	frozen := g.Frozen()
	if frozen != g.frozen {
		// Ticks issued under the previous mode are invalidated by the restart.
		g.timers.StopAll()
		g.frozen = frozen
	}

	f.Visible, _ = g.viewport.Visible()
	f.Window = g.viewport.Window()
	f.TodayVisible = f.Visible.Contains(CenterIndex)

	var mounted []int
	if unlocked := UnlockedKey(now); f.Window.Contains(unlocked.Row) {
		mounted = append(mounted, unlocked.Row)
	}
	started := g.timers.Sync(mounted, now)
	if frozen {
		g.timers.RefreshAll(now)
	} else {
		f.Started = started
	}

	f.Rows = RenderRows(Pass{Now: now, Scale: g.cfg.Scale, Timers: g.timers}, f.Window, g.binding.View())
	return f
}

// Tick refreshes row's countdown for the mount identified by gen. It
// reports false when the row has been released or the clock is frozen,
// in which case no further tick should be scheduled.
func (g *Grid) Tick(row int, gen uint64) bool {
	if g.Frozen() || !g.timers.Alive(row, gen) {
		return false
	}
	return g.timers.Refresh(row, g.clock.Now())
}

// Toggle flips key if it is the unlocked cell, routing the write through
// the bound update callback exactly once. Locked cells are ignored.
func (g *Grid) Toggle(key BlockKey) (Toggled, bool) {
	return g.toggleAt(key, g.clock.Now())
}

// ToggleCurrent toggles the cell for the current hour of today.
func (g *Grid) ToggleCurrent() (Toggled, bool) {
	now := g.clock.Now()
	return g.toggleAt(UnlockedKey(now), now)
}

func (g *Grid) toggleAt(key BlockKey, now time.Time) (Toggled, bool) {
	if !g.bound || !IsUnlocked(key.Row, key.Hour, now) {
		return Toggled{}, false
	}
	res := Toggled{Key: key}
	g.binding.Set(func(prev Blocks) Blocks {
		res.PrevAt, res.WasChecked = prev.Get(key)
		next := ToggleAt(prev, key, now)
		res.At, res.Checked = next.Get(key)
		return next
	})
	return res, true
}
