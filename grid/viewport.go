package grid

// Window is an inclusive range of row indices.
type Window struct {
	Start int
	Stop  int
}

// Contains reports whether row lies inside w.
func (w Window) Contains(row int) bool {
	return row >= w.Start && row <= w.Stop
}

// Len is the number of rows in w; an empty window has Stop < Start.
func (w Window) Len() int {
	return max(w.Stop-w.Start+1, 0)
}

// DefaultOverscan is the number of rows rendered beyond each visible edge.
const DefaultOverscan = 10

// Viewport tracks the scroll position over the virtual row space and
// answers which rows are visible.
type Viewport struct {
	overscan int
	layout   Layout
	offset   int

	resetKey any
	keyed    bool
}

// NewViewport returns an unmeasured viewport. Negative overscan means none.
func NewViewport(overscan int) *Viewport {
	return &Viewport{overscan: max(overscan, 0)}
}

// Layout returns the current geometry.
func (v *Viewport) Layout() Layout { return v.layout }

// Offset is the scroll position in layout units from the top of row 0.
func (v *Viewport) Offset() int { return v.offset }

// Resize installs a new geometry. When the container size changes, the
// view re-anchors with the center row at the top.
func (v *Viewport) Resize(l Layout) {
	sizeChanged := l.Width != v.layout.Width || l.Height != v.layout.Height
	v.layout = l
	if sizeChanged && l.Measured() {
		v.scrollToStart(CenterIndex)
		return
	}
	v.offset = v.clamp(v.offset)
}

// Reset scrolls the center row to the top when key differs from the key
// of the previous call. Keys must be comparable. It reports whether a
// reset happened.
func (v *Viewport) Reset(key any) bool {
	if v.keyed && v.resetKey == key {
		return false
	}
	v.resetKey = key
	v.keyed = true
	v.scrollToStart(CenterIndex)
	return true
}

// JumpToToday centers the today row in the view.
func (v *Viewport) JumpToToday() {
	h := v.layout.RowHeight
	v.offset = v.clamp(CenterIndex*h - (v.layout.Height-h)/2)
}

// ScrollBy moves the view by delta layout units.
func (v *Viewport) ScrollBy(delta int) {
	v.offset = v.clamp(v.offset + delta)
}

// ScrollRows moves the view by n whole rows.
func (v *Viewport) ScrollRows(n int) {
	v.ScrollBy(n * v.layout.RowHeight)
}

// ScrollPage moves the view by n screen heights.
func (v *Viewport) ScrollPage(n int) {
	v.ScrollBy(n * v.layout.Height)
}

// Visible returns the rows intersecting the view. ok is false until the
// viewport has been measured.
func (v *Viewport) Visible() (w Window, ok bool) {
	h := v.layout.RowHeight
	if !v.layout.Measured() || h <= 0 {
		return Window{Start: 0, Stop: -1}, false
	}
	start := v.offset / h
	stop := (v.offset + v.layout.Height - 1) / h
	return Window{Start: start, Stop: min(stop, RowCount-1)}, true
}

// Window returns the visible rows widened by the overscan margin.
func (v *Viewport) Window() Window {
	w, ok := v.Visible()
	if !ok {
		return w
	}
	return Window{
		Start: max(w.Start-v.overscan, 0),
		Stop:  min(w.Stop+v.overscan, RowCount-1),
	}
}

// TodayVisible reports whether the center row is within the visible range.
func (v *Viewport) TodayVisible() bool {
	w, ok := v.Visible()
	return ok && w.Contains(CenterIndex)
}

// RowTop is the y position of row relative to the top of the view.
func (v *Viewport) RowTop(row int) int {
	return row*v.layout.RowHeight - v.offset
}

// HitTest maps a point in view coordinates, x measured from the left edge
// of the row, to the block under it.
func (v *Viewport) HitTest(x, y int) (BlockKey, bool) {
	l := v.layout
	if !l.Measured() || l.RowHeight <= 0 || y < 0 || y >= l.Height {
		return BlockKey{}, false
	}
	abs := v.offset + y
	row := abs / l.RowHeight
	within := abs - row*l.RowHeight
	if row >= RowCount || within < l.Label || within >= l.Label+l.BoxHeight {
		return BlockKey{}, false
	}
	col, ok := l.ColumnAt(x)
	if !ok {
		return BlockKey{}, false
	}
	return BlockKey{Row: row, Hour: col}, true
}

func (v *Viewport) scrollToStart(row int) {
	v.offset = v.clamp(row * v.layout.RowHeight)
}

func (v *Viewport) clamp(offset int) int {
	limit := max(RowCount*v.layout.RowHeight-v.layout.Height, 0)
	return min(max(offset, 0), limit)
}
