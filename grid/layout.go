package grid

import "math"

// LayoutConfig describes the fixed geometry of a grid row.
type LayoutConfig struct {
	Columns     int
	Gap         int
	LabelHeight int
	FallbackBox int
	// BoxHeightRatio converts a box's width to its height. 1 gives square
	// boxes in pixel units; terminal cells want about 0.5.
	BoxHeightRatio float64
}

// DefaultLayoutConfig matches the browser geometry: 8px gaps, 28px date
// labels and a 40px fallback box.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		Columns:        Columns,
		Gap:            8,
		LabelHeight:    28,
		FallbackBox:    40,
		BoxHeightRatio: 1,
	}
}

// Layout is the measured geometry for one container size.
type Layout struct {
	Width     int
	Height    int
	BoxSize   int
	BoxHeight int
	Gap       int
	Label     int
	RowWidth  int
	RowHeight int
}

// Measured reports whether the container has a usable size.
func (l Layout) Measured() bool {
	return l.Width > 0 && l.Height > 0
}

// TotalGap is the horizontal space taken by the gaps between columns.
func (c LayoutConfig) TotalGap() int {
	return c.Gap * (c.columns() - 1)
}

func (c LayoutConfig) columns() int {
	if c.Columns <= 0 {
		return Columns
	}
	return c.Columns
}

// Measure derives box and row sizes for a container of width × height.
// The box falls back to FallbackBox until the width yields a positive size.
func (c LayoutConfig) Measure(width, height int) Layout {
	cols := c.columns()
	totalGap := c.TotalGap()

	box := 0
	if width > totalGap {
		box = (width - totalGap) / cols
	}
	if box <= 0 {
		box = c.FallbackBox
	}

	ratio := c.BoxHeightRatio
	if ratio <= 0 {
		ratio = 1
	}
	boxHeight := max(int(math.Round(float64(box)*ratio)), 1)

	return Layout{
		Width:     width,
		Height:    height,
		BoxSize:   box,
		BoxHeight: boxHeight,
		Gap:       c.Gap,
		Label:     c.LabelHeight,
		RowWidth:  cols*box + totalGap,
		RowHeight: boxHeight + c.LabelHeight + c.Gap,
	}
}

// ColumnAt maps an x offset within a row to an hour column.
func (l Layout) ColumnAt(x int) (int, bool) {
	if x < 0 || l.BoxSize <= 0 {
		return 0, false
	}
	pitch := l.BoxSize + l.Gap
	col := x / pitch
	if col >= Columns || x-col*pitch >= l.BoxSize {
		return 0, false
	}
	return col, true
}
