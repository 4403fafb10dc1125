// Package grid implements the hourly habit grid: mapping row indices to
// calendar days, gating interaction to the current hour, scoring how
// promptly a block was checked, and windowing an effectively infinite row
// space for rendering.
package grid

import "time"

const (
	// Columns is the number of hour blocks per day.
	Columns = 24

	// RowCount bounds the virtual row space. At one row per day the grid
	// reaches roughly 137 years either side of CenterIndex; rows outside
	// [0, RowCount) are never produced.
	RowCount = 100_000

	// CenterIndex is the row that maps to "today" for any render pass.
	CenterIndex = RowCount / 2
)

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DateForRow returns midnight of the calendar day that is row-CenterIndex
// days away from now's calendar day. It is recomputed from now on every
// call, so the center row follows the wall clock across midnight.
func DateForRow(row int, now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+(row-CenterIndex), 0, 0, 0, 0, now.Location())
}

// RowForDate is the inverse of DateForRow: the row whose calendar day
// matches date's calendar day, relative to now.
func RowForDate(date, now time.Time) int {
	return CenterIndex + civilDays(date) - civilDays(now)
}

// IsTodayRow reports whether row maps to now's calendar day.
func IsTodayRow(row int, now time.Time) bool {
	return DateForRow(row, now).Equal(Midnight(now))
}

// civilDays counts calendar days since the Unix epoch, ignoring the
// wall-clock offset so DST transitions do not skew the count.
func civilDays(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
