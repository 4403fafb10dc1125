package grid

import "time"

// IsUnlocked reports whether the cell (row, hour) is interactive at now:
// its row is now's calendar day and its column is now's hour.
func IsUnlocked(row, hour int, now time.Time) bool {
	return IsTodayRow(row, now) && hour == now.Hour()
}

// UnlockedKey is the single cell that IsUnlocked accepts at now.
func UnlockedKey(now time.Time) BlockKey {
	return BlockKey{Row: CenterIndex, Hour: now.Hour()}
}

// ToggleAt toggles key at now if it is unlocked. Locked keys leave prev
// unchanged.
func ToggleAt(prev Blocks, key BlockKey, now time.Time) Blocks {
	if !IsUnlocked(key.Row, key.Hour, now) {
		return prev
	}
	return Toggle(prev, key, now)
}
