package grid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateForRow_OffsetRange(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 3, 0, 0, time.UTC)
	midnight := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for d := -10000; d <= 10000; d++ {
		got := DateForRow(CenterIndex+d, now)
		want := midnight.Add(time.Duration(d) * 24 * time.Hour)
		if !got.Equal(want) {
			t.Fatalf("offset %d: got %s, want %s", d, got, want)
		}
	}
}

func TestDateForRow_Rollover(t *testing.T) {
	tests := []struct {
		name   string
		now    time.Time
		offset int
		want   time.Time
	}{
		{"leap day", time.Date(2024, 2, 28, 12, 0, 0, 0, time.UTC), 1, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"after leap day", time.Date(2024, 2, 28, 12, 0, 0, 0, time.UTC), 2, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"no leap day", time.Date(2023, 2, 28, 23, 59, 0, 0, time.UTC), 1, time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"new year", time.Date(2023, 12, 31, 8, 0, 0, 0, time.UTC), 1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"previous year", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), -1, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"century", time.Date(2000, 3, 1, 0, 0, 0, 0, time.UTC), -1, time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"today truncated", time.Date(2024, 6, 15, 23, 59, 59, 999, time.UTC), 0, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DateForRow(CenterIndex+tt.offset, tt.now)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestRowForDate_Inverse(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for d := -2000; d <= 2000; d += 7 {
		row := CenterIndex + d
		assert.Equal(t, row, RowForDate(DateForRow(row, now), now))
	}
	assert.Equal(t, CenterIndex, RowForDate(now.Add(5*time.Hour), now))
}

func TestDateForRow_DST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, loc)

	next := DateForRow(CenterIndex+1, now)
	assert.Equal(t, 10, next.Day())
	assert.Equal(t, 0, next.Hour())

	after := DateForRow(CenterIndex+2, now)
	assert.Equal(t, 11, after.Day())
	assert.Equal(t, CenterIndex+2, RowForDate(after, now))
}

func TestIsTodayRow(t *testing.T) {
	now := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	require.True(t, IsTodayRow(CenterIndex, now))
	assert.False(t, IsTodayRow(CenterIndex-1, now))
	assert.False(t, IsTodayRow(CenterIndex+1, now))

	// The center row follows the clock across midnight.
	later := now.Add(2 * time.Minute)
	assert.Equal(t, 2, DateForRow(CenterIndex, later).Day())
	assert.True(t, IsTodayRow(CenterIndex, later))
}
