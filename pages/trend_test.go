package pages

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blocks.codes/tui/grid"
)

func checkAt(t time.Time) int64 { return t.UnixMilli() }

func TestDailyTotals(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	// Keys are saved relative to the day they were made on, so history
	// from several days shares the center row.
	blocks := grid.Blocks{
		{Row: grid.CenterIndex, Hour: 8}: checkAt(time.Date(2024, 3, 10, 8, 5, 0, 0, time.UTC)),
		{Row: grid.CenterIndex, Hour: 9}: checkAt(time.Date(2024, 3, 9, 9, 15, 0, 0, time.UTC)),
		// Checked late on its own day scores the baseline.
		{Row: grid.CenterIndex, Hour: 3}: checkAt(time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC)),
		// Outside the window.
		{Row: grid.CenterIndex, Hour: 4}: checkAt(time.Date(2024, 2, 1, 4, 0, 0, 0, time.UTC)),
		// Imported without a timestamp.
		{Row: grid.CenterIndex, Hour: 5}: 0,
	}

	totals := DailyTotals(blocks, grid.DefaultScale(), now, 3)
	require.Len(t, totals, 3)

	assert.Equal(t, grid.CenterIndex-2, totals[0].Row)
	assert.Equal(t, 0, totals[0].Checked)
	assert.Zero(t, totals[0].MeanLevel)

	assert.Equal(t, grid.Midnight(yesterday), totals[1].Date)
	assert.Equal(t, 2, totals[1].Checked)
	assert.InDelta(t, 45.0, totals[1].MeanLevel, 0.001)

	assert.Equal(t, grid.Midnight(now), totals[2].Date)
	assert.Equal(t, 1, totals[2].Checked)
	assert.InDelta(t, 100.0, totals[2].MeanLevel, 0.001)

	assert.Equal(t, 2, Summarize(totals).Streak)
}

func TestDailyTotals_AtLeastOneDay(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	totals := DailyTotals(grid.Blocks{}, grid.DefaultScale(), now, 0)
	require.Len(t, totals, 1)
	assert.Equal(t, grid.CenterIndex, totals[0].Row)
}

func TestSummarize(t *testing.T) {
	day := func(n int) DayTotal { return DayTotal{Checked: n} }

	tests := []struct {
		name       string
		totals     []DayTotal
		total      int
		active     int
		streak     int
		bestChecks int
	}{
		{name: "empty"},
		{
			name:       "streak ends today",
			totals:     []DayTotal{day(2), day(0), day(1), day(3)},
			total:      6,
			active:     3,
			streak:     2,
			bestChecks: 3,
		},
		{
			name:       "today still empty",
			totals:     []DayTotal{day(1), day(4), day(0)},
			total:      5,
			active:     2,
			streak:     2,
			bestChecks: 4,
		},
		{
			name:   "broken streak",
			totals: []DayTotal{day(1), day(0), day(0)},
			total:  1, active: 1, streak: 0, bestChecks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.totals)
			assert.Equal(t, tt.total, s.Total)
			assert.Equal(t, tt.active, s.ActiveDays)
			assert.Equal(t, tt.streak, s.Streak)
			assert.Equal(t, tt.bestChecks, s.Best.Checked)
			if len(tt.totals) > 0 {
				assert.InDelta(t, float64(tt.total)/float64(len(tt.totals)), s.PerDay, 0.001)
			}
		})
	}
}

func TestTrendPage_LoadsSelectedHabit(t *testing.T) {
	st, streaks := openTestStreaks(t)
	h := createHabit(t, st, "Run")
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	p := NewTrendPage(streaks, grid.FixedClock(now), grid.DefaultScale())
	p.SetSize(120, 40)
	assert.Contains(t, p.View(), "Select a habit")
	assert.Nil(t, p.Activate())

	_, cmd := p.Update(HabitSelectedMsg{Habit: h})
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, trendLoadedMsg{}, msg)
	p.Update(msg)

	view := p.View()
	assert.Contains(t, view, "Run: last 30 days")
	assert.Contains(t, view, "streak 0")
	assert.Len(t, p.totals, defaultTrendDays)

	p.Update(runeKey('['))
	assert.Equal(t, defaultTrendDays-7, p.days)
	for range 20 {
		p.Update(runeKey('['))
	}
	assert.Equal(t, minTrendDays, p.days)
	assert.Len(t, p.totals, minTrendDays)

	p.Update(HabitDeletedMsg{ID: h.ID})
	assert.Contains(t, p.View(), "Select a habit")
}
