package pages

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blocks.codes/tui/config"
	"blocks.codes/tui/grid"
	"blocks.codes/tui/store"
)

var streakNow = time.Date(2024, 1, 1, 10, 3, 0, 0, time.UTC)

func newTestStreakPage(t *testing.T) (*StreakPage, *store.Streaks, store.Habit) {
	t.Helper()
	st, streaks := openTestStreaks(t)
	h := createHabit(t, st, "Read")

	gc, err := config.ParseGrid(nil)
	require.NoError(t, err)

	clock := grid.NewDebugClock(grid.FixedClock(streakNow))
	p := NewStreakPage(streaks, clock, gc.GridOptions(), nil)
	p.SetSize(160, 50)
	require.Nil(t, p.Activate())
	return p, streaks, h
}

// openHabit selects h and delivers its load result.
func openHabit(t *testing.T, p *StreakPage, streaks *store.Streaks, h store.Habit) {
	t.Helper()
	p.Update(HabitSelectedMsg{Habit: h})
	require.True(t, p.loading)

	msg := loadStreakCmd(streaks, h)()
	require.IsType(t, streakLoadedMsg{}, msg)
	p.Update(msg)
	require.False(t, p.loading)
}

func habitBlocks(t *testing.T, streaks *store.Streaks, id int64) grid.Blocks {
	t.Helper()
	st, err := streaks.State(context.Background(), id)
	require.NoError(t, err)
	return st.Snapshot()
}

func TestStreakPage_NoHabit(t *testing.T) {
	p, _, _ := newTestStreakPage(t)
	assert.Contains(t, p.View(), "Select a habit")

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestStreakPage_RendersSelectedHabit(t *testing.T) {
	p, streaks, h := newTestStreakPage(t)
	openHabit(t, p, streaks, h)

	view := p.View()
	assert.Contains(t, view, "Read")
	assert.Contains(t, view, "Mon, 1/1/2024 · today")
	assert.Contains(t, view, "57:00")
	assert.NotContains(t, view, "Today", "badge hidden while today is visible")
	assert.True(t, p.Frame().TodayVisible)
}

func TestStreakPage_ToggleIgnoredWhileLoading(t *testing.T) {
	p, streaks, h := newTestStreakPage(t)
	p.Update(HabitSelectedMsg{Habit: h})

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, habitBlocks(t, streaks, h.ID))
}

func TestStreakPage_CheckNowIsOptimistic(t *testing.T) {
	p, streaks, h := newTestStreakPage(t)
	openHabit(t, p, streaks, h)

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	key := grid.BlockKey{Row: grid.CenterIndex, Hour: 10}
	at, ok := habitBlocks(t, streaks, h.ID).Get(key)
	require.True(t, ok)
	assert.Equal(t, streakNow.UnixMilli(), at)
}

func TestStreakPage_SaveFailureReverts(t *testing.T) {
	p, streaks, h := newTestStreakPage(t)
	openHabit(t, p, streaks, h)

	p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	key := grid.BlockKey{Row: grid.CenterIndex, Hour: 10}
	require.Contains(t, habitBlocks(t, streaks, h.ID), key)

	p.Update(blockSaveFailedMsg{
		habitID: h.ID,
		toggled: grid.Toggled{Key: key, Checked: true, At: streakNow.UnixMilli()},
		err:     errors.New("disk full"),
	})
	assert.NotContains(t, habitBlocks(t, streaks, h.ID), key)
	assert.Contains(t, p.View(), "save failed: disk full")
}

func TestStreakPage_LockedCellIgnored(t *testing.T) {
	p, streaks, h := newTestStreakPage(t)
	openHabit(t, p, streaks, h)

	// Cursor starts on the current hour; move it back one.
	p.Update(runeKey('h'))
	_, cmd := p.Update(runeKey(' '))
	assert.Nil(t, cmd)
	assert.Empty(t, habitBlocks(t, streaks, h.ID))
}

func TestStreakPage_MouseClickToggles(t *testing.T) {
	p, streaks, h := newTestStreakPage(t)
	openHabit(t, p, streaks, h)

	l := p.Frame().Layout
	require.True(t, l.Measured())
	x0, y0 := p.gridOrigin()
	vp := p.grid.Viewport()
	y := y0 + vp.RowTop(grid.CenterIndex) + l.Label
	x := x0 + 10*(l.BoxSize+l.Gap)

	_, cmd := p.Update(tea.MouseMsg{X: x, Y: y, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	require.NotNil(t, cmd)
	assert.Contains(t, habitBlocks(t, streaks, h.ID), grid.BlockKey{Row: grid.CenterIndex, Hour: 10})

	// Gap column between hours 10 and 11.
	_, cmd = p.Update(tea.MouseMsg{X: x + l.BoxSize, Y: y, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	assert.Nil(t, cmd)
}

func TestStreakPage_ScrollShowsTodayBadge(t *testing.T) {
	p, streaks, h := newTestStreakPage(t)
	openHabit(t, p, streaks, h)

	for range 20 {
		p.Update(runeKey('j'))
	}
	assert.False(t, p.Frame().TodayVisible)
	assert.Contains(t, p.View(), "t  Today")

	p.Update(runeKey('t'))
	assert.True(t, p.Frame().TodayVisible)
}

func TestStreakPage_DebugOverride(t *testing.T) {
	p, streaks, h := newTestStreakPage(t)
	openHabit(t, p, streaks, h)

	// Shifts are ignored until the override is on.
	p.Update(runeKey('+'))
	assert.False(t, p.clock.Overridden())
	assert.Equal(t, streakNow, p.clock.Now())

	p.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	require.True(t, p.clock.Overridden())
	p.Update(runeKey('+'))
	p.Update(runeKey('>'))
	assert.True(t, streakNow.Add(25*time.Hour).Equal(p.clock.Now()))
	assert.Equal(t, 11, p.cursor)
	assert.Contains(t, p.View(), "override")

	p.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	assert.False(t, p.clock.Overridden())
	assert.True(t, streakNow.Equal(p.clock.Now()))
}

func TestStreakPage_HabitDeletedUnbinds(t *testing.T) {
	p, streaks, h := newTestStreakPage(t)
	openHabit(t, p, streaks, h)
	require.True(t, p.grid.Bound())

	p.Update(HabitRenamedMsg{Habit: store.Habit{ID: h.ID, Name: "Write"}})
	assert.Contains(t, p.View(), "Write")

	p.Update(HabitDeletedMsg{ID: h.ID})
	assert.False(t, p.grid.Bound())
	_, ok := p.Habit()
	assert.False(t, ok)
	assert.Contains(t, p.View(), "Select a habit")
}

func TestStreakPage_StaleTickIgnored(t *testing.T) {
	p, streaks, h := newTestStreakPage(t)
	openHabit(t, p, streaks, h)

	_, cmd := p.Update(countdownTickMsg{row: grid.CenterIndex, gen: 1 << 40})
	assert.Nil(t, cmd)
}

func TestStreakPage_DeactivateCancelsCountdown(t *testing.T) {
	p, streaks, h := newTestStreakPage(t)
	openHabit(t, p, streaks, h)
	started := p.Frame().Started
	require.Len(t, started, 1)

	p.Deactivate()
	assert.Zero(t, p.grid.Timers().Len())
	_, cmd := p.Update(countdownTickMsg{row: started[0].Row, gen: started[0].Gen})
	assert.Nil(t, cmd, "tick chain stops while hidden")

	// Results that land while hidden do not remount.
	state, err := streaks.State(context.Background(), h.ID)
	require.NoError(t, err)
	p.Update(streakLoadedMsg{habit: h, state: state})
	assert.Zero(t, p.grid.Timers().Len())

	require.NotNil(t, p.Activate())
	restarted := p.Frame().Started
	require.Len(t, restarted, 1)
	assert.NotEqual(t, started[0].Gen, restarted[0].Gen)
}
