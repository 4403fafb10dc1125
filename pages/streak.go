package pages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"blocks.codes/tui/grid"
	"blocks.codes/tui/store"
)

const (
	countdownInterval = time.Second
	statusTimeout     = 3 * time.Second

	// streakHeaderLines is the habit header plus a blank line above the grid.
	streakHeaderLines = 2
)

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

type streakLoadedMsg struct {
	habit store.Habit
	state *grid.State
}

type streakLoadFailedMsg struct {
	habit store.Habit
	err   error
}

type blockSavedMsg struct {
	habitID int64
	toggled grid.Toggled
}

type blockSaveFailedMsg struct {
	habitID int64
	toggled grid.Toggled
	err     error
}

// countdownTickMsg refreshes the countdown of row for the mount gen.
type countdownTickMsg struct {
	row int
	gen uint64
}

type streakStatusClearMsg struct {
	version int
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func loadStreakCmd(streaks *store.Streaks, h store.Habit) tea.Cmd {
	return func() tea.Msg {
		st, err := streaks.State(context.Background(), h.ID)
		if err != nil {
			return streakLoadFailedMsg{habit: h, err: err}
		}
		return streakLoadedMsg{habit: h, state: st}
	}
}

func saveBlockCmd(streaks *store.Streaks, habitID int64, t grid.Toggled) tea.Cmd {
	return func() tea.Msg {
		if err := streaks.Save(context.Background(), habitID, t); err != nil {
			return blockSaveFailedMsg{habitID: habitID, toggled: t, err: err}
		}
		return blockSavedMsg{habitID: habitID, toggled: t}
	}
}

func countdownTickCmd(c grid.Countdown) tea.Cmd {
	return tea.Tick(countdownInterval, func(time.Time) tea.Msg {
		return countdownTickMsg{row: c.Row, gen: c.Gen}
	})
}

// ---------------------------------------------------------------------------
// Key map
// ---------------------------------------------------------------------------

type streakKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Left     key.Binding
	Right    key.Binding
	Toggle   key.Binding
	Check    key.Binding
	Today    key.Binding
	Debug    key.Binding
	HourUp   key.Binding
	HourDown key.Binding
	DayUp    key.Binding
	DayDown  key.Binding
}

var streakKeys = streakKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "earlier"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "later"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "page down"),
	),
	Left: key.NewBinding(
		key.WithKeys("h"),
		key.WithHelp("h/l", "hour"),
	),
	Right: key.NewBinding(
		key.WithKeys("l"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "space"),
		key.WithHelp("space", "toggle"),
	),
	Check: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "check now"),
	),
	Today: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "today"),
	),
	Debug: key.NewBinding(
		key.WithKeys("ctrl+o"),
		key.WithHelp("ctrl+o", "time override"),
	),
	HourUp: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+/-", "hour"),
	),
	HourDown: key.NewBinding(
		key.WithKeys("-"),
	),
	DayUp: key.NewBinding(
		key.WithKeys(">"),
		key.WithHelp("</>", "day"),
	),
	DayDown: key.NewBinding(
		key.WithKeys("<"),
	),
}

// ---------------------------------------------------------------------------
// StreakPage
// ---------------------------------------------------------------------------

var (
	habitHeaderStyle = lipgloss.NewStyle().Bold(true)
	todayBadgeStyle  = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color(ctaColor)).
				Bold(true).
				Padding(0, 1)
	debugBadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color(debugColor)).
			Padding(0, 1)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	dateLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(labelColor)).Bold(true)
	todayLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ctaColor)).Bold(true)
)

// StreakPage hosts the infinite hour grid for the selected habit.
type StreakPage struct {
	grid    *grid.Grid
	clock   *grid.DebugClock
	streaks *store.Streaks
	log     *slog.Logger

	habit    store.Habit
	hasHabit bool
	loading  bool
	// Countdowns only run while the page is shown.
	active bool

	frame grid.Frame
	// Hour under the keyboard cursor on today's row.
	cursor int
	// Ticks for countdowns started outside Update, e.g. by SetSize.
	deferred []tea.Cmd

	status        string
	statusVersion int

	width  int
	height int
}

// NewStreakPage creates the grid page. The clock doubles as the debug
// override target.
func NewStreakPage(streaks *store.Streaks, clock *grid.DebugClock, cfg grid.Config, logger *slog.Logger) *StreakPage {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &StreakPage{
		grid:    grid.New(cfg, clock),
		clock:   clock,
		streaks: streaks,
		log:     logger,
		cursor:  clock.Now().Hour(),
	}
}

func (p *StreakPage) ID() PageID {
	return GridPageID
}

func (p *StreakPage) Title() Title {
	return Title{
		Text:  "Grid",
		Color: lipgloss.Color(ctaColor),
	}
}

func (p *StreakPage) CapturesNavigation() bool { return false }
func (p *StreakPage) CapturesGlobalKeys() bool { return false }

func (p *StreakPage) SetSize(width, height int) {
	p.width = width
	p.height = height

	gridWidth := max(width-DocStyle.GetHorizontalFrameSize(), 0)
	gridHeight := max(height-DocStyle.GetVerticalFrameSize()-chromeLines-streakHeaderLines, 0)
	p.grid.Resize(gridWidth, gridHeight)
	if cmd := p.refresh(); cmd != nil {
		p.deferred = append(p.deferred, cmd)
	}
}

// Habit returns the habit currently shown.
func (p *StreakPage) Habit() (store.Habit, bool) {
	return p.habit, p.hasHabit
}

// Frame returns the last render pass.
func (p *StreakPage) Frame() grid.Frame {
	return p.frame
}

// Activate remounts the countdowns released by Deactivate.
func (p *StreakPage) Activate() tea.Cmd {
	p.active = true
	return p.refresh()
}

// Deactivate cancels every countdown while the page is hidden.
func (p *StreakPage) Deactivate() {
	p.active = false
	p.grid.Timers().StopAll()
}

// refresh runs a render pass and schedules ticks for newly mounted
// countdowns. Hidden pages skip the pass; Activate runs it on return.
func (p *StreakPage) refresh() tea.Cmd {
	if !p.active {
		return nil
	}
	p.frame = p.grid.Frame()
	if len(p.frame.Started) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, len(p.frame.Started))
	for i, c := range p.frame.Started {
		cmds[i] = countdownTickCmd(c)
	}
	return tea.Batch(cmds...)
}

func (p *StreakPage) setStatus(s string) tea.Cmd {
	p.status = s
	p.statusVersion++
	version := p.statusVersion
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return streakStatusClearMsg{version: version}
	})
}

func (p *StreakPage) Update(msg tea.Msg) (Page, tea.Cmd) {
	cmds := p.deferred
	p.deferred = nil

	switch msg := msg.(type) {
	case HabitSelectedMsg:
		p.habit = msg.Habit
		p.hasHabit = true
		p.loading = true
		cmds = append(cmds, loadStreakCmd(p.streaks, msg.Habit))

	case HabitRenamedMsg:
		if p.hasHabit && p.habit.ID == msg.Habit.ID {
			p.habit = msg.Habit
		}

	case HabitDeletedMsg:
		if p.hasHabit && p.habit.ID == msg.ID {
			p.habit = store.Habit{}
			p.hasHabit = false
			p.loading = false
			p.grid.Unbind()
			cmds = append(cmds, p.refresh())
		}

	case streakLoadedMsg:
		// A newer selection supersedes this load.
		if !p.hasHabit || msg.habit.ID != p.habit.ID {
			break
		}
		p.loading = false
		st := msg.state
		p.grid.Bind(grid.Binding{
			View:     st.Snapshot,
			Set:      func(fn grid.UpdateFunc) { st.Update(fn) },
			ResetKey: msg.habit.ID,
		})
		p.cursor = p.clock.Now().Hour()
		cmds = append(cmds, p.refresh())

	case streakLoadFailedMsg:
		if p.hasHabit && msg.habit.ID == p.habit.ID {
			p.loading = false
		}
		p.log.Error("load streak", "habit", msg.habit.ID, "err", msg.err)
		cmds = append(cmds, p.setStatus(fmt.Sprintf("load failed: %v", msg.err)))

	case blockSavedMsg:
		p.log.Debug("block saved", "habit", msg.habitID, "key", msg.toggled.Key.String(), "checked", msg.toggled.Checked)

	case blockSaveFailedMsg:
		// Revert optimistic update
		p.streaks.Revert(msg.habitID, msg.toggled)
		p.log.Error("save block", "habit", msg.habitID, "key", msg.toggled.Key.String(), "err", msg.err)
		cmds = append(cmds, p.refresh(), p.setStatus(fmt.Sprintf("save failed: %v", msg.err)))

	case countdownTickMsg:
		if p.grid.Tick(msg.row, msg.gen) {
			cmds = append(cmds, p.refresh(), countdownTickCmd(grid.Countdown{Row: msg.row, Gen: msg.gen}))
		}

	case streakStatusClearMsg:
		if msg.version == p.statusVersion {
			p.status = ""
		}

	case tea.WindowSizeMsg:
		// SetSize already ran; deferred ticks are flushed above.

	case tea.MouseMsg:
		cmds = append(cmds, p.handleMouse(msg))

	case tea.KeyMsg:
		cmds = append(cmds, p.handleKey(msg))
	}

	return p, tea.Batch(cmds...)
}

func (p *StreakPage) handleKey(msg tea.KeyMsg) tea.Cmd {
	vp := p.grid.Viewport()

	switch {
	case key.Matches(msg, streakKeys.Up):
		vp.ScrollRows(-1)
	case key.Matches(msg, streakKeys.Down):
		vp.ScrollRows(1)
	case key.Matches(msg, streakKeys.PageUp):
		vp.ScrollPage(-1)
	case key.Matches(msg, streakKeys.PageDown):
		vp.ScrollPage(1)
	case key.Matches(msg, streakKeys.Today):
		vp.JumpToToday()

	case key.Matches(msg, streakKeys.Left):
		p.cursor = max(p.cursor-1, 0)
	case key.Matches(msg, streakKeys.Right):
		p.cursor = min(p.cursor+1, grid.Columns-1)

	case key.Matches(msg, streakKeys.Toggle):
		return p.toggle(grid.BlockKey{Row: grid.CenterIndex, Hour: p.cursor})
	case key.Matches(msg, streakKeys.Check):
		return p.toggle(grid.UnlockedKey(p.clock.Now()))

	case key.Matches(msg, streakKeys.Debug):
		active := p.clock.Toggle()
		p.cursor = p.clock.Now().Hour()
		p.log.Info("time override", "active", active, "at", p.clock.Now())
	case key.Matches(msg, streakKeys.HourUp):
		p.shiftOverride(func() { p.clock.Shift(time.Hour) })
	case key.Matches(msg, streakKeys.HourDown):
		p.shiftOverride(func() { p.clock.Shift(-time.Hour) })
	case key.Matches(msg, streakKeys.DayUp):
		p.shiftOverride(func() { p.clock.ShiftDays(1) })
	case key.Matches(msg, streakKeys.DayDown):
		p.shiftOverride(func() { p.clock.ShiftDays(-1) })

	default:
		return nil
	}
	return p.refresh()
}

func (p *StreakPage) shiftOverride(shift func()) {
	if !p.clock.Overridden() {
		return
	}
	shift()
	p.cursor = p.clock.Now().Hour()
}

func (p *StreakPage) handleMouse(msg tea.MouseMsg) tea.Cmd {
	vp := p.grid.Viewport()
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		vp.ScrollRows(-1)
	case msg.Button == tea.MouseButtonWheelDown:
		vp.ScrollRows(1)
	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		x, y := p.gridOrigin()
		k, ok := vp.HitTest(msg.X-x, msg.Y-y)
		if !ok {
			return nil
		}
		return p.toggle(k)
	default:
		return nil
	}
	return p.refresh()
}

// gridOrigin is the screen position of the grid's top-left cell.
func (p *StreakPage) gridOrigin() (x, y int) {
	x, y = ContentOrigin()
	return x, y + streakHeaderLines
}

// toggle applies an optimistic toggle and persists it. Locked cells are
// ignored without feedback.
func (p *StreakPage) toggle(k grid.BlockKey) tea.Cmd {
	if !p.hasHabit || p.loading {
		return nil
	}
	res, ok := p.grid.Toggle(k)
	if !ok {
		return nil
	}
	p.cursor = k.Hour
	return tea.Batch(p.refresh(), saveBlockCmd(p.streaks, p.habit.ID, res))
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

func (p *StreakPage) View() string {
	var b strings.Builder
	b.WriteString(p.renderHeader())
	b.WriteString("\n\n")

	switch {
	case !p.hasHabit:
		b.WriteString(hintStyle.Render("Select a habit on the Habits page to open its grid."))
	case p.loading:
		b.WriteString(hintStyle.Render("Loading..."))
	default:
		b.WriteString(p.renderGrid())
	}
	return b.String()
}

func (p *StreakPage) renderHeader() string {
	width := max(p.width-DocStyle.GetHorizontalFrameSize(), 0)

	left := habitHeaderStyle.Render("No habit")
	if p.hasHabit {
		left = habitHeaderStyle.Render(p.habit.Name)
	}
	if p.clock.Overridden() {
		left += " " + debugBadgeStyle.Render("override "+p.clock.Now().Format("Mon Jan 2 15:04"))
	}
	if p.status != "" {
		left += "  " + statusStyle.Render(p.status)
	}

	var right string
	if p.hasHabit && !p.loading && p.frame.Layout.Measured() && !p.frame.TodayVisible {
		right = todayBadgeStyle.Render("t  Today")
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if right == "" || gap < 1 {
		return ansi.Truncate(left, width, ellipsis)
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderGrid draws every row in the frame window and keeps the lines that
// fall inside the viewport.
func (p *StreakPage) renderGrid() string {
	f := p.frame
	l := f.Layout
	if !l.Measured() || len(f.Rows) == 0 {
		return ""
	}

	lines := make([]string, 0, len(f.Rows)*l.RowHeight)
	for _, r := range f.Rows {
		lines = append(lines, p.renderRow(r, l)...)
	}

	start := p.grid.Viewport().Offset() - f.Window.Start*l.RowHeight
	start = min(max(start, 0), len(lines))
	end := min(start+l.Height, len(lines))
	return strings.Join(lines[start:end], "\n")
}

func (p *StreakPage) renderRow(r grid.Row, l grid.Layout) []string {
	lines := make([]string, 0, l.RowHeight)

	label := r.Label
	style := dateLabelStyle
	if r.IsToday {
		label += " · today"
		style = todayLabelStyle
	}
	if l.Label > 0 {
		lines = append(lines, style.Render(ansi.Truncate(label, l.RowWidth, ellipsis)))
		for i := 1; i < l.Label; i++ {
			lines = append(lines, "")
		}
	}

	gap := strings.Repeat(" ", l.Gap)
	mid := l.BoxHeight / 2
	cells := make([]string, grid.Columns)
	for line := 0; line < l.BoxHeight; line++ {
		for i, c := range r.Cells {
			cells[i] = p.renderCell(c, l.BoxSize, line == mid)
		}
		lines = append(lines, strings.Join(cells, gap))
	}

	for i := 0; i < l.Gap; i++ {
		lines = append(lines, "")
	}
	return lines[:min(len(lines), l.RowHeight)]
}

func (p *StreakPage) renderCell(c grid.Cell, width int, middle bool) string {
	var fill lipgloss.TerminalColor
	switch {
	case c.Checked:
		fill = IntensityColor(c.Level)
	case c.Unlocked:
		fill = unlockedFill
	default:
		fill = lockedFill
	}
	fg := lipgloss.Color(ctaColor)
	if c.Checked {
		fg = lipgloss.Color("#FFFFFF")
	}

	var text string
	if middle {
		switch {
		case c.HasCountdown:
			text = grid.FormatCountdown(c.Countdown)
		case c.Key.Row == grid.CenterIndex && c.Key.Hour == p.cursor:
			text = "•"
		}
	}

	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Background(fill).
		Foreground(fg).
		Bold(c.Unlocked).
		Render(ansi.Truncate(text, width, ""))
}

func (p *StreakPage) KeyMap() []key.Binding {
	bindings := []key.Binding{
		streakKeys.Down,
		streakKeys.Up,
		streakKeys.Left,
		streakKeys.Toggle,
		streakKeys.Check,
		streakKeys.Today,
		streakKeys.Debug,
	}
	if p.clock.Overridden() {
		bindings = append(bindings, streakKeys.HourUp, streakKeys.DayUp)
	}
	return bindings
}
