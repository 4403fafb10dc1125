package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/linechart/timeserieslinechart"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"blocks.codes/tui/grid"
	"blocks.codes/tui/store"
)

const (
	minTrendDays     = 7
	maxTrendDays     = 90
	defaultTrendDays = 30
	trendChartHeight = 8
)

// DayTotal summarises one calendar day of a habit.
type DayTotal struct {
	Date    time.Time
	Row     int
	Checked int
	// MeanLevel is the average decay level of the day's checks.
	MeanLevel float64
}

// TrendSummary aggregates a run of DayTotals.
type TrendSummary struct {
	Total      int
	PerDay     float64
	Best       DayTotal
	ActiveDays int
	// Streak counts consecutive days with at least one check, ending today
	// or, if today is still empty, yesterday.
	Streak int
}

// DailyTotals counts checks per day for the days ending at now's day,
// oldest first. A check counts on the calendar day of its timestamp, since
// keys are relative to whichever day was today when they were saved.
// Checks without a timestamp are not counted.
func DailyTotals(blocks grid.Blocks, scale grid.Scale, now time.Time, days int) []DayTotal {
	days = max(days, 1)
	first := grid.CenterIndex - (days - 1)
	out := make([]DayTotal, days)
	for i := range out {
		row := first + i
		out[i] = DayTotal{Row: row, Date: grid.DateForRow(row, now)}
	}

	levels := make([]int, days)
	for k, ts := range blocks {
		if ts <= 0 {
			continue
		}
		checkedAt := time.UnixMilli(ts).In(now.Location())
		i := grid.RowForDate(checkedAt, now) - first
		if i < 0 || i >= days {
			continue
		}
		out[i].Checked++
		levels[i] += scale.IntensityMillis(ts, true, out[i].Date, k.Hour)
	}
	for i := range out {
		if out[i].Checked > 0 {
			out[i].MeanLevel = float64(levels[i]) / float64(out[i].Checked)
		}
	}
	return out
}

// Summarize aggregates totals ordered oldest first.
func Summarize(totals []DayTotal) TrendSummary {
	var s TrendSummary
	if len(totals) == 0 {
		return s
	}
	for _, d := range totals {
		s.Total += d.Checked
		if d.Checked > 0 {
			s.ActiveDays++
		}
		if d.Checked > s.Best.Checked {
			s.Best = d
		}
	}
	s.PerDay = float64(s.Total) / float64(len(totals))

	i := len(totals) - 1
	if totals[i].Checked == 0 {
		i--
	}
	for ; i >= 0 && totals[i].Checked > 0; i-- {
		s.Streak++
	}
	return s
}

type trendLoadedMsg struct {
	habit store.Habit
	state *grid.State
}

type trendLoadFailedMsg struct {
	err error
}

type trendKeyMap struct {
	Shorter key.Binding
	Longer  key.Binding
	Refresh key.Binding
}

var trendKeys = trendKeyMap{
	Shorter: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "fewer days"),
	),
	Longer: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "more days"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
}

var trendTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))

// TrendPage charts the checks per day of the selected habit.
type TrendPage struct {
	streaks *store.Streaks
	clock   grid.Clock
	scale   grid.Scale

	habit    store.Habit
	hasHabit bool
	state    *grid.State
	err      error

	days    int
	totals  []DayTotal
	summary TrendSummary
	chart   timeserieslinechart.Model
	table   table.Model

	width  int
	height int
}

// NewTrendPage creates the Trend page.
func NewTrendPage(streaks *store.Streaks, clock grid.Clock, scale grid.Scale) *TrendPage {
	return &TrendPage{
		streaks: streaks,
		clock:   clock,
		scale:   scale,
		days:    defaultTrendDays,
	}
}

func (p *TrendPage) ID() PageID {
	return TrendPageID
}

func (p *TrendPage) Title() Title {
	return Title{
		Text:  "Trend",
		Color: lipgloss.Color("#8B5CF6"),
	}
}

func (p *TrendPage) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.rebuild()
}

// Activate reloads the habit's state each time the page is shown.
func (p *TrendPage) Activate() tea.Cmd {
	if !p.hasHabit {
		return nil
	}
	return p.loadCmd()
}

func (p *TrendPage) loadCmd() tea.Cmd {
	h := p.habit
	return func() tea.Msg {
		st, err := p.streaks.State(context.Background(), h.ID)
		if err != nil {
			return trendLoadFailedMsg{err: err}
		}
		return trendLoadedMsg{habit: h, state: st}
	}
}

func (p *TrendPage) Update(msg tea.Msg) (Page, tea.Cmd) {
	switch msg := msg.(type) {
	case HabitSelectedMsg:
		p.habit = msg.Habit
		p.hasHabit = true
		p.state = nil
		return p, p.loadCmd()

	case HabitRenamedMsg:
		if p.hasHabit && p.habit.ID == msg.Habit.ID {
			p.habit = msg.Habit
		}

	case HabitDeletedMsg:
		if p.hasHabit && p.habit.ID == msg.ID {
			p.habit = store.Habit{}
			p.hasHabit = false
			p.state = nil
			p.rebuild()
		}

	case trendLoadedMsg:
		if p.hasHabit && msg.habit.ID == p.habit.ID {
			p.state = msg.state
			p.err = nil
			p.rebuild()
		}

	case trendLoadFailedMsg:
		p.err = msg.err

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, trendKeys.Shorter):
			p.days = max(p.days-7, minTrendDays)
			p.rebuild()
		case key.Matches(msg, trendKeys.Longer):
			p.days = min(p.days+7, maxTrendDays)
			p.rebuild()
		case key.Matches(msg, trendKeys.Refresh):
			p.rebuild()
		default:
			var cmd tea.Cmd
			p.table, cmd = p.table.Update(msg)
			return p, cmd
		}
	}
	return p, nil
}

// rebuild recomputes totals, the chart and the table.
func (p *TrendPage) rebuild() {
	if p.state == nil {
		p.totals = nil
		p.summary = TrendSummary{}
		return
	}
	now := p.clock.Now()
	p.totals = DailyTotals(p.state.Snapshot(), p.scale, now, p.days)
	p.summary = Summarize(p.totals)
	p.buildChart()
	p.buildTable()
}

func (p *TrendPage) buildChart() {
	chartWidth := max(p.width-DocStyle.GetHorizontalFrameSize()-4, 40)
	p.chart = timeserieslinechart.New(chartWidth, trendChartHeight)
	for _, d := range p.totals {
		p.chart.Push(timeserieslinechart.TimePoint{Time: d.Date, Value: float64(d.Checked)})
	}
	p.chart.DrawBraille()
}

func (p *TrendPage) buildTable() {
	columns := []table.Column{
		{Title: "Day", Width: 14},
		{Title: "Blocks", Width: 7},
		{Title: "Promptness", Width: 11},
	}

	// Most recent first
	rows := make([]table.Row, 0, len(p.totals))
	for i := len(p.totals) - 1; i >= 0; i-- {
		d := p.totals[i]
		prompt := "-"
		if d.Checked > 0 {
			prompt = fmt.Sprintf("%.0f%%", d.MeanLevel)
		}
		rows = append(rows, table.Row{d.Date.Format(grid.DateLabelLayout), fmt.Sprintf("%d", d.Checked), prompt})
	}

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#8B5CF6")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#8B5CF6")).
		Bold(false)

	// title(2) + summary(2) + chart + spacing(2) + header(2)
	fixed := 8 + trendChartHeight + DocStyle.GetVerticalFrameSize() + chromeLines
	p.table = table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(p.height-fixed, 3)),
		table.WithStyles(s),
	)
}

func (p *TrendPage) View() string {
	if !p.hasHabit {
		return hintStyle.Render("Select a habit on the Habits page to see its trend.")
	}
	if p.err != nil {
		return errorStyle.Render(fmt.Sprintf("load failed: %v", p.err))
	}
	if p.state == nil {
		return hintStyle.Render("Loading...")
	}

	var b strings.Builder
	b.WriteString(trendTitleStyle.Render(fmt.Sprintf("%s: last %d days", p.habit.Name, p.days)))
	b.WriteString("\n\n")

	s := p.summary
	best := "-"
	if s.Best.Checked > 0 {
		best = fmt.Sprintf("%s (%d)", s.Best.Date.Format(grid.DateLabelLayout), s.Best.Checked)
	}
	b.WriteString(statusStyle.Render(fmt.Sprintf(
		"total %d · %.1f/day · active %d/%d · streak %d · best %s",
		s.Total, s.PerDay, s.ActiveDays, len(p.totals), s.Streak, best,
	)))
	b.WriteString("\n\n")

	b.WriteString(p.chart.View())
	b.WriteString("\n\n")
	b.WriteString(p.table.View())
	return b.String()
}

func (p *TrendPage) KeyMap() []key.Binding {
	return []key.Binding{
		trendKeys.Shorter,
		trendKeys.Longer,
		trendKeys.Refresh,
	}
}
