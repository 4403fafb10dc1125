package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"blocks.codes/tui/store"
)

const ellipsis = "…"

/**
 * Message types for habit management
 */

// habitsLoadedMsg contains habits loaded from the store.
type habitsLoadedMsg struct {
	habits []store.Habit
}

// habitsLoadFailedMsg indicates loading habits failed.
type habitsLoadFailedMsg struct {
	err error
}

// habitAddedMsg indicates a habit was successfully added.
type habitAddedMsg struct {
	habit store.Habit
}

// habitAddFailedMsg indicates adding a habit failed.
type habitAddFailedMsg struct {
	err error
}

// habitRenameSavedMsg indicates a rename was persisted.
type habitRenameSavedMsg struct {
	habit store.Habit
}

// habitRenameFailedMsg indicates a rename failed; prev is restored.
type habitRenameFailedMsg struct {
	prev store.Habit
	err  error
}

// habitDeleteSavedMsg indicates a habit and its blocks were removed.
type habitDeleteSavedMsg struct {
	id int64
}

// habitDeleteFailedMsg indicates deleting a habit failed.
type habitDeleteFailedMsg struct {
	id  int64
	err error
}

/**
 * Store commands
 */

func loadHabitsCmd(st *store.Store) tea.Cmd {
	return func() tea.Msg {
		habits, err := st.ListHabits(context.Background())
		if err != nil {
			return habitsLoadFailedMsg{err: err}
		}
		return habitsLoadedMsg{habits: habits}
	}
}

func addHabitCmd(st *store.Store, name string) tea.Cmd {
	return func() tea.Msg {
		h, err := st.CreateHabit(context.Background(), name)
		if err != nil {
			return habitAddFailedMsg{err: err}
		}
		return habitAddedMsg{habit: h}
	}
}

func renameHabitCmd(st *store.Store, prev store.Habit, name string) tea.Cmd {
	return func() tea.Msg {
		h, err := st.RenameHabit(context.Background(), prev.ID, name)
		if err != nil {
			return habitRenameFailedMsg{prev: prev, err: err}
		}
		return habitRenameSavedMsg{habit: h}
	}
}

func deleteHabitCmd(st *store.Store, id int64) tea.Cmd {
	return func() tea.Msg {
		if err := st.DeleteHabit(context.Background(), id); err != nil {
			return habitDeleteFailedMsg{id: id, err: err}
		}
		return habitDeleteSavedMsg{id: id}
	}
}

/**
 * Habit delegate
 */

var (
	openMarkerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ctaColor))
	idleMarkerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// habitDelegate renders one habit per line, marking the one open in the grid.
type habitDelegate struct {
	list.DefaultDelegate
	openID int64
}

func newHabitDelegate() *habitDelegate {
	d := &habitDelegate{DefaultDelegate: list.NewDefaultDelegate()}
	d.ShowDescription = false
	d.SetHeight(1)
	d.SetSpacing(0)
	return d
}

func (d *habitDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	h, ok := item.(store.Habit)
	if !ok {
		return
	}
	if m.Width() <= 0 {
		return
	}

	s := &d.Styles
	textwidth := max(m.Width()-s.NormalTitle.GetPaddingLeft()-s.NormalTitle.GetPaddingRight()-2, 1)
	title := ansi.Truncate(h.Title(), textwidth, ellipsis)

	marker := idleMarkerStyle.Render("○")
	if h.ID == d.openID {
		marker = openMarkerStyle.Render("●")
	}
	title = marker + " " + title

	if index == m.Index() && m.FilterState() != list.Filtering {
		title = s.SelectedTitle.Render(title)
	} else {
		title = s.NormalTitle.Render(title)
	}
	fmt.Fprint(w, title)
}

/**
 * HabitsPage implements the Page interface
 */

type habitsMode int

const (
	habitsModeList habitsMode = iota
	habitsModeAdd
	habitsModeRename
	habitsModeConfirmDelete
)

type habitsKeyMap struct {
	Add    key.Binding
	Rename key.Binding
	Delete key.Binding
	Open   key.Binding
}

var habitsKeys = habitsKeyMap{
	Add: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add"),
	),
	Rename: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "rename"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open grid"),
	),
}

// HabitsPage lists habits and manages their lifecycle.
type HabitsPage struct {
	list     list.Model
	delegate *habitDelegate
	store    *store.Store
	streaks  *store.Streaks
	mode     habitsMode

	nameInput textinput.Model
	inputErr  error

	// Target of a rename or delete in progress.
	pending store.Habit

	width  int
	height int
}

// NewHabitsPage creates and initializes the Habits page.
func NewHabitsPage(st *store.Store, streaks *store.Streaks) *HabitsPage {
	delegate := newHabitDelegate()
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Habits"
	l.SetShowHelp(false)
	l.SetStatusBarItemName("habit", "habits")
	// "d" deletes here, so it must not page the list.
	l.KeyMap.NextPage = key.NewBinding(key.WithKeys("pgdown", "f"), key.WithHelp("f/pgdn", "next page"))
	l.KeyMap.PrevPage = key.NewBinding(key.WithKeys("pgup", "b"), key.WithHelp("b/pgup", "prev page"))
	l.KeyMap.Quit.SetEnabled(false)

	ti := textinput.New()
	ti.Placeholder = "Habit name..."
	ti.CharLimit = store.MaxNameLength

	return &HabitsPage{
		list:      l,
		delegate:  delegate,
		store:     st,
		streaks:   streaks,
		mode:      habitsModeList,
		nameInput: ti,
	}
}

func (p *HabitsPage) ID() PageID {
	return HabitsPageID
}

func (p *HabitsPage) Title() Title {
	return Title{
		Text:  "Habits",
		Color: lipgloss.Color("#FF6B6B"),
	}
}

// CapturesNavigation returns true while a name is being typed or the list
// filter is open.
func (p *HabitsPage) CapturesNavigation() bool {
	return p.mode != habitsModeList || p.list.SettingFilter()
}

func (p *HabitsPage) CapturesGlobalKeys() bool {
	return p.CapturesNavigation()
}

func (p *HabitsPage) SetSize(width, height int) {
	p.width = width
	p.height = height
	contentWidth := max(width-DocStyle.GetHorizontalFrameSize(), 0)
	contentHeight := max(height-DocStyle.GetVerticalFrameSize()-chromeLines, 0)
	p.list.SetWidth(contentWidth)
	p.list.SetHeight(contentHeight)
	p.nameInput.Width = max(contentWidth-4, 0)
}

// InitCmd loads habits from the store.
func (p *HabitsPage) InitCmd() tea.Cmd {
	return loadHabitsCmd(p.store)
}

// Habits returns the listed habits in order.
func (p *HabitsPage) Habits() []store.Habit {
	items := p.list.Items()
	out := make([]store.Habit, 0, len(items))
	for _, item := range items {
		if h, ok := item.(store.Habit); ok {
			out = append(out, h)
		}
	}
	return out
}

func (p *HabitsPage) selected() (store.Habit, bool) {
	h, ok := p.list.SelectedItem().(store.Habit)
	return h, ok
}

func (p *HabitsPage) Update(msg tea.Msg) (Page, tea.Cmd) {
	switch msg := msg.(type) {
	case HabitSelectedMsg:
		p.delegate.openID = msg.Habit.ID
		return p, nil
	case habitsLoadedMsg, habitsLoadFailedMsg, habitAddedMsg, habitAddFailedMsg,
		habitRenameSavedMsg, habitRenameFailedMsg, habitDeleteSavedMsg, habitDeleteFailedMsg:
		return p.handleResult(msg)
	}

	switch p.mode {
	case habitsModeAdd, habitsModeRename:
		return p.updateNameMode(msg)
	case habitsModeConfirmDelete:
		return p.updateConfirmDeleteMode(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && !p.list.SettingFilter() {
		switch {
		case key.Matches(msg, habitsKeys.Add):
			return p.startNameInput(habitsModeAdd, store.Habit{})

		case key.Matches(msg, habitsKeys.Rename):
			if h, ok := p.selected(); ok {
				return p.startNameInput(habitsModeRename, h)
			}
			return p, nil

		case key.Matches(msg, habitsKeys.Delete):
			if h, ok := p.selected(); ok {
				p.pending = h
				p.mode = habitsModeConfirmDelete
			}
			return p, nil

		case key.Matches(msg, habitsKeys.Open):
			if h, ok := p.selected(); ok {
				return p, func() tea.Msg { return HabitSelectedMsg{Habit: h} }
			}
			return p, nil
		}
	}

	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return p, cmd
}

func (p *HabitsPage) handleResult(msg tea.Msg) (Page, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case habitsLoadedMsg:
		items := make([]list.Item, len(msg.habits))
		for i, h := range msg.habits {
			items[i] = h
		}
		cmds = append(cmds, p.list.SetItems(items))

	case habitsLoadFailedMsg:
		cmds = append(cmds, p.list.NewStatusMessage(fmt.Sprintf("load failed: %v", msg.err)))

	case habitAddedMsg:
		cmds = append(cmds, p.list.InsertItem(len(p.list.Items()), msg.habit))
		p.list.Select(len(p.list.Items()) - 1)
		cmds = append(cmds, p.list.NewStatusMessage("Habit added"))

	case habitAddFailedMsg:
		cmds = append(cmds, p.list.NewStatusMessage(fmt.Sprintf("add failed: %v", msg.err)))

	case habitRenameSavedMsg:
		renamed := msg.habit
		cmds = append(cmds, func() tea.Msg { return HabitRenamedMsg{Habit: renamed} })

	case habitRenameFailedMsg:
		// Rollback
		if i := p.indexOf(msg.prev.ID); i >= 0 {
			cmds = append(cmds, p.list.SetItem(i, msg.prev))
		}
		cmds = append(cmds, p.list.NewStatusMessage(fmt.Sprintf("rename failed: %v", msg.err)))

	case habitDeleteSavedMsg:
		if i := p.indexOf(msg.id); i >= 0 {
			p.list.RemoveItem(i)
		}
		if p.streaks != nil {
			p.streaks.Forget(msg.id)
		}
		if p.delegate.openID == msg.id {
			p.delegate.openID = 0
		}
		id := msg.id
		cmds = append(cmds,
			p.list.NewStatusMessage("Habit deleted"),
			func() tea.Msg { return HabitDeletedMsg{ID: id} },
		)

	case habitDeleteFailedMsg:
		cmds = append(cmds, p.list.NewStatusMessage(fmt.Sprintf("delete failed: %v", msg.err)))
	}

	return p, tea.Batch(cmds...)
}

func (p *HabitsPage) indexOf(id int64) int {
	for i, item := range p.list.Items() {
		if h, ok := item.(store.Habit); ok && h.ID == id {
			return i
		}
	}
	return -1
}

func (p *HabitsPage) startNameInput(mode habitsMode, target store.Habit) (Page, tea.Cmd) {
	p.mode = mode
	p.pending = target
	p.inputErr = nil
	p.nameInput.Reset()
	if mode == habitsModeRename {
		p.nameInput.SetValue(target.Name)
		p.nameInput.CursorEnd()
	}
	p.nameInput.Focus()
	return p, textinput.Blink
}

func (p *HabitsPage) updateNameMode(msg tea.Msg) (Page, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			p.mode = habitsModeList
			p.nameInput.Blur()
			return p, nil
		case "enter":
			name, err := store.ValidateHabitName(p.nameInput.Value())
			if err != nil {
				p.inputErr = err
				return p, nil
			}
			mode := p.mode
			p.mode = habitsModeList
			p.nameInput.Blur()
			if mode == habitsModeAdd {
				return p, addHabitCmd(p.store, name)
			}
			// Optimistic update
			prev := p.pending
			var setCmd tea.Cmd
			if i := p.indexOf(prev.ID); i >= 0 {
				setCmd = p.list.SetItem(i, store.Habit{ID: prev.ID, Name: name})
			}
			return p, tea.Batch(setCmd, renameHabitCmd(p.store, prev, name))
		}
	}

	var cmd tea.Cmd
	p.nameInput, cmd = p.nameInput.Update(msg)
	return p, cmd
}

func (p *HabitsPage) updateConfirmDeleteMode(msg tea.Msg) (Page, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "y", "Y":
			id := p.pending.ID
			p.pending = store.Habit{}
			p.mode = habitsModeList
			return p, deleteHabitCmd(p.store, id)
		case "n", "N", "esc":
			p.pending = store.Habit{}
			p.mode = habitsModeList
		}
	}
	return p, nil
}

var (
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

func (p *HabitsPage) View() string {
	switch p.mode {
	case habitsModeAdd:
		return p.viewNameInput("Add Habit", "(enter to save, esc to cancel)")
	case habitsModeRename:
		return p.viewNameInput(fmt.Sprintf("Rename \"%s\"", p.pending.Name), "(enter to save, esc to cancel)")
	case habitsModeConfirmDelete:
		return fmt.Sprintf(
			"Delete Habit\n\nDelete \"%s\" and all of its blocks?\n\n(y to confirm, n or esc to cancel)",
			p.pending.Name,
		)
	}
	if len(p.list.Items()) == 0 {
		return p.list.Styles.Title.Render(p.list.Title) + "\n\n" +
			hintStyle.Render("No habits yet. Press a to add one.")
	}
	return p.list.View()
}

func (p *HabitsPage) viewNameInput(heading, hint string) string {
	s := fmt.Sprintf("%s\n\nName:\n%s\n", heading, p.nameInput.View())
	if p.inputErr != nil {
		s += "\n" + errorStyle.Render(p.inputErr.Error()) + "\n"
	}
	return s + "\n" + hintStyle.Render(hint)
}

func (p *HabitsPage) KeyMap() []key.Binding {
	if p.mode != habitsModeList {
		return nil
	}
	return []key.Binding{
		habitsKeys.Add,
		habitsKeys.Rename,
		habitsKeys.Delete,
		habitsKeys.Open,
	}
}
