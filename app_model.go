package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"blocks.codes/tui/pages"
)

var globalKeys = struct {
	Quit     key.Binding
	PrevPage key.Binding
	NextPage key.Binding
}{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("left", "shift+tab"),
		key.WithHelp("←/→", "page"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("right", "tab"),
	),
}

// AppModel is the root Bubble Tea model that manages pages and global state.
type AppModel struct {
	pages       []pages.Page
	paginator   paginator.Model
	help        help.Model
	initialized map[pages.PageID]bool
	width       int
	height      int
}

// NewAppModel wires the pages into a paginated shell.
func NewAppModel(ps ...pages.Page) AppModel {
	p := paginator.New()
	p.Type = paginator.Dots
	p.ActiveDot = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "235", Dark: "252"}).Render("•")
	p.InactiveDot = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "250", Dark: "238"}).Render("•")
	// The grid uses h/l and pgup/pgdown itself.
	p.KeyMap = paginator.KeyMap{
		PrevPage: globalKeys.PrevPage,
		NextPage: globalKeys.NextPage,
	}
	p.SetTotalPages(len(ps))

	return AppModel{
		pages:       ps,
		paginator:   p,
		help:        help.New(),
		initialized: make(map[pages.PageID]bool),
	}
}

// activePage returns the currently active page.
func (m AppModel) activePage() pages.Page {
	idx := m.paginator.Page
	if idx < 0 || idx >= len(m.pages) {
		panic("invalid page index")
	}
	return m.pages[idx]
}

func (m AppModel) pageIndex(id pages.PageID) int {
	for i, p := range m.pages {
		if p.ID() == id {
			return i
		}
	}
	return -1
}

// renderTitle renders the header title for the active page.
func (m AppModel) renderTitle() string {
	t := m.activePage().Title()
	return lipgloss.NewStyle().
		Background(t.Color).
		Padding(0, 1).
		Render(t.Text)
}

func (m AppModel) Init() tea.Cmd {
	var cmds []tea.Cmd
	// Pages that hold background state initialize up front.
	for _, page := range m.pages {
		if pi, ok := page.(pages.PageInitializer); ok {
			m.initialized[page.ID()] = true
			cmds = append(cmds, pi.InitCmd())
		}
	}
	if pa, ok := m.activePage().(pages.PageActivator); ok {
		cmds = append(cmds, pa.Activate())
	}
	return tea.Batch(cmds...)
}

// activate runs the hooks of the page at idx after it becomes active.
func (m AppModel) activate(idx int) tea.Cmd {
	page := m.pages[idx]
	var cmds []tea.Cmd
	if pi, ok := page.(pages.PageInitializer); ok && !m.initialized[page.ID()] {
		m.initialized[page.ID()] = true
		cmds = append(cmds, pi.InitCmd())
	}
	if pa, ok := page.(pages.PageActivator); ok {
		cmds = append(cmds, pa.Activate())
	}
	return tea.Batch(cmds...)
}

// deactivate notifies the page at idx that it is no longer shown.
func (m AppModel) deactivate(idx int) {
	if pd, ok := m.pages[idx].(pages.PageDeactivator); ok {
		pd.Deactivate()
	}
}

func (m AppModel) capturer() (pages.NavigationCapturer, bool) {
	nc, ok := m.activePage().(pages.NavigationCapturer)
	return nc, ok
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = max(m.width-pages.DocStyle.GetHorizontalFrameSize(), 0)
		// Notify all pages of the new size
		for _, page := range m.pages {
			page.SetSize(m.width, m.height)
		}
		return m.broadcast(msg)

	case pages.HabitSelectedMsg:
		next, cmd := m.broadcast(msg)
		m = next.(AppModel)
		if idx := m.pageIndex(pages.GridPageID); idx >= 0 && idx != m.paginator.Page {
			m.deactivate(m.paginator.Page)
			m.paginator.Page = idx
			cmd = tea.Batch(cmd, m.activate(idx))
		}
		return m, cmd

	case tea.KeyMsg:
		capturesGlobal := false
		if nc, ok := m.capturer(); ok {
			capturesGlobal = nc.CapturesGlobalKeys()
		}
		if msg.String() == "ctrl+c" || (!capturesGlobal && key.Matches(msg, globalKeys.Quit)) {
			return m, tea.Quit
		}
		return m.updateActive(msg)

	case tea.MouseMsg:
		return m.updateActive(msg)
	}

	return m.broadcast(msg)
}

// updateActive delivers input to the active page and the paginator.
func (m AppModel) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Track previous page to detect navigation
	prevPage := m.paginator.Page

	// Check if active page captures navigation keys (e.g., text input mode)
	capturesNav := false
	if nc, ok := m.capturer(); ok {
		capturesNav = nc.CapturesNavigation()
	}

	var cmds []tea.Cmd
	if !capturesNav {
		var paginatorCmd tea.Cmd
		m.paginator, paginatorCmd = m.paginator.Update(msg)
		cmds = append(cmds, paginatorCmd)
	}

	idx := m.paginator.Page
	if idx != prevPage {
		// The key that switched pages is not forwarded.
		m.deactivate(prevPage)
		cmds = append(cmds, m.activate(idx))
		return m, tea.Batch(cmds...)
	}

	var pageCmd tea.Cmd
	m.pages[idx], pageCmd = m.pages[idx].Update(msg)
	cmds = append(cmds, pageCmd)
	return m, tea.Batch(cmds...)
}

// broadcast delivers a non-input message to every page so that loads started
// by a page still land after it is hidden.
func (m AppModel) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, len(m.pages))
	for i := range m.pages {
		var cmd tea.Cmd
		m.pages[i], cmd = m.pages[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m AppModel) helpView() string {
	bindings := append([]key.Binding{}, m.activePage().KeyMap()...)
	bindings = append(bindings, globalKeys.PrevPage, globalKeys.Quit)
	return m.help.ShortHelpView(bindings)
}

func (m AppModel) View() string {
	var b strings.Builder

	// View title
	b.WriteString(m.renderTitle())
	b.WriteString("\n\n")

	// View contents from active page
	b.WriteString(m.activePage().View())
	b.WriteString("\n\n")

	// View tab indicator (paginator)
	paginatorView := m.paginator.View()
	contentWidth := 0
	if m.width > 0 {
		contentWidth = max(m.width-pages.DocStyle.GetHorizontalFrameSize(), 0)
		if contentWidth > 0 {
			paginatorView = lipgloss.PlaceHorizontal(contentWidth, lipgloss.Center, paginatorView)
		}
	}
	b.WriteString(paginatorView)
	b.WriteString("\n")
	b.WriteString(m.helpView())

	// Size the outer container to exactly match the terminal window.
	s := pages.DocStyle
	if m.width > 0 {
		s = s.Width(m.width)
	}
	if m.height > 0 {
		s = s.Height(m.height)
	}
	return s.Render(b.String())
}
