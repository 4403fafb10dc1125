package pages

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"blocks.codes/tui/store"
)

// DocStyle is the shared outer frame style for content areas.
var DocStyle = lipgloss.NewStyle().Padding(1, 2)

// HeaderLines is the number of lines the app shell renders above a page's
// content: the title and a blank line.
const HeaderLines = 2

// ContentOrigin is the screen position of the first cell of page content.
func ContentOrigin() (x, y int) {
	return DocStyle.GetPaddingLeft(), DocStyle.GetPaddingTop() + HeaderLines
}

// PageInitializer is an optional interface for pages that need async initialization.
type PageInitializer interface {
	InitCmd() tea.Cmd
}

// PageActivator is an optional interface for pages that refresh each time
// they become the active page.
type PageActivator interface {
	Activate() tea.Cmd
}

// PageDeactivator is the counterpart of PageActivator, called when a page
// stops being the active page.
type PageDeactivator interface {
	Deactivate()
}

// PageID identifies each page/view in the application.
type PageID int

const (
	HabitsPageID PageID = iota
	GridPageID
	TrendPageID
)

// Title holds the display text and color for a page's header.
type Title struct {
	Text  string
	Color lipgloss.Color
}

// NavigationCapturer is an optional interface for pages that need to suppress
// navigation keys (left/right arrows) or global key bindings (quit, help)
// in certain modes (e.g., text input).
type NavigationCapturer interface {
	CapturesNavigation() bool
	CapturesGlobalKeys() bool
}

// Page is the interface that all pages must implement.
// Each page manages its own state, handles updates, and renders its content.
type Page interface {
	// ID returns the unique identifier for this page.
	ID() PageID

	// Title returns the page's header title configuration.
	Title() Title

	// SetSize is called when the window resizes so the page can adjust its layout.
	SetSize(width, height int)

	// Update handles messages and returns the updated page and any command.
	Update(msg tea.Msg) (Page, tea.Cmd)

	// View renders the page's content (without the outer frame/title).
	View() string

	// KeyMap returns the page's key bindings for the global help component.
	KeyMap() []key.Binding
}

// HabitSelectedMsg asks the shell to open the grid for a habit.
type HabitSelectedMsg struct {
	Habit store.Habit
}

// HabitRenamedMsg is broadcast to every page after a rename is saved.
type HabitRenamedMsg struct {
	Habit store.Habit
}

// HabitDeletedMsg is broadcast to every page after a habit is removed.
type HabitDeletedMsg struct {
	ID int64
}
