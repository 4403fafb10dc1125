package pages

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"blocks.codes/tui/store"
)

func openTestStreaks(t *testing.T) (*store.Store, *store.Streaks) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "data.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	streaks, err := store.NewStreaks(st, 0, nil)
	require.NoError(t, err)
	return st, streaks
}

func createHabit(t *testing.T, st *store.Store, name string) store.Habit {
	t.Helper()
	h, err := st.CreateHabit(context.Background(), name)
	require.NoError(t, err)
	return h
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func typeText(p Page, s string) {
	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}
