package store

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blocks.codes/tui/grid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "data.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestHabits_CRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	empty, err := s.ListHabits(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	read, err := s.CreateHabit(ctx, "  Read  ")
	require.NoError(t, err)
	assert.Equal(t, "Read", read.Name)
	water, err := s.CreateHabit(ctx, "Water")
	require.NoError(t, err)

	habits, err := s.ListHabits(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Habit{read, water}, habits)

	renamed, err := s.RenameHabit(ctx, water.ID, "Drink water")
	require.NoError(t, err)
	assert.Equal(t, "Drink water", renamed.Name)

	_, err = s.RenameHabit(ctx, 9999, "Ghost")
	assert.ErrorIs(t, err, ErrHabitNotFound)

	require.NoError(t, s.DeleteHabit(ctx, read.ID))
	assert.ErrorIs(t, s.DeleteHabit(ctx, read.ID), ErrHabitNotFound)

	habits, err = s.ListHabits(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Habit{renamed}, habits)
}

func TestValidateHabitName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"Read", "Read", false},
		{"  padded ", "padded", false},
		{"", "", true},
		{"    ", "", true},
		{strings.Repeat("x", MaxNameLength), strings.Repeat("x", MaxNameLength), false},
		{strings.Repeat("x", MaxNameLength+1), "", true},
		{strings.Repeat("é", MaxNameLength), strings.Repeat("é", MaxNameLength), false},
	}
	for _, tt := range tests {
		got, err := ValidateHabitName(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidName, "in=%q", tt.in)
			continue
		}
		require.NoError(t, err, "in=%q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestBlocks_SetClearLoad(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	h, err := s.CreateHabit(ctx, "Read")
	require.NoError(t, err)

	k1 := grid.BlockKey{Row: grid.CenterIndex, Hour: 10}
	k2 := grid.BlockKey{Row: grid.CenterIndex - 1, Hour: 23}
	require.NoError(t, s.SetBlock(ctx, h.ID, k1, 1000))
	require.NoError(t, s.SetBlock(ctx, h.ID, k2, 2000))
	require.NoError(t, s.SetBlock(ctx, h.ID, k1, 1500))

	blocks, skipped, err := s.LoadBlocks(ctx, h.ID)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Equal(t, grid.Blocks{k1: 1500, k2: 2000}, blocks)

	require.NoError(t, s.ClearBlock(ctx, h.ID, k2))
	blocks, _, err = s.LoadBlocks(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, grid.Blocks{k1: 1500}, blocks)
}

func TestBlocks_CorruptRowsSkipped(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	h, err := s.CreateHabit(ctx, "Read")
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO habit_blocks (habit_id, block_key, checked_at)
		VALUES (?, 'garbage', 1), (?, '50000-24', 1), (?, '50000-3', 7)
	`, h.ID, h.ID, h.ID)
	require.NoError(t, err)

	blocks, skipped, err := s.LoadBlocks(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, grid.Blocks{{Row: 50000, Hour: 3}: 7}, blocks)
}

func TestDeleteHabit_RemovesBlocks(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	h, err := s.CreateHabit(ctx, "Read")
	require.NoError(t, err)
	require.NoError(t, s.SetBlock(ctx, h.ID, grid.BlockKey{Row: 1, Hour: 1}, 5))

	require.NoError(t, s.DeleteHabit(ctx, h.ID))

	var n int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT count(*) FROM habit_blocks`).Scan(&n))
	assert.Zero(t, n)
}

func TestDocument_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := openTestStore(t)
	h, err := src.CreateHabit(ctx, "Read")
	require.NoError(t, err)
	at := time.Date(2024, 1, 1, 10, 3, 0, 0, time.UTC).UnixMilli()
	require.NoError(t, src.SetBlock(ctx, h.ID, grid.BlockKey{Row: grid.CenterIndex, Hour: 10}, at))

	doc, err := src.Export(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, doc.Encode(&buf))
	assert.Contains(t, buf.String(), `"habitStreaks"`)

	decoded, err := DecodeDocument(&buf)
	require.NoError(t, err)

	dst := openTestStore(t)
	stats, err := dst.Import(ctx, decoded)
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Habits: 1, Blocks: 1}, stats)

	habits, err := dst.ListHabits(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Habit{h}, habits)

	blocks, _, err := dst.LoadBlocks(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, grid.Blocks{{Row: grid.CenterIndex, Hour: 10}: at}, blocks)
}

func TestImport_LegacyShapes(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	doc, err := DecodeDocument(strings.NewReader(`{
		"habits": [
			{"id": 1700000000000, "name": "Bare keys"},
			{"id": 1700000000001, "name": "Mapping"},
			{"id": 1700000000002, "name": ""},
			{"id": 1700000000003, "name": "No streak"}
		],
		"habitStreaks": {
			"1700000000000": ["50000-9", "50000-10:1704103380000", "bad"],
			"1700000000001": {"50000-11": 1704106800000, "50000-12": "nope"}
		}
	}`))
	require.NoError(t, err)

	stats, err := s.Import(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Habits: 3, Blocks: 3, SkippedHabits: 1, SkippedBlocks: 2}, stats)

	bare, _, err := s.LoadBlocks(ctx, 1700000000000)
	require.NoError(t, err)
	assert.Equal(t, grid.Blocks{{Row: 50000, Hour: 9}: 0, {Row: 50000, Hour: 10}: 1704103380000}, bare)

	mapped, _, err := s.LoadBlocks(ctx, 1700000000001)
	require.NoError(t, err)
	assert.Equal(t, grid.Blocks{{Row: 50000, Hour: 11}: 1704106800000}, mapped)

	again, err := s.Import(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, stats, again, "import is idempotent")

	habits, err := s.ListHabits(ctx)
	require.NoError(t, err)
	assert.Len(t, habits, 3)
}

func TestExport_EmptyStore(t *testing.T) {
	doc, err := openTestStore(t).Export(context.Background())
	require.NoError(t, err)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"habits":[],"habitStreaks":{}}`, string(raw))
}
