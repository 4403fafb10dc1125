package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"blocks.codes/tui/grid"
)

// Document is the portable form of all habits and their blocks. Streak
// entries are "<row>-<hour>:<epochMs>" strings keyed by habit id.
type Document struct {
	Habits       []Habit                    `json:"habits"`
	HabitStreaks map[string]json.RawMessage `json:"habitStreaks"`
}

// ImportStats summarises an import.
type ImportStats struct {
	Habits        int
	Blocks        int
	SkippedHabits int
	SkippedBlocks int
}

// DecodeDocument reads a Document from r.
func DecodeDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("store: decode document: %w", err)
	}
	return &doc, nil
}

// Encode writes d to w as indented JSON.
func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("store: encode document: %w", err)
	}
	return nil
}

// Streak decodes the blocks stored for habitID. Both the entry list form
// and a key-to-timestamp object are accepted.
func (d *Document) Streak(habitID int64) (grid.Blocks, int, error) {
	raw, ok := d.HabitStreaks[strconv.FormatInt(habitID, 10)]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return grid.Blocks{}, 0, nil
	}

	var entries []string
	if err := json.Unmarshal(raw, &entries); err == nil {
		blocks, skipped := grid.ImportBlocks(entries)
		return blocks, skipped, nil
	}
	var mapping map[string]any
	if err := json.Unmarshal(raw, &mapping); err != nil {
		return nil, 0, fmt.Errorf("store: streak of %d: %w", habitID, err)
	}
	blocks, skipped := grid.ImportMapping(mapping)
	return blocks, skipped, nil
}

// Export snapshots every habit and its blocks.
func (s *Store) Export(ctx context.Context) (*Document, error) {
	habits, err := s.ListHabits(ctx)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		Habits:       habits,
		HabitStreaks: make(map[string]json.RawMessage, len(habits)),
	}
	if doc.Habits == nil {
		doc.Habits = []Habit{}
	}
	for _, h := range habits {
		blocks, _, err := s.LoadBlocks(ctx, h.ID)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(blocks.Export())
		if err != nil {
			return nil, fmt.Errorf("store: export streak of %d: %w", h.ID, err)
		}
		doc.HabitStreaks[strconv.FormatInt(h.ID, 10)] = raw
	}
	return doc, nil
}

// Import upserts the habits in doc and replaces their blocks. Habits with
// invalid names and entries that do not decode are skipped.
func (s *Store) Import(ctx context.Context, doc *Document) (ImportStats, error) {
	var stats ImportStats
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, h := range doc.Habits {
			name, err := ValidateHabitName(h.Name)
			if err != nil {
				stats.SkippedHabits++
				continue
			}
			blocks, skipped, err := doc.Streak(h.ID)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO habits (id, name) VALUES (?, ?)
				ON CONFLICT(id) DO UPDATE SET name = excluded.name
			`, h.ID, name); err != nil {
				return fmt.Errorf("store: import habit %d: %w", h.ID, err)
			}
			if err := replaceBlocks(ctx, tx, h.ID, blocks); err != nil {
				return err
			}
			stats.Habits++
			stats.Blocks += blocks.Len()
			stats.SkippedBlocks += skipped
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, err
	}
	return stats, nil
}
