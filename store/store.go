// Package store persists habits and their checked blocks in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"blocks.codes/tui/grid"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// ErrHabitNotFound is returned when a habit id has no row.
var ErrHabitNotFound = errors.New("habit not found")

// Habit is a named thing to track.
type Habit struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required,max=20"`
}

func (h Habit) FilterValue() string { return h.Name }
func (h Habit) Title() string       { return h.Name }
func (h Habit) Description() string { return "" }

// Store wraps the database handle.
type Store struct {
	db *sql.DB
}

// Open creates the parent directory of path, opens the database and runs
// migrations. logger receives goose output; nil discards it.
func Open(path string, logger goose.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create directories: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Saves issued from concurrent commands share one connection.
	db.SetMaxOpenConns(1)

	if err := Migrate(db, logger); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Migrate applies the embedded migrations to db.
func Migrate(db *sql.DB, logger goose.Logger) error {
	if logger == nil {
		logger = goose.NopLogger()
	}
	goose.SetLogger(logger)
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("store: dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ListHabits returns every habit in creation order.
func (s *Store) ListHabits(ctx context.Context) ([]Habit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name
		FROM habits
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list habits: %w", err)
	}
	defer rows.Close()

	var habits []Habit
	for rows.Next() {
		var h Habit
		if err := rows.Scan(&h.ID, &h.Name); err != nil {
			return nil, fmt.Errorf("store: scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list habits: %w", err)
	}
	return habits, nil
}

// CreateHabit inserts a habit with a validated name.
func (s *Store) CreateHabit(ctx context.Context, name string) (Habit, error) {
	name, err := ValidateHabitName(name)
	if err != nil {
		return Habit{}, err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO habits (name) VALUES (?)`, name)
	if err != nil {
		return Habit{}, fmt.Errorf("store: create habit: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Habit{}, fmt.Errorf("store: create habit: %w", err)
	}
	return Habit{ID: id, Name: name}, nil
}

// RenameHabit changes a habit's name.
func (s *Store) RenameHabit(ctx context.Context, id int64, name string) (Habit, error) {
	name, err := ValidateHabitName(name)
	if err != nil {
		return Habit{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE habits SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return Habit{}, fmt.Errorf("store: rename habit %d: %w", id, err)
	}
	if err := expectOne(res, id); err != nil {
		return Habit{}, err
	}
	return Habit{ID: id, Name: name}, nil
}

// DeleteHabit removes a habit together with all of its blocks.
func (s *Store) DeleteHabit(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM habit_blocks WHERE habit_id = ?`, id); err != nil {
			return fmt.Errorf("store: delete blocks of %d: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("store: delete habit %d: %w", id, err)
		}
		return expectOne(res, id)
	})
}

// LoadBlocks reads a habit's checked blocks. Rows whose key does not parse
// are left out and counted in skipped.
func (s *Store) LoadBlocks(ctx context.Context, habitID int64) (grid.Blocks, int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT block_key, checked_at
		FROM habit_blocks
		WHERE habit_id = ?
	`, habitID)
	if err != nil {
		return nil, 0, fmt.Errorf("store: load blocks of %d: %w", habitID, err)
	}
	defer rows.Close()

	var entries []string
	for rows.Next() {
		var key string
		var at int64
		if err := rows.Scan(&key, &at); err != nil {
			return nil, 0, fmt.Errorf("store: scan block: %w", err)
		}
		entries = append(entries, key+":"+strconv.FormatInt(at, 10))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: load blocks of %d: %w", habitID, err)
	}

	blocks, skipped := grid.ImportBlocks(entries)
	return blocks, skipped, nil
}

// SetBlock records key as checked at the given epoch milliseconds.
func (s *Store) SetBlock(ctx context.Context, habitID int64, key grid.BlockKey, at int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habit_blocks (habit_id, block_key, checked_at)
		VALUES (?, ?, ?)
		ON CONFLICT(habit_id, block_key) DO UPDATE SET checked_at = excluded.checked_at
	`, habitID, key.String(), at)
	if err != nil {
		return fmt.Errorf("store: set block %s of %d: %w", key, habitID, err)
	}
	return nil
}

// ClearBlock removes key from a habit's checked blocks.
func (s *Store) ClearBlock(ctx context.Context, habitID int64, key grid.BlockKey) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM habit_blocks
		WHERE habit_id = ? AND block_key = ?
	`, habitID, key.String())
	if err != nil {
		return fmt.Errorf("store: clear block %s of %d: %w", key, habitID, err)
	}
	return nil
}

// replaceBlocks overwrites every block of habitID inside tx.
func replaceBlocks(ctx context.Context, tx *sql.Tx, habitID int64, blocks grid.Blocks) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM habit_blocks WHERE habit_id = ?`, habitID); err != nil {
		return fmt.Errorf("store: replace blocks of %d: %w", habitID, err)
	}
	for _, key := range blocks.Keys() {
		at, _ := blocks.Get(key)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO habit_blocks (habit_id, block_key, checked_at) VALUES (?, ?, ?)
		`, habitID, key.String(), at); err != nil {
			return fmt.Errorf("store: replace blocks of %d: %w", habitID, err)
		}
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func expectOne(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrHabitNotFound, id)
	}
	return nil
}

// normalizeName trims surrounding space.
func normalizeName(name string) string {
	return strings.TrimSpace(name)
}
