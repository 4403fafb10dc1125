package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"blocks.codes/tui/grid"
)

// DefaultStreakCacheSize bounds how many habits keep their blocks in memory.
const DefaultStreakCacheSize = 32

// Streaks owns the per-habit block state used by the grid. States are
// loaded on first use and held in an LRU cache; writes go through Save.
type Streaks struct {
	// Serializes saves so the last one to run writes the latest value.
	saveMu sync.Mutex

	store *Store
	cache *lru.Cache[int64, *grid.State]
	log   *slog.Logger
}

// NewStreaks returns a cache of at most size habit states over s.
func NewStreaks(s *Store, size int, logger *slog.Logger) (*Streaks, error) {
	if size <= 0 {
		size = DefaultStreakCacheSize
	}
	cache, err := lru.New[int64, *grid.State](size)
	if err != nil {
		return nil, fmt.Errorf("store: streak cache: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Streaks{store: s, cache: cache, log: logger}, nil
}

// State returns the live state for habitID, loading it on a cache miss.
func (s *Streaks) State(ctx context.Context, habitID int64) (*grid.State, error) {
	if st, ok := s.cache.Get(habitID); ok {
		return st, nil
	}
	blocks, skipped, err := s.store.LoadBlocks(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		s.log.Warn("skipped unreadable blocks", "habit", habitID, "count", skipped)
	}
	st := grid.NewState(blocks)
	// Another load may have raced this one; keep whichever landed first.
	if prev, ok, _ := s.cache.PeekOrAdd(habitID, st); ok {
		return prev, nil
	}
	return st, nil
}

// Save persists the current value of t.Key. Saves run one at a time and
// each reads the cached state under the lock, so saves that complete out of
// toggle order still leave the store matching memory. When habitID is not
// cached the toggle result itself is written.
func (s *Streaks) Save(ctx context.Context, habitID int64, t grid.Toggled) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	at, checked := t.At, t.Checked
	if st, ok := s.cache.Peek(habitID); ok {
		at, checked = st.Snapshot().Get(t.Key)
	}
	if checked {
		return s.store.SetBlock(ctx, habitID, t.Key, at)
	}
	return s.store.ClearBlock(ctx, habitID, t.Key)
}

// Revert restores the key of a failed toggle to its prior value in the
// cached state of habitID. A key that has moved on since the toggle is left
// alone, as is a state that is no longer cached.
func (s *Streaks) Revert(habitID int64, t grid.Toggled) {
	st, ok := s.cache.Peek(habitID)
	if !ok {
		return
	}
	st.Update(func(prev grid.Blocks) grid.Blocks {
		at, checked := prev.Get(t.Key)
		if checked != t.Checked || (checked && at != t.At) {
			return prev
		}
		return grid.Restore(prev, t.Key, t.PrevAt, t.WasChecked)
	})
}

// Forget drops habitID from the cache.
func (s *Streaks) Forget(habitID int64) {
	s.cache.Remove(habitID)
}

// Purge empties the cache.
func (s *Streaks) Purge() {
	s.cache.Purge()
}

// Len is the number of cached habit states.
func (s *Streaks) Len() int {
	return s.cache.Len()
}
