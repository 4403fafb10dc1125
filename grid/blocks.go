package grid

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidKey is returned when a block key string cannot be parsed.
var ErrInvalidKey = errors.New("invalid block key")

// BlockKey identifies one hour cell of one day row.
type BlockKey struct {
	Row  int
	Hour int
}

// String renders the composite storage key "<row>-<hour>".
func (k BlockKey) String() string {
	return strconv.Itoa(k.Row) + "-" + strconv.Itoa(k.Hour)
}

// Valid reports whether the key addresses a cell inside the grid.
func (k BlockKey) Valid() bool {
	return k.Row >= 0 && k.Row < RowCount && k.Hour >= 0 && k.Hour < Columns
}

// ParseBlockKey parses a "<row>-<hour>" storage key.
func ParseBlockKey(s string) (BlockKey, error) {
	rowStr, hourStr, found := strings.Cut(s, "-")
	if !found {
		return BlockKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	row, err := strconv.Atoi(rowStr)
	if err != nil {
		return BlockKey{}, fmt.Errorf("%w: %q: row: %v", ErrInvalidKey, s, err)
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return BlockKey{}, fmt.Errorf("%w: %q: hour: %v", ErrInvalidKey, s, err)
	}
	k := BlockKey{Row: row, Hour: hour}
	if !k.Valid() {
		return BlockKey{}, fmt.Errorf("%w: %q out of range", ErrInvalidKey, s)
	}
	return k, nil
}

// Blocks maps checked cells to the moment they were checked, in
// milliseconds since the epoch. Presence means checked. Values of this type
// are never mutated once shared; Toggle returns a fresh map.
type Blocks map[BlockKey]int64

// Get returns the check timestamp for key.
func (b Blocks) Get(key BlockKey) (int64, bool) {
	ts, ok := b[key]
	return ts, ok
}

// Len is the number of checked cells.
func (b Blocks) Len() int { return len(b) }

// Clone copies b into a new map.
func (b Blocks) Clone() Blocks {
	next := make(Blocks, len(b)+1)
	for k, v := range b {
		next[k] = v
	}
	return next
}

// Keys returns the checked keys ordered by row, then hour.
func (b Blocks) Keys() []BlockKey {
	keys := make([]BlockKey, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Row != keys[j].Row {
			return keys[i].Row < keys[j].Row
		}
		return keys[i].Hour < keys[j].Hour
	})
	return keys
}

// Toggle unchecks key if it is checked, otherwise checks it at at.
func Toggle(prev Blocks, key BlockKey, at time.Time) Blocks {
	next := prev.Clone()
	if _, ok := next[key]; ok {
		delete(next, key)
	} else {
		next[key] = at.UnixMilli()
	}
	return next
}

// Restore returns prev with key set back to (ts, ok).
func Restore(prev Blocks, key BlockKey, ts int64, ok bool) Blocks {
	next := prev.Clone()
	if ok {
		next[key] = ts
	} else {
		delete(next, key)
	}
	return next
}

// FormatEntry renders one persisted entry "<row>-<hour>:<ms>".
func FormatEntry(key BlockKey, ts int64) string {
	return key.String() + ":" + strconv.FormatInt(ts, 10)
}

// ParseEntry parses a persisted entry. A bare key without a timestamp is
// accepted with timestamp 0; such blocks render checked at baseline.
func ParseEntry(s string) (BlockKey, int64, error) {
	keyStr, tsStr, hasTS := strings.Cut(strings.TrimSpace(s), ":")
	key, err := ParseBlockKey(keyStr)
	if err != nil {
		return BlockKey{}, 0, err
	}
	if !hasTS {
		return key, 0, nil
	}
	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return BlockKey{}, 0, fmt.Errorf("%w: %q: timestamp: %v", ErrInvalidKey, s, err)
	}
	return key, ts, nil
}

// Export renders b as persisted entries, sorted by key.
func (b Blocks) Export() []string {
	keys := b.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = FormatEntry(k, b[k])
	}
	return out
}

// ImportBlocks decodes persisted entries. Malformed entries are left out
// rather than failing the whole set; skipped counts them.
func ImportBlocks(entries []string) (b Blocks, skipped int) {
	b = make(Blocks, len(entries))
	for _, e := range entries {
		key, ts, err := ParseEntry(e)
		if err != nil {
			skipped++
			continue
		}
		b[key] = ts
	}
	return b, skipped
}

// ImportMapping decodes the key → timestamp form. Values that are not
// finite integral numbers are treated as absent.
func ImportMapping(m map[string]any) (b Blocks, skipped int) {
	b = make(Blocks, len(m))
	for k, v := range m {
		key, err := ParseBlockKey(k)
		if err != nil {
			skipped++
			continue
		}
		ts, ok := toMillis(v)
		if !ok {
			skipped++
			continue
		}
		b[key] = ts
	}
	return b, skipped
}

func toMillis(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n != n || n > 1<<53 || n < -(1<<53) || n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case string:
		ts, err := strconv.ParseInt(n, 10, 64)
		return ts, err == nil
	}
	return 0, false
}
