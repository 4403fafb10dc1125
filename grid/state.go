package grid

import "sync"

// UpdateFunc derives the next block state from the latest previous one.
type UpdateFunc func(prev Blocks) Blocks

// State owns one habit's blocks and serializes every write through Update,
// so each transform sees the result of the one before it.
type State struct {
	mu     sync.Mutex
	blocks Blocks
	notify func(Blocks)
}

// NewState returns a State holding initial. A nil initial is empty.
func NewState(initial Blocks) *State {
	if initial == nil {
		initial = Blocks{}
	}
	return &State{blocks: initial}
}

// Snapshot returns the current blocks. Callers must not mutate the result.
func (s *State) Snapshot() Blocks {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocks
}

// Update applies fn to the latest state and stores its result.
func (s *State) Update(fn UpdateFunc) Blocks {
	s.mu.Lock()
	next := fn(s.blocks)
	if next == nil {
		next = Blocks{}
	}
	s.blocks = next
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify(next)
	}
	return next
}

// OnChange registers fn to observe every committed state. Passing nil removes it.
func (s *State) OnChange(fn func(Blocks)) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}
