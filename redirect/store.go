package redirect

import (
	"sync"
	"time"
)

// PendingReturn is the destination remembered when a gated action was blocked
type PendingReturn struct {
	URL       string
	Action    string
	CreatedAt time.Time
}

// ReturnURLStore holds at most one pending return for the lifetime of a browsing session
type ReturnURLStore interface {
	// Set replaces any pending return
	Set(p PendingReturn)
	// Take returns the pending return and clears it in one step
	Take() (PendingReturn, bool)
	Clear()
}

// MemoryStore is a thread-safe in-memory ReturnURLStore
type MemoryStore struct {
	mu      sync.Mutex
	pending *PendingReturn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Set(p PendingReturn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy so callers cannot modify the stored value
	stored := p
	s.pending = &stored
}

func (s *MemoryStore) Take() (PendingReturn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return PendingReturn{}, false
	}
	p := *s.pending
	s.pending = nil
	return p, true
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}
