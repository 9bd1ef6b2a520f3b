package memory

import (
	"context"
	"sync"

	"millstock/internal/domain/activity"
)

// ActivityStore is a slice-backed activity.Store. Entries returns a copy
// so tests can assert on what got recorded.
type ActivityStore struct {
	mu      sync.Mutex
	entries []activity.Entry
}

// NewActivityStore creates an empty in-memory activity store.
func NewActivityStore() *ActivityStore {
	return &ActivityStore{}
}

func (s *ActivityStore) Save(_ context.Context, entry *activity.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

// Entries returns a snapshot of everything recorded so far.
func (s *ActivityStore) Entries() []activity.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]activity.Entry(nil), s.entries...)
}
