package audit

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps entries in memory. Used in demo mode and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, filter Filter, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, limit)
	// Newest first: entries append in arrival order, walk backwards.
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.entries[i]
		if filter.ActionPrefix != "" && !strings.HasPrefix(e.Action, filter.ActionPrefix) {
			continue
		}
		if filter.ActorName != "" && e.ActorName != filter.ActorName {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
