// Package store provides petition persistence: an in-memory map for demo
// mode and tests, and PostgreSQL for production. Both enforce optimistic
// versioning on update.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"arida/internal/petition/models"
	"arida/pkg/platform/sentinel"
)

// MemoryStore keeps petitions in a map guarded by a mutex.
type MemoryStore struct {
	mu        sync.RWMutex
	petitions map[uuid.UUID]*models.Petition
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{petitions: make(map[uuid.UUID]*models.Petition)}
}

func (s *MemoryStore) Create(ctx context.Context, p *models.Petition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.petitions[p.ID]; exists {
		return sentinel.ErrConflict
	}
	p.Version = 1
	s.petitions[p.ID] = clone(p)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*models.Petition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.petitions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(p), nil
}

// Update persists p if its Version matches the stored one, then bumps the
// version. A mismatch returns sentinel.ErrConflict so callers can retry
// with fresh state.
func (s *MemoryStore) Update(ctx context.Context, p *models.Petition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.petitions[p.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != p.Version {
		return sentinel.ErrConflict
	}
	p.Version++
	s.petitions[p.ID] = clone(p)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Petition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var out []*models.Petition
	for _, p := range s.petitions {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.CreatorID != "" && p.CreatorID != filter.CreatorID {
			continue
		}
		out = append(out, clone(p))
	}

	// Newest first.
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func clone(p *models.Petition) *models.Petition {
	cp := *p
	cp.MediaRefs = append([]string(nil), p.MediaRefs...)
	cp.ResubmissionHistory = append([]models.ResubmissionEntry(nil), p.ResubmissionHistory...)
	return &cp
}
