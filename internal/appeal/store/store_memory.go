// Package store provides appeal persistence with the same split as the
// petition store: in-memory for demo mode and tests, PostgreSQL for
// production. Internal-message filtering happens here, at the data
// access boundary, so callers cannot accidentally leak moderator notes.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"arida/internal/appeal/models"
	"arida/pkg/platform/sentinel"
)

// MemoryStore keeps appeals and their messages in maps.
type MemoryStore struct {
	mu       sync.RWMutex
	appeals  map[uuid.UUID]*models.Appeal
	messages map[uuid.UUID][]*models.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		appeals:  make(map[uuid.UUID]*models.Appeal),
		messages: make(map[uuid.UUID][]*models.Message),
	}
}

func (s *MemoryStore) Create(ctx context.Context, a *models.Appeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.appeals[a.ID]; exists {
		return sentinel.ErrConflict
	}
	a.Version = 1
	s.appeals[a.ID] = cloneAppeal(a)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*models.Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.appeals[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneAppeal(a), nil
}

// GetByPetition returns the most recent appeal for a petition.
func (s *MemoryStore) GetByPetition(ctx context.Context, petitionID uuid.UUID) (*models.Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.Appeal
	for _, a := range s.appeals {
		if a.PetitionID != petitionID {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	return cloneAppeal(latest), nil
}

// Update enforces optimistic versioning like the petition store.
func (s *MemoryStore) Update(ctx context.Context, a *models.Appeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.appeals[a.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != a.Version {
		return sentinel.ErrConflict
	}
	a.Version++
	s.appeals[a.ID] = cloneAppeal(a)
	return nil
}

func (s *MemoryStore) AddMessage(ctx context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appeals[m.AppealID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *m
	s.messages[m.AppealID] = append(s.messages[m.AppealID], &cp)
	return nil
}

// ListMessages returns the thread oldest first. With includeInternal
// false, internal messages are filtered out here and never cross the
// store boundary.
func (s *MemoryStore) ListMessages(ctx context.Context, appealID uuid.UUID, includeInternal bool) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Message
	for _, m := range s.messages[appealID] {
		if m.IsInternal && !includeInternal {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func cloneAppeal(a *models.Appeal) *models.Appeal {
	cp := *a
	return &cp
}
