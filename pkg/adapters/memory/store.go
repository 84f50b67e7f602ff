package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/canvass/pkg/domain"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[domain.SessionKey]*domain.SessionState
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[domain.SessionKey]*domain.SessionState),
	}
}

// Save persists a deep copy of the state.
func (s *Store) Save(ctx context.Context, key domain.SessionKey, state *domain.SessionState) error {
	copied := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = copied
	return nil
}

// Load retrieves a copy of the state so callers cannot mutate the store by pointer.
func (s *Store) Load(ctx context.Context, key domain.SessionKey) (*domain.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[key]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return state.Clone(), nil
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, key domain.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns all stored session keys ordered by survey then session.
func (s *Store) List(ctx context.Context) ([]domain.SessionKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]domain.SessionKey, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys, nil
}
