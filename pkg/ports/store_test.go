package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/canvass/pkg/domain"
	"github.com/aretw0/canvass/pkg/ports"
)

// MockStore is a minimal in-memory implementation of SessionStore used to
// exercise the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	data map[domain.SessionKey]*domain.SessionState
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[domain.SessionKey]*domain.SessionState)}
}

func (m *MockStore) Save(ctx context.Context, key domain.SessionKey, state *domain.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = state.Clone()
	return nil
}

func (m *MockStore) Load(ctx context.Context, key domain.SessionKey) (*domain.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.data[key]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return state.Clone(), nil
}

func (m *MockStore) Delete(ctx context.Context, key domain.SessionKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]domain.SessionKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]domain.SessionKey, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func TestSessionStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, NewMockStore())
}

func TestCatalogLoaderFunc(t *testing.T) {
	called := false
	var loader ports.CatalogLoader = ports.CatalogLoaderFunc(func(ctx context.Context) (*domain.Catalog, error) {
		called = true
		return domain.NewCatalog()
	})

	cat, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called || cat.Len() != 0 {
		t.Errorf("expected loader to be called and return an empty catalog")
	}
}
