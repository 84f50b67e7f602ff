package ports

import (
	"context"

	"github.com/aretw0/canvass/pkg/domain"
)

// SessionStore defines the interface for persisting session state.
// It is the only suspension point of a transition; callers block on it and
// implementations must not retry internally.
type SessionStore interface {
	// Save persists the state for a given key.
	Save(ctx context.Context, key domain.SessionKey, state *domain.SessionState) error

	// Load retrieves the state for a given key.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, key domain.SessionKey) (*domain.SessionState, error)

	// Delete removes the state for a given key. Deleting a missing session is not an error.
	Delete(ctx context.Context, key domain.SessionKey) error

	// List returns the keys of all stored sessions.
	List(ctx context.Context) ([]domain.SessionKey, error)
}
