package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/canvass/internal/logging"
	"github.com/aretw0/canvass/pkg/domain"
	"github.com/aretw0/canvass/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Guards the locks map
	locks map[string]*lockEntry // Active locks keyed by "survey/session"

	locker  ports.DistributedLocker // Optional
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a new session Manager on top of the given store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu, and call release after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// activeLocks reports the number of lock entries currently held or awaited.
func (m *Manager) activeLocks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, key domain.SessionKey) (*domain.SessionState, error) {
	var state *domain.SessionState
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, key)
		return err
	})
	return state, err
}

// LoadOrStart loads a session, creating it with start when it does not exist yet.
// The new state is persisted before returning so concurrent callers observe the same session.
// created reports whether start was used.
func (m *Manager) LoadOrStart(ctx context.Context, key domain.SessionKey, start func() *domain.SessionState) (state *domain.SessionState, created bool, err error) {
	err = m.WithLock(ctx, key, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		state = start()
		if err := m.store.Save(ctx, key, state); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		created = true
		m.logger.Debug("session created", "survey_id", key.SurveyID, "session_id", key.SessionID)
		return nil
	})
	return state, created, err
}

// Update runs a read-modify-write cycle on a session while holding its lock.
// fn receives the stored state (or the result of start if the session does not exist and
// start is non-nil) and returns the state to persist. If fn fails on a stored session nothing
// is saved; if it fails on a session created by start, the created state is saved instead,
// under the same lock.
func (m *Manager) Update(ctx context.Context, key domain.SessionKey, start func() *domain.SessionState, fn func(*domain.SessionState) (*domain.SessionState, error)) (*domain.SessionState, error) {
	var next *domain.SessionState
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		created := false
		current, err := m.store.Load(ctx, key)
		if err != nil {
			if !errors.Is(err, domain.ErrSessionNotFound) || start == nil {
				return err
			}
			current = start()
			created = true
		}

		next, err = fn(current)
		if err != nil {
			if created {
				if saveErr := m.store.Save(ctx, key, current); saveErr != nil {
					return errors.Join(err, fmt.Errorf("failed to initialize session %s: %w", key, saveErr))
				}
				m.logger.Debug("session created", "survey_id", key.SurveyID, "session_id", key.SessionID)
			}
			return err
		}
		if next == nil {
			next = current
		}
		if err := m.store.Save(ctx, key, next); err != nil {
			return fmt.Errorf("failed to persist session %s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// Save persists the session state.
func (m *Manager) Save(ctx context.Context, key domain.SessionKey, state *domain.SessionState) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		return m.store.Save(ctx, key, state)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, key domain.SessionKey) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		return m.store.Delete(ctx, key)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]domain.SessionKey, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, key domain.SessionKey, fn func(context.Context) error) error {
	id := key.String()
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"survey_id", key.SurveyID,
					"session_id", key.SessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
