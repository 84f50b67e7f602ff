package canvass

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/canvass/internal/logging"
	"github.com/aretw0/canvass/internal/runtime"
	"github.com/aretw0/canvass/pkg/adapters/memory"
	"github.com/aretw0/canvass/pkg/domain"
	"github.com/aretw0/canvass/pkg/ports"
	"github.com/aretw0/canvass/pkg/session"
	"github.com/aretw0/canvass/surveys"
)

// Engine is the high-level entry point for the canvass library.
// It binds the navigation runtime to a survey catalog and a session store, and
// serializes every transition of a session behind a per-session lock.
type Engine struct {
	runtime  *runtime.Engine
	catalog  *domain.Catalog
	loader   ports.CatalogLoader
	store    ports.SessionStore
	sessions *session.Manager

	locker  ports.DistributedLocker
	lockTTL time.Duration
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	now     func() time.Time

	mu          sync.RWMutex
	subscribers map[int]Observer
	nextSub     int
}

// Observer receives the change produced by every accepted transition, after it is persisted.
type Observer func(ctx context.Context, diff *domain.StateDiff)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithCatalog serves an already built catalog.
func WithCatalog(c *domain.Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithLoader loads the catalog from a custom source at construction time.
func WithLoader(l ports.CatalogLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithStore persists sessions in the given store (default: in memory).
func WithStore(s ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker adds a distributed lock around every session transition,
// for deployments where several replicas share a store.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New initializes an Engine.
// Without WithCatalog or WithLoader it serves the built-in surveys.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	eng := &Engine{
		subscribers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	if eng.catalog == nil {
		if eng.loader == nil {
			eng.loader = surveys.Loader()
		}
		cat, err := eng.loader.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load surveys: %w", err)
		}
		eng.catalog = cat
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
	}
	if eng.now != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithClock(eng.now))
	}
	eng.runtime = runtime.NewEngine(runtimeOpts...)

	sessionOpts := []session.Option{session.WithLogger(eng.logger), session.WithLockTTL(eng.lockTTL)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)

	eng.logger.Debug("engine ready", "surveys", eng.catalog.IDs())
	return eng, nil
}

// Catalog returns the immutable survey catalog.
func (e *Engine) Catalog() *domain.Catalog {
	return e.catalog
}

// Survey returns a survey of the catalog or ErrUnknownSurvey.
func (e *Engine) Survey(id string) (*domain.Survey, error) {
	return e.catalog.Survey(id)
}

// Store returns the session store.
func (e *Engine) Store() ports.SessionStore {
	return e.store
}

// Start opens a session, creating it on first contact, and returns what to present.
// Calling Start on an existing session resumes it unchanged.
func (e *Engine) Start(ctx context.Context, surveyID, sessionID string) (*Step, error) {
	survey, key, err := e.resolve(surveyID, sessionID)
	if err != nil {
		return nil, err
	}

	state, created, err := e.sessions.LoadOrStart(ctx, key, func() *domain.SessionState {
		s, _ := e.runtime.Start(ctx, survey, sessionID)
		return s
	})
	if err != nil {
		return nil, err
	}
	if created {
		e.notify(ctx, domain.Diff(nil, state))
	}
	return newStep(survey, state, created), nil
}

// Current returns the stored session without changing it.
// It fails with ErrSessionNotFound when the session was never started.
func (e *Engine) Current(ctx context.Context, surveyID, sessionID string) (*Step, error) {
	survey, key, err := e.resolve(surveyID, sessionID)
	if err != nil {
		return nil, err
	}
	state, err := e.sessions.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return newStep(survey, state, false), nil
}

// Submit records values for questionID and advances the session.
// A missing session is initialized first.
//
// When the submission is rejected the returned error wraps a *domain.TransitionError and
// the Step still describes the unchanged session, so callers can redisplay the current question.
func (e *Engine) Submit(ctx context.Context, surveyID, sessionID, questionID string, values ...string) (*Step, error) {
	return e.transition(ctx, surveyID, sessionID, func(state *domain.SessionState, survey *domain.Survey) (*domain.SessionState, error) {
		next, _, err := e.runtime.Submit(ctx, state, survey, questionID, values...)
		return next, err
	})
}

// Decline resolves an optional question without an answer and advances the session.
// Rejections behave as in Submit.
func (e *Engine) Decline(ctx context.Context, surveyID, sessionID, questionID string) (*Step, error) {
	return e.transition(ctx, surveyID, sessionID, func(state *domain.SessionState, survey *domain.Survey) (*domain.SessionState, error) {
		next, _, err := e.runtime.Decline(ctx, state, survey, questionID)
		return next, err
	})
}

func (e *Engine) transition(ctx context.Context, surveyID, sessionID string, apply func(*domain.SessionState, *domain.Survey) (*domain.SessionState, error)) (*Step, error) {
	survey, key, err := e.resolve(surveyID, sessionID)
	if err != nil {
		return nil, err
	}

	var before *domain.SessionState
	created := false
	next, err := e.sessions.Update(ctx, key,
		func() *domain.SessionState {
			created = true
			s, _ := e.runtime.Start(ctx, survey, sessionID)
			return s
		},
		func(current *domain.SessionState) (*domain.SessionState, error) {
			before = current
			return apply(current, survey)
		},
	)
	if err != nil {
		var terr *domain.TransitionError
		if errors.As(err, &terr) && before != nil {
			return newStep(survey, before, created), err
		}
		return nil, err
	}

	if created {
		before = nil
	}
	e.notify(ctx, domain.Diff(before, next))
	return newStep(survey, next, created), nil
}

// Delete removes a session from the store.
func (e *Engine) Delete(ctx context.Context, surveyID, sessionID string) error {
	key := domain.SessionKey{SurveyID: surveyID, SessionID: sessionID}
	if err := key.Validate(); err != nil {
		return err
	}
	return e.sessions.Delete(ctx, key)
}

// Sessions lists the keys of every stored session.
func (e *Engine) Sessions(ctx context.Context) ([]domain.SessionKey, error) {
	return e.sessions.List(ctx)
}

// Subscribe registers an observer for accepted transitions and returns a function that removes it.
func (e *Engine) Subscribe(o Observer) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.subscribers[id] = o
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subscribers, id)
	}
}

func (e *Engine) notify(ctx context.Context, diff *domain.StateDiff) {
	if diff == nil {
		return
	}
	e.mu.RLock()
	observers := make([]Observer, 0, len(e.subscribers))
	for _, o := range e.subscribers {
		observers = append(observers, o)
	}
	e.mu.RUnlock()

	for _, o := range observers {
		o(ctx, diff)
	}
}

func (e *Engine) resolve(surveyID, sessionID string) (*domain.Survey, domain.SessionKey, error) {
	key := domain.SessionKey{SurveyID: surveyID, SessionID: sessionID}
	survey, err := e.catalog.Survey(surveyID)
	if err != nil {
		return nil, key, err
	}
	if err := key.Validate(); err != nil {
		return nil, key, err
	}
	return survey, key, nil
}
