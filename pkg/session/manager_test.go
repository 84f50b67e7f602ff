package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/canvass/internal/runtime"
	"github.com/aretw0/canvass/internal/testutils"
	"github.com/aretw0/canvass/pkg/domain"
	"github.com/aretw0/canvass/pkg/ports"
	"github.com/aretw0/canvass/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[domain.SessionKey]*domain.SessionState
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, key domain.SessionKey, state *domain.SessionState) error {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[domain.SessionKey]*domain.SessionState)
	}
	s.data[key] = state.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, key domain.SessionKey) (*domain.SessionState, error) {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.data[key]; ok {
		return state.Clone(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, key domain.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]domain.SessionKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]domain.SessionKey, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func TestManager_StoreContract(t *testing.T) {
	ports.RunSessionStoreContract(t, &SlowStore{})
}

func TestManager_LoadOrStart(t *testing.T) {
	survey := testutils.CultureSurvey()
	_, err := domain.NewCatalog(survey)
	require.NoError(t, err)

	engine := runtime.NewEngine()
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()
	key := domain.SessionKey{SurveyID: survey.ID, SessionID: "atomic-init"}

	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, isNew, err := manager.LoadOrStart(ctx, key, func() *domain.SessionState {
				s, _ := engine.Initialize(survey, key.SessionID)
				return s
			})
			assert.NoError(t, err)
			assert.NotNil(t, state)
			if isNew {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, created.Load(), "exactly one caller must create the session")

	state, err := manager.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Q1", state.Cursor)
}

func TestManager_ConcurrentSubmissionsOnOneSession(t *testing.T) {
	survey := testutils.CultureSurvey()
	_, err := domain.NewCatalog(survey)
	require.NoError(t, err)

	engine := runtime.NewEngine()
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()
	key := domain.SessionKey{SurveyID: survey.ID, SessionID: "race"}

	start := func() *domain.SessionState {
		s, _ := engine.Initialize(survey, key.SessionID)
		return s
	}

	const writers = 10
	var accepted, outOfTurn atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Update(ctx, key, start, func(s *domain.SessionState) (*domain.SessionState, error) {
				next, _, err := engine.Submit(ctx, s, survey, "Q1", "No")
				return next, err
			})
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, domain.ErrOutOfTurn):
				outOfTurn.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, accepted.Load())
	assert.EqualValues(t, writers-1, outOfTurn.Load())

	state, err := manager.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Q3", state.Cursor)
	assert.Equal(t, 1, state.Version)
	assert.Equal(t, []string{"Q2"}, state.Skipped)
}

func TestManager_ParallelSessionsAreIndependent(t *testing.T) {
	survey := testutils.CultureSurvey()
	_, err := domain.NewCatalog(survey)
	require.NoError(t, err)

	engine := runtime.NewEngine()
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			key := domain.SessionKey{SurveyID: survey.ID, SessionID: id}
			start := func() *domain.SessionState {
				s, _ := engine.Initialize(survey, id)
				return s
			}
			for _, step := range [][2]string{{"Q1", "No"}, {"Q3", "No"}, {"Q5", "Agree"}} {
				_, err := manager.Update(ctx, key, start, func(s *domain.SessionState) (*domain.SessionState, error) {
					next, _, err := engine.Submit(ctx, s, survey, step[0], step[1])
					return next, err
				})
				assert.NoError(t, err)
			}
		}(id)
	}
	wg.Wait()

	keys, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 4)
	for _, k := range keys {
		state, err := manager.Load(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, "Q6", state.Cursor, k.String())
	}
}

func TestManager_UpdateFailureKeepsStoredState(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	key := domain.SessionKey{SurveyID: "S", SessionID: "x"}

	stored := domain.NewSessionState(key, time.Now())
	stored.Cursor = "Q3"
	stored.Version = 1
	require.NoError(t, manager.Save(ctx, key, stored))

	boom := errors.New("boom")
	_, err := manager.Update(ctx, key, nil, func(s *domain.SessionState) (*domain.SessionState, error) {
		s.Cursor = "Q9"
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	state, err := manager.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Q3", state.Cursor)
	assert.Equal(t, 1, state.Version)

	_, err = manager.Update(ctx, domain.SessionKey{SurveyID: "S", SessionID: "missing"}, nil, func(s *domain.SessionState) (*domain.SessionState, error) {
		return s, nil
	})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "without a start func a missing session is an error")
}

func TestManager_UpdateFailureOnFirstContactPersistsStart(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	key := domain.SessionKey{SurveyID: "S", SessionID: "x"}

	boom := errors.New("boom")
	_, err := manager.Update(ctx, key, func() *domain.SessionState {
		s := domain.NewSessionState(key, time.Now())
		s.Cursor = "Q1"
		return s
	}, func(*domain.SessionState) (*domain.SessionState, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	state, err := manager.Load(ctx, key)
	require.NoError(t, err, "the started session is saved under the same lock")
	assert.Equal(t, "Q1", state.Cursor)
}

type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked int
	fail     error
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.fail != nil {
		return nil, l.fail
	}
	l.mu.Lock()
	l.locked = append(l.locked, key)
	l.mu.Unlock()
	return func(context.Context) error {
		l.mu.Lock()
		l.unlocked++
		l.mu.Unlock()
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	ctx := context.Background()
	key := domain.SessionKey{SurveyID: "S", SessionID: "x"}

	locker := &recordingLocker{}
	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker), session.WithLockTTL(time.Second))
	require.NoError(t, manager.Save(ctx, key, domain.NewSessionState(key, time.Now())))
	assert.Equal(t, []string{"S/x"}, locker.locked)
	assert.Equal(t, 1, locker.unlocked)

	failing := session.NewManager(&SlowStore{}, session.WithLocker(&recordingLocker{fail: errors.New("redis down")}))
	err := failing.Save(ctx, key, domain.NewSessionState(key, time.Now()))
	assert.ErrorContains(t, err, "distributed lock")
}
