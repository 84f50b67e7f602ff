package canvass_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/canvass"
	"github.com/aretw0/canvass/internal/testutils"
	"github.com/aretw0/canvass/pkg/adapters/memory"
	"github.com/aretw0/canvass/pkg/domain"
	"github.com/aretw0/canvass/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	survey  = testutils.CultureSurveyID
	session = "TESTSESSION"
)

func newEngine(t *testing.T, opts ...canvass.Option) *canvass.Engine {
	t.Helper()
	eng, err := canvass.New(context.Background(), opts...)
	require.NoError(t, err)
	return eng
}

func TestEngine_BuiltinCatalog(t *testing.T) {
	eng := newEngine(t)
	assert.Equal(t, []string{survey}, eng.Catalog().IDs())

	_, err := eng.Survey("NOPE")
	assert.ErrorIs(t, err, domain.ErrUnknownSurvey)
}

func TestEngine_Scenario(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	step, err := eng.Start(ctx, survey, session)
	require.NoError(t, err)
	assert.True(t, step.Created)
	assert.Equal(t, "Q1", step.Question.ID)

	step, err = eng.Submit(ctx, survey, session, "Q1", "No")
	require.NoError(t, err)
	assert.Equal(t, domain.NextResult("Q3"), step.Result)
	assert.True(t, step.State.IsSkipped("Q2"))

	step, err = eng.Submit(ctx, survey, session, "Q3", "No")
	require.NoError(t, err)
	assert.Equal(t, domain.NextResult("Q5"), step.Result)
	assert.True(t, step.State.IsSkipped("Q4"))

	for _, s := range [][2]string{{"Q5", "Agree"}, {"Q6", "No"}, {"Q7", "Nothing to add"}} {
		step, err = eng.Submit(ctx, survey, session, s[0], s[1])
		require.NoError(t, err)
	}
	assert.True(t, step.Complete())
	assert.Nil(t, step.Question)
	assert.Equal(t, "The survey is complete. Please proceed to the next page.---END---", step.EndMessage())

	resolved, total := step.Progress()
	assert.Equal(t, 7, resolved)
	assert.Equal(t, 7, total)

	for _, q := range []string{"Q1", "Q2", "Q3", "Q4", "Q5", "Q6", "Q7"} {
		_, err := eng.Submit(ctx, survey, session, q, "Yes")
		assert.ErrorIs(t, err, domain.ErrAlreadyComplete, q)
	}
}

func TestEngine_StartResumes(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	_, err := eng.Start(ctx, survey, session)
	require.NoError(t, err)
	_, err = eng.Submit(ctx, survey, session, "Q1", "Yes")
	require.NoError(t, err)

	step, err := eng.Start(ctx, survey, session)
	require.NoError(t, err)
	assert.False(t, step.Created)
	assert.Equal(t, "Q2", step.Question.ID)
}

func TestEngine_SubmitWithoutStartInitializes(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	step, err := eng.Submit(ctx, survey, "fresh", "Q1", "No")
	require.NoError(t, err)
	assert.True(t, step.Created)
	assert.Equal(t, "Q3", step.Question.ID)
}

func TestEngine_RejectionRedisplaysCurrentQuestion(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	_, err := eng.Start(ctx, survey, session)
	require.NoError(t, err)

	step, err := eng.Submit(ctx, survey, session, "Q1", "Maybe")
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)
	require.NotNil(t, step)
	assert.Equal(t, "Q1", step.Question.ID)

	step, err = eng.Submit(ctx, survey, session, "Q5", "Agree")
	assert.ErrorIs(t, err, domain.ErrOutOfTurn)
	assert.Equal(t, "Q1", step.Question.ID)

	current, err := eng.Current(ctx, survey, session)
	require.NoError(t, err)
	assert.Equal(t, 0, current.State.Version, "rejections leave the stored state untouched")
}

func TestEngine_RejectedFirstContactKeepsSession(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	step, err := eng.Submit(ctx, survey, "early", "Q3", "No")
	assert.ErrorIs(t, err, domain.ErrOutOfTurn)
	assert.True(t, step.Created)

	current, err := eng.Current(ctx, survey, "early")
	require.NoError(t, err)
	assert.Equal(t, "Q1", current.Question.ID)
}

func TestEngine_Decline(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	step, err := eng.Decline(ctx, survey, session, "Q1")
	require.NoError(t, err)
	assert.Equal(t, "Q3", step.Question.ID)
	assert.Equal(t, []string{"Q1", "Q2"}, step.State.Skipped)
}

func TestEngine_Errors(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	_, err := eng.Start(ctx, "NOPE", session)
	assert.ErrorIs(t, err, domain.ErrUnknownSurvey)

	_, err = eng.Current(ctx, survey, "never-started")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = eng.Start(ctx, survey, "")
	assert.ErrorIs(t, err, domain.ErrInvalidSessionKey)
}

func TestEngine_DeleteAndSessions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	eng := newEngine(t, canvass.WithStore(store))

	_, err := eng.Start(ctx, survey, "a")
	require.NoError(t, err)
	_, err = eng.Start(ctx, survey, "b")
	require.NoError(t, err)

	keys, err := eng.Sessions(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	require.NoError(t, eng.Delete(ctx, survey, "a"))
	_, err = eng.Current(ctx, survey, "a")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Same(t, store, eng.Store())
}

func TestEngine_ConcurrentSubmissions(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)
	_, err := eng.Start(ctx, survey, session)
	require.NoError(t, err)

	var accepted, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.Submit(ctx, survey, session, "Q1", "No")
			if err == nil {
				accepted.Add(1)
				return
			}
			if errors.Is(err, domain.ErrOutOfTurn) {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, accepted.Load())
	assert.EqualValues(t, 19, rejected.Load())
}

func TestEngine_ConcurrentFirstContact(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	eng := newEngine(t, canvass.WithStore(store))

	for i := 0; i < 30; i++ {
		id := fmt.Sprintf("first-contact-%d", i)
		var accepted atomic.Int32
		var wg sync.WaitGroup
		for j := 0; j < 10; j++ {
			value := "No"
			if j%2 == 0 {
				value = "Maybe"
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := eng.Submit(ctx, survey, id, "Q1", value); err == nil {
					accepted.Add(1)
				}
			}()
		}
		wg.Wait()

		require.EqualValues(t, 1, accepted.Load(), id)
		state, err := store.Load(ctx, domain.SessionKey{SurveyID: survey, SessionID: id})
		require.NoError(t, err)
		assert.Equal(t, "Q3", state.Cursor, id)
		assert.Len(t, state.Answers, 1, id)
		assert.Equal(t, []string{"Q2"}, state.Skipped, id)
	}
}

// sharedLocker is an in-process DistributedLocker shared by several engines.
// afterUnlock, when set, runs once right after a lock is released.
type sharedLocker struct {
	mu          sync.Mutex
	keys        map[string]*sync.Mutex
	afterUnlock func()
}

func (l *sharedLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	if l.keys == nil {
		l.keys = make(map[string]*sync.Mutex)
	}
	m, ok := l.keys[key]
	if !ok {
		m = &sync.Mutex{}
		l.keys[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return func(context.Context) error {
		m.Unlock()
		l.mu.Lock()
		hook := l.afterUnlock
		l.afterUnlock = nil
		l.mu.Unlock()
		if hook != nil {
			hook()
		}
		return nil
	}, nil
}

func TestEngine_RejectedFirstContactAcrossReplicas(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	locker := &sharedLocker{}
	replicaA := newEngine(t, canvass.WithStore(store), canvass.WithLocker(locker))
	replicaB := newEngine(t, canvass.WithStore(store), canvass.WithLocker(locker))

	var stepB *canvass.Step
	var errB error
	locker.afterUnlock = func() {
		// Replica B answers as soon as A lets go of the session.
		stepB, errB = replicaB.Submit(ctx, survey, session, "Q1", "No")
	}

	stepA, errA := replicaA.Submit(ctx, survey, session, "Q1", "Maybe")
	require.ErrorIs(t, errA, domain.ErrInvalidAnswer)
	assert.Equal(t, "Q1", stepA.Question.ID)

	require.NoError(t, errB)
	assert.Equal(t, domain.NextResult("Q3"), stepB.Result)

	for _, eng := range []*canvass.Engine{replicaA, replicaB} {
		step, err := eng.Current(ctx, survey, session)
		require.NoError(t, err)
		assert.Equal(t, "Q3", step.State.Cursor, "the accepted answer survives")
		assert.Equal(t, 1, step.State.Version)
	}
}

func TestEngine_Subscribe(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	var diffs []*domain.StateDiff
	unsubscribe := eng.Subscribe(func(ctx context.Context, d *domain.StateDiff) {
		diffs = append(diffs, d)
	})

	_, err := eng.Start(ctx, survey, session)
	require.NoError(t, err)
	_, err = eng.Submit(ctx, survey, session, "Q1", "No")
	require.NoError(t, err)
	_, err = eng.Submit(ctx, survey, session, "Q1", "No")
	require.Error(t, err)

	require.Len(t, diffs, 2, "rejections produce no diff")
	assert.Equal(t, "Q1", *diffs[0].Cursor)
	assert.Equal(t, "Q3", *diffs[1].Cursor)
	assert.Equal(t, []string{"Q2"}, diffs[1].Skipped)
	assert.Equal(t, "Q1", diffs[1].Answered[0].QuestionID)

	unsubscribe()
	_, err = eng.Submit(ctx, survey, session, "Q3", "No")
	require.NoError(t, err)
	assert.Len(t, diffs, 2)
}

func TestEngine_Hooks(t *testing.T) {
	ctx := context.Background()
	var completed atomic.Int32
	eng := newEngine(t,
		canvass.WithCatalog(testutils.NewCatalog(t)),
		canvass.WithLifecycleHooks(domain.LifecycleHooks{
			OnSurveyComplete: func(context.Context, *domain.SessionEvent) { completed.Add(1) },
		}),
	)

	for _, q := range []string{"Q1", "Q3", "Q5", "Q6", "Q7"} {
		_, err := eng.Decline(ctx, survey, session, q)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, completed.Load())
}
