package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/canvass/internal/logging"
	"github.com/aretw0/canvass/pkg/domain"
)

// Engine is the survey navigation state machine.
// It holds no session data: every call takes the current state and returns a new one,
// so a single Engine is shared by all sessions.
type Engine struct {
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize returns a fresh state whose cursor is the first question of the survey.
// It has no side effects beyond constructing the state.
func (e *Engine) Initialize(survey *domain.Survey, sessionID string) (*domain.SessionState, domain.Result) {
	key := domain.SessionKey{SurveyID: survey.ID, SessionID: sessionID}
	state := domain.NewSessionState(key, e.now())

	first := survey.FirstQuestionID()
	if first == "" {
		state.Status = domain.StatusComplete
		return state, domain.CompleteResult()
	}

	state.Cursor = first
	state.Presented = append(state.Presented, first)
	return state, domain.NextResult(first)
}

// Start initializes a session and announces its first question to the hooks.
func (e *Engine) Start(ctx context.Context, survey *domain.Survey, sessionID string) (*domain.SessionState, domain.Result) {
	state, result := e.Initialize(survey, sessionID)
	e.logger.Debug("session initialized",
		"survey_id", state.SurveyID,
		"session_id", state.SessionID,
		"cursor", state.Cursor,
	)
	if result.Complete {
		e.emit(ctx, e.hooks.OnSurveyComplete, state, domain.EventSurveyComplete, "", nil)
	} else {
		e.emit(ctx, e.hooks.OnQuestionPresented, state, domain.EventQuestionPresented, result.Next, nil)
	}
	return state, result
}

// Current returns what should be presented for the state without transitioning.
func (e *Engine) Current(state *domain.SessionState) domain.Result {
	return domain.ResultOf(state)
}

// Submit records an answer for the question under the cursor, applies the skip rules
// attached to it and advances the cursor.
// The input state is never modified; on error no new state is returned.
func (e *Engine) Submit(ctx context.Context, state *domain.SessionState, survey *domain.Survey, questionID string, values ...string) (*domain.SessionState, domain.Result, error) {
	return e.transition(ctx, state, survey, submission{questionID: questionID, values: values})
}

// Decline resolves an optional question under the cursor without an answer.
// The question is marked skipped and its rules are evaluated with no values.
func (e *Engine) Decline(ctx context.Context, state *domain.SessionState, survey *domain.Survey, questionID string) (*domain.SessionState, domain.Result, error) {
	return e.transition(ctx, state, survey, submission{questionID: questionID, declined: true})
}

func (e *Engine) emit(ctx context.Context, hook func(context.Context, *domain.SessionEvent), state *domain.SessionState, typ domain.EventType, questionID string, values []string) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.SessionEvent{
		Timestamp:  e.now(),
		Type:       typ,
		SurveyID:   state.SurveyID,
		SessionID:  state.SessionID,
		QuestionID: questionID,
		Values:     values,
	})
}
