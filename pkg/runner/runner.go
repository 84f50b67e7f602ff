package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/canvass"
	"github.com/aretw0/canvass/internal/logging"
	"github.com/aretw0/canvass/pkg/domain"
)

// Runner handles the question loop of a session using the provided IOHandler.
type Runner struct {
	Handler IOHandler
	Logger  *slog.Logger
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithInputHandler configures the IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// NewRunner creates a Runner. Without a handler it talks text over stdin/stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// Run starts or resumes the session and loops until it completes or input ends.
// Reaching the end of input is not an error: the returned step tells where the
// respondent stopped.
func (r *Runner) Run(ctx context.Context, eng *canvass.Engine, surveyID, sessionID string) (*canvass.Step, error) {
	step, err := eng.Start(ctx, surveyID, sessionID)
	if err != nil {
		return nil, err
	}

	presented := ""
	for !step.Complete() {
		if step.Question.ID != presented {
			if err := r.Handler.Present(ctx, step); err != nil {
				return step, fmt.Errorf("output error: %w", err)
			}
			presented = step.Question.ID
		}

		reply, err := r.Handler.Input(ctx, step.Question)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.Logger.Debug("input closed", "survey_id", surveyID, "session_id", sessionID, "cursor", step.State.Cursor)
				return step, nil
			}
			return step, err
		}

		next, err := r.apply(ctx, eng, step, reply)
		if err != nil {
			var terr *domain.TransitionError
			if !errors.As(err, &terr) {
				return step, err
			}
			if err := r.Handler.Notice(ctx, Explain(err)); err != nil {
				return step, err
			}
		}
		if next != nil {
			step = next
		}
	}

	if err := r.Handler.Finish(ctx, step); err != nil {
		return step, fmt.Errorf("output error: %w", err)
	}
	return step, nil
}

func (r *Runner) apply(ctx context.Context, eng *canvass.Engine, step *canvass.Step, reply Reply) (*canvass.Step, error) {
	q := step.Question.ID
	if reply.Decline {
		return eng.Decline(ctx, step.State.SurveyID, step.State.SessionID, q)
	}
	return eng.Submit(ctx, step.State.SurveyID, step.State.SessionID, q, reply.Values...)
}

// Explain turns a rejected submission into a message for the respondent.
func Explain(err error) string {
	switch domain.Code(err) {
	case "invalid_answer":
		var terr *domain.TransitionError
		if errors.As(err, &terr) && errors.Unwrap(terr.Err) != nil {
			return fmt.Sprintf("That answer was not accepted (%v).", terr.Err)
		}
		return "That answer was not accepted."
	case "out_of_turn":
		return "That question is no longer open; please answer the current one."
	case "already_complete":
		return "This survey is already complete."
	default:
		return err.Error()
	}
}
