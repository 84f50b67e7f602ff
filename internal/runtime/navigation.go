package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/canvass/pkg/domain"
)

type submission struct {
	questionID string
	values     []string
	declined   bool
}

// transition is the single state-changing operation of the engine.
// All checks run against the input state before anything is copied, and every
// mutation is applied to a clone, so a rejected submission leaves no trace.
func (e *Engine) transition(ctx context.Context, state *domain.SessionState, survey *domain.Survey, sub submission) (*domain.SessionState, domain.Result, error) {
	if state == nil || survey == nil {
		return nil, domain.Result{}, errors.New("transition requires a state and a survey")
	}
	if state.SurveyID != survey.ID {
		return nil, domain.Result{}, fmt.Errorf("%w: state belongs to %q, not %q", domain.ErrUnknownSurvey, state.SurveyID, survey.ID)
	}

	question, values, err := e.checkSubmission(state, survey, sub)
	if err != nil {
		return nil, domain.Result{}, e.reject(ctx, state, sub, err)
	}

	next := state.Clone()
	if sub.declined {
		next.Skipped = append(next.Skipped, question.ID)
	} else {
		next.Answers = append(next.Answers, domain.Answer{QuestionID: question.ID, Values: values})
	}

	skipped := e.applyRules(next, survey, question, values)

	pos, _ := survey.Position(question.ID)
	result := advance(next, survey, pos)

	next.Version++
	next.UpdatedAt = e.now()

	e.logger.Debug("transition accepted",
		"survey_id", next.SurveyID,
		"session_id", next.SessionID,
		"question_id", question.ID,
		"declined", sub.declined,
		"skipped", skipped,
		"result", result.String(),
	)
	e.announce(ctx, next, question.ID, values, sub.declined, skipped, result)

	return next, result, nil
}

// checkSubmission enforces the preconditions: not complete, in turn, in domain.
func (e *Engine) checkSubmission(state *domain.SessionState, survey *domain.Survey, sub submission) (*domain.Question, []string, error) {
	if state.IsComplete() {
		return nil, nil, domain.ErrAlreadyComplete
	}
	if sub.questionID != state.Cursor {
		return nil, nil, domain.ErrOutOfTurn
	}

	question, ok := survey.Question(state.Cursor)
	if !ok {
		return nil, nil, fmt.Errorf("%w: cursor %q is not part of survey %q", domain.ErrInvalidSurvey, state.Cursor, survey.ID)
	}
	if state.IsResolved(question.ID) {
		// Unreachable for states produced by this engine; guards against tampered stores.
		return nil, nil, fmt.Errorf("%w: question %q is already resolved", domain.ErrOutOfTurn, question.ID)
	}

	if sub.declined {
		if !question.Optional {
			return nil, nil, fmt.Errorf("%w: question %q cannot be declined", domain.ErrInvalidAnswer, question.ID)
		}
		return question, nil, nil
	}

	values, err := question.Normalize(sub.values)
	if err != nil {
		return nil, nil, err
	}
	return question, values, nil
}

// applyRules evaluates the rules attached to the just-resolved question and marks
// their unresolved targets as skipped. Targets already answered or skipped are left as is.
// A question skipped this way has no value, so its own rules are then evaluated with none:
// not_equals rules on it fire and equals rules do not.
func (e *Engine) applyRules(next *domain.SessionState, survey *domain.Survey, question *domain.Question, values []string) []string {
	var skipped []string
	type pending struct {
		question *domain.Question
		values   []string
	}
	queue := []pending{{question, values}}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, rule := range p.question.Rules {
			if !rule.Fires(p.values) {
				continue
			}
			for _, target := range rule.Targets {
				if next.IsResolved(target) {
					continue
				}
				next.Skipped = append(next.Skipped, target)
				skipped = append(skipped, target)
				if q, ok := survey.Question(target); ok {
					queue = append(queue, pending{question: q})
				}
			}
		}
	}
	return skipped
}

// advance moves the cursor to the first unresolved question after pos,
// or marks the session complete when none remains.
func advance(next *domain.SessionState, survey *domain.Survey, pos int) domain.Result {
	for i := pos + 1; i < len(survey.Questions); i++ {
		id := survey.Questions[i].ID
		if next.IsResolved(id) {
			continue
		}
		next.Cursor = id
		next.Presented = append(next.Presented, id)
		return domain.NextResult(id)
	}
	next.Cursor = ""
	next.Status = domain.StatusComplete
	return domain.CompleteResult()
}

func (e *Engine) reject(ctx context.Context, state *domain.SessionState, sub submission, err error) error {
	terr := &domain.TransitionError{
		SurveyID:   state.SurveyID,
		SessionID:  state.SessionID,
		QuestionID: sub.questionID,
		Cursor:     state.Cursor,
		Err:        err,
	}

	e.logger.Info("submission rejected",
		"survey_id", state.SurveyID,
		"session_id", state.SessionID,
		"question_id", sub.questionID,
		"cursor", state.Cursor,
		"err", err,
	)

	if e.hooks.OnSubmissionRejected != nil {
		e.hooks.OnSubmissionRejected(ctx, &domain.SessionEvent{
			Timestamp:  e.now(),
			Type:       domain.EventSubmissionRejected,
			SurveyID:   state.SurveyID,
			SessionID:  state.SessionID,
			QuestionID: sub.questionID,
			Values:     sub.values,
			Err:        terr,
		})
	}
	return terr
}

func (e *Engine) announce(ctx context.Context, next *domain.SessionState, questionID string, values []string, declined bool, skipped []string, result domain.Result) {
	if declined {
		if e.hooks.OnQuestionSkipped != nil {
			e.hooks.OnQuestionSkipped(ctx, &domain.SessionEvent{
				Timestamp:  e.now(),
				Type:       domain.EventQuestionSkipped,
				SurveyID:   next.SurveyID,
				SessionID:  next.SessionID,
				QuestionID: questionID,
				Declined:   true,
			})
		}
	} else {
		e.emit(ctx, e.hooks.OnAnswerRecorded, next, domain.EventAnswerRecorded, questionID, values)
	}

	for _, id := range skipped {
		e.emit(ctx, e.hooks.OnQuestionSkipped, next, domain.EventQuestionSkipped, id, nil)
	}

	if result.Complete {
		e.emit(ctx, e.hooks.OnSurveyComplete, next, domain.EventSurveyComplete, "", nil)
		return
	}
	e.emit(ctx, e.hooks.OnQuestionPresented, next, domain.EventQuestionPresented, result.Next, nil)
}
