package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventQuestionPresented  EventType = "question_presented"
	EventAnswerRecorded     EventType = "answer_recorded"
	EventQuestionSkipped    EventType = "question_skipped"
	EventSurveyComplete     EventType = "survey_complete"
	EventSubmissionRejected EventType = "submission_rejected"
)

// SessionEvent describes something that happened to a session.
type SessionEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       EventType `json:"type"`
	SurveyID   string    `json:"survey_id"`
	SessionID  string    `json:"session_id"`
	QuestionID string    `json:"question_id,omitempty"`
	Values     []string  `json:"values,omitempty"`

	// Declined is set on EventQuestionSkipped when the respondent declined the question
	// instead of a rule skipping it.
	Declined bool `json:"declined,omitempty"`

	// Err is set on EventSubmissionRejected.
	Err error `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks observe transitions; they cannot alter or veto them.
type LifecycleHooks struct {
	OnQuestionPresented  func(context.Context, *SessionEvent)
	OnAnswerRecorded     func(context.Context, *SessionEvent)
	OnQuestionSkipped    func(context.Context, *SessionEvent)
	OnSurveyComplete     func(context.Context, *SessionEvent)
	OnSubmissionRejected func(context.Context, *SessionEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	chain := func(a, b func(context.Context, *SessionEvent)) func(context.Context, *SessionEvent) {
		switch {
		case a == nil:
			return b
		case b == nil:
			return a
		}
		return func(ctx context.Context, e *SessionEvent) {
			a(ctx, e)
			b(ctx, e)
		}
	}
	return LifecycleHooks{
		OnQuestionPresented:  chain(h.OnQuestionPresented, other.OnQuestionPresented),
		OnAnswerRecorded:     chain(h.OnAnswerRecorded, other.OnAnswerRecorded),
		OnQuestionSkipped:    chain(h.OnQuestionSkipped, other.OnQuestionSkipped),
		OnSurveyComplete:     chain(h.OnSurveyComplete, other.OnSurveyComplete),
		OnSubmissionRejected: chain(h.OnSubmissionRejected, other.OnSubmissionRejected),
	}
}
