package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// SessionStatus is the state machine mode of a session.
type SessionStatus string

const (
	StatusActive   SessionStatus = "active"   // Cursor points to the question to present
	StatusComplete SessionStatus = "complete" // Terminal: no unresolved question remains
)

// SessionKey is the compound (survey, session) identifier used throughout.
type SessionKey struct {
	SurveyID  string `json:"survey_id"`
	SessionID string `json:"session_id"`
}

// String renders the key as "survey/session", matching the transport addressing scheme.
func (k SessionKey) String() string {
	return k.SurveyID + "/" + k.SessionID
}

// Validate checks that both parts are present and free of the separator.
func (k SessionKey) Validate() error {
	if k.SurveyID == "" || k.SessionID == "" {
		return fmt.Errorf("%w: survey and session ids are required (got %q)", ErrInvalidSessionKey, k.String())
	}
	if strings.Contains(k.SurveyID, "/") || strings.Contains(k.SessionID, "/") {
		return fmt.Errorf("%w: ids must not contain '/' (got %q)", ErrInvalidSessionKey, k.String())
	}
	return nil
}

// ParseSessionKey parses "survey/session".
func ParseSessionKey(s string) (SessionKey, error) {
	survey, session, ok := strings.Cut(strings.Trim(s, "/"), "/")
	if !ok {
		return SessionKey{}, fmt.Errorf("%w: %q (expected survey/session)", ErrInvalidSessionKey, s)
	}
	k := SessionKey{SurveyID: survey, SessionID: session}
	return k, k.Validate()
}

// Answer is a recorded answer. Values holds one entry for single choice and
// free text questions, and one or more for multi choice questions.
type Answer struct {
	QuestionID string   `json:"question_id"`
	Values     []string `json:"values"`
}

// SessionState is the snapshot of one respondent's traversal of a survey.
//
// Answers and Skipped are disjoint and append-only: once a question is resolved it
// never moves or disappears for the lifetime of the session.
type SessionState struct {
	SurveyID  string `json:"survey_id"`
	SessionID string `json:"session_id"`

	Status SessionStatus `json:"status"`

	// Cursor is the question to present next. Empty once Status is StatusComplete.
	Cursor string `json:"cursor,omitempty"`

	// Answers in the order they were recorded.
	Answers []Answer `json:"answers"`

	// Skipped question IDs in the order they were resolved.
	Skipped []string `json:"skipped"`

	// Presented tracks every question handed to the presentation layer, in order.
	Presented []string `json:"presented"`

	// Version counts accepted transitions.
	Version int `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSessionState creates an empty state for the key with no cursor yet.
func NewSessionState(key SessionKey, now time.Time) *SessionState {
	return &SessionState{
		SurveyID:  key.SurveyID,
		SessionID: key.SessionID,
		Status:    StatusActive,
		Answers:   []Answer{},
		Skipped:   []string{},
		Presented: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Key returns the compound key of the session.
func (s *SessionState) Key() SessionKey {
	return SessionKey{SurveyID: s.SurveyID, SessionID: s.SessionID}
}

// IsComplete reports whether the session reached its terminal state.
func (s *SessionState) IsComplete() bool {
	return s.Status == StatusComplete
}

// AnswerFor returns the recorded values for a question.
func (s *SessionState) AnswerFor(questionID string) ([]string, bool) {
	for _, a := range s.Answers {
		if a.QuestionID == questionID {
			return a.Values, true
		}
	}
	return nil, false
}

// IsAnswered reports whether the question has a recorded answer.
func (s *SessionState) IsAnswered(questionID string) bool {
	_, ok := s.AnswerFor(questionID)
	return ok
}

// IsSkipped reports whether the question was skipped by a rule or declined.
func (s *SessionState) IsSkipped(questionID string) bool {
	return slices.Contains(s.Skipped, questionID)
}

// IsResolved reports whether the question is answered or skipped.
func (s *SessionState) IsResolved(questionID string) bool {
	return s.IsAnswered(questionID) || s.IsSkipped(questionID)
}

// Resolved returns |answered| + |skipped|.
func (s *SessionState) Resolved() int {
	return len(s.Answers) + len(s.Skipped)
}

// Clone returns a deep copy safe for independent mutation.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	next := *s
	next.Answers = make([]Answer, len(s.Answers))
	for i, a := range s.Answers {
		next.Answers[i] = Answer{QuestionID: a.QuestionID, Values: slices.Clone(a.Values)}
	}
	next.Skipped = slices.Clone(s.Skipped)
	next.Presented = slices.Clone(s.Presented)
	if next.Skipped == nil {
		next.Skipped = []string{}
	}
	if next.Presented == nil {
		next.Presented = []string{}
	}
	return &next
}

// Result tells the presentation layer what to do next.
type Result struct {
	Next     string `json:"next,omitempty"`
	Complete bool   `json:"complete"`
}

// NextResult points at the next question to present.
func NextResult(questionID string) Result {
	return Result{Next: questionID}
}

// CompleteResult signals that the survey is finished.
func CompleteResult() Result {
	return Result{Complete: true}
}

// ResultOf derives the result tag from a state.
func ResultOf(s *SessionState) Result {
	if s.IsComplete() {
		return CompleteResult()
	}
	return NextResult(s.Cursor)
}

func (r Result) String() string {
	if r.Complete {
		return "{complete}"
	}
	return fmt.Sprintf("{next: %s}", r.Next)
}
