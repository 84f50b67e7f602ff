package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfTurn is returned when a submission references a question other than the cursor.
	ErrOutOfTurn = errors.New("question is out of turn")

	// ErrInvalidAnswer is returned when a value lies outside the question's answer domain.
	ErrInvalidAnswer = errors.New("invalid answer")

	// ErrAlreadyComplete is returned when a submission arrives after the survey has completed.
	ErrAlreadyComplete = errors.New("survey already complete")

	// ErrUnknownSurvey is returned when a survey ID is not present in the catalog.
	ErrUnknownSurvey = errors.New("unknown survey")

	// ErrSessionNotFound is returned when a session key cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidSessionKey is returned when a survey or session ID cannot address a session.
	ErrInvalidSessionKey = errors.New("invalid session key")

	// ErrInvalidSurvey is returned when a survey definition violates its structural rules.
	ErrInvalidSurvey = errors.New("invalid survey definition")
)

// TransitionError describes a rejected submission.
// The session state it refers to is left untouched.
type TransitionError struct {
	SurveyID   string
	SessionID  string
	QuestionID string
	Cursor     string
	Detail     string
	Err        error
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("%s/%s: question %q: %v", e.SurveyID, e.SessionID, e.QuestionID, e.Err)
	if e.Cursor != "" && errors.Is(e.Err, ErrOutOfTurn) {
		msg += fmt.Sprintf(" (current question is %q)", e.Cursor)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// Code returns a stable snake_case identifier for the sentinel wrapped by err,
// suitable for metric labels and API payloads. Unrecognized errors map to "internal".
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOutOfTurn):
		return "out_of_turn"
	case errors.Is(err, ErrInvalidAnswer):
		return "invalid_answer"
	case errors.Is(err, ErrAlreadyComplete):
		return "already_complete"
	case errors.Is(err, ErrUnknownSurvey):
		return "unknown_survey"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrInvalidSessionKey):
		return "invalid_session_key"
	case errors.Is(err, ErrInvalidSurvey):
		return "invalid_survey"
	default:
		return "internal"
	}
}
