package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/canvass/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestTransitionError(t *testing.T) {
	err := &domain.TransitionError{
		SurveyID: "S", SessionID: "x", QuestionID: "Q1", Cursor: "Q3",
		Err: domain.ErrOutOfTurn,
	}
	assert.ErrorIs(t, err, domain.ErrOutOfTurn)
	assert.Equal(t, `S/x: question "Q1": question is out of turn (current question is "Q3")`, err.Error())

	var wrapped error = fmt.Errorf("submit: %w", err)
	var terr *domain.TransitionError
	assert.True(t, errors.As(wrapped, &terr))
	assert.Equal(t, "Q3", terr.Cursor)
}

func TestCode(t *testing.T) {
	tests := map[error]string{
		nil:                         "",
		domain.ErrOutOfTurn:         "out_of_turn",
		domain.ErrInvalidAnswer:     "invalid_answer",
		domain.ErrAlreadyComplete:   "already_complete",
		domain.ErrUnknownSurvey:     "unknown_survey",
		domain.ErrSessionNotFound:   "session_not_found",
		domain.ErrInvalidSurvey:     "invalid_survey",
		domain.ErrInvalidSessionKey: "invalid_session_key",
		errors.New("disk on fire"):  "internal",
	}
	for err, want := range tests {
		assert.Equal(t, want, domain.Code(err))
	}
	assert.Equal(t, "invalid_answer", domain.Code(&domain.TransitionError{Err: fmt.Errorf("%w: nope", domain.ErrInvalidAnswer)}))
}
