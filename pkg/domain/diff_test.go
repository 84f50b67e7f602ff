package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	old := &SessionState{
		SurveyID:  "CULTURE_DISCRIMINATION",
		SessionID: "TESTSESSION",
		Status:    StatusActive,
		Cursor:    "Q1",
		Answers:   []Answer{},
		Skipped:   []string{},
		Version:   0,
	}
	next := old.Clone()
	next.Cursor = "Q3"
	next.Answers = append(next.Answers, Answer{QuestionID: "Q1", Values: []string{"No"}})
	next.Skipped = append(next.Skipped, "Q2")
	next.Version = 1

	t.Run("initial load", func(t *testing.T) {
		d := Diff(nil, old)
		require.NotNil(t, d)
		assert.Equal(t, "Q1", *d.Cursor)
		assert.Equal(t, StatusActive, *d.Status)
		assert.Empty(t, d.Answered)
	})

	t.Run("transition", func(t *testing.T) {
		d := Diff(old, next)
		require.NotNil(t, d)
		assert.Equal(t, "Q3", *d.Cursor)
		assert.Nil(t, d.Status)
		assert.Equal(t, []Answer{{QuestionID: "Q1", Values: []string{"No"}}}, d.Answered)
		assert.Equal(t, []string{"Q2"}, d.Skipped)
		assert.Equal(t, 1, d.Version)

		raw, err := json.Marshal(d)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"skipped":["Q2"]`)
		assert.NotContains(t, string(raw), `"status"`)
	})

	t.Run("no changes", func(t *testing.T) {
		assert.Nil(t, Diff(next, next.Clone()))
	})

	t.Run("nil new", func(t *testing.T) {
		assert.Nil(t, Diff(old, nil))
	})
}
