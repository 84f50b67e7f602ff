package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/canvass/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405.000000")
	key := domain.SessionKey{SurveyID: "CONTRACT", SessionID: "session-" + suffix}

	sample := func(k domain.SessionKey) *domain.SessionState {
		state := domain.NewSessionState(k, time.Now().UTC().Truncate(time.Second))
		state.Cursor = "Q3"
		state.Answers = append(state.Answers,
			domain.Answer{QuestionID: "Q1", Values: []string{"No"}},
		)
		state.Skipped = append(state.Skipped, "Q2")
		state.Presented = append(state.Presented, "Q1", "Q3")
		state.Version = 1
		return state
	}

	t.Run("Save and Load", func(t *testing.T) {
		state := sample(key)
		require.NoError(t, store.Save(ctx, key, state), "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.SurveyID, loaded.SurveyID)
		assert.Equal(t, state.SessionID, loaded.SessionID)
		assert.Equal(t, state.Cursor, loaded.Cursor)
		assert.Equal(t, state.Status, loaded.Status)
		assert.Equal(t, state.Answers, loaded.Answers)
		assert.Equal(t, state.Skipped, loaded.Skipped)
		assert.Equal(t, state.Presented, loaded.Presented)
		assert.Equal(t, state.Version, loaded.Version)
		assert.True(t, state.CreatedAt.Equal(loaded.CreatedAt), "CreatedAt should survive a round trip")
	})

	t.Run("Overwrite", func(t *testing.T) {
		state := sample(key)
		state.Answers = append(state.Answers, domain.Answer{QuestionID: "Q3", Values: []string{"Yes"}})
		state.Cursor = "Q4"
		state.Version = 2
		require.NoError(t, store.Save(ctx, key, state))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "Q4", loaded.Cursor)
		assert.Len(t, loaded.Answers, 2)
		assert.Equal(t, 2, loaded.Version)
	})

	t.Run("Isolation", func(t *testing.T) {
		state := sample(key)
		require.NoError(t, store.Save(ctx, key, state))

		// Mutating the caller's copy must not leak into the store.
		state.Skipped = append(state.Skipped, "Q9")
		state.Answers[0].Values[0] = "tampered"

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []string{"Q2"}, loaded.Skipped)
		assert.Equal(t, []string{"No"}, loaded.Answers[0].Values)
	})

	t.Run("Keys are compound", func(t *testing.T) {
		other := domain.SessionKey{SurveyID: "CONTRACT_OTHER", SessionID: key.SessionID}
		_, err := store.Load(ctx, other)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "same session id under another survey must be a different session")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, domain.SessionKey{SurveyID: "CONTRACT", SessionID: "non-existent-" + suffix})
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, sample(key)))
		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Deleting a missing session should not fail")
	})

	t.Run("List", func(t *testing.T) {
		k1 := domain.SessionKey{SurveyID: "CONTRACT", SessionID: fmt.Sprintf("list-%s-1", suffix)}
		k2 := domain.SessionKey{SurveyID: "CONTRACT_OTHER", SessionID: fmt.Sprintf("list-%s-2", suffix)}
		require.NoError(t, store.Save(ctx, k1, sample(k1)))
		require.NoError(t, store.Save(ctx, k2, sample(k2)))

		defer func() {
			_ = store.Delete(ctx, k1)
			_ = store.Delete(ctx, k2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)
	})
}
