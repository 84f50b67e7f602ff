package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
	"testing"
	"time"

	"github.com/aretw0/canvass/pkg/adapters/memory"
	"github.com/aretw0/canvass/pkg/domain"
	"github.com/aretw0/canvass/pkg/persistence/middleware"
	"github.com/aretw0/canvass/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

var testKey = domain.SessionKey{SurveyID: "CULTURE_DISCRIMINATION", SessionID: "test-session"}

func sampleState() *domain.SessionState {
	state := domain.NewSessionState(testKey, time.Now().UTC())
	state.Cursor = "Q3"
	state.Answers = append(state.Answers, domain.Answer{QuestionID: "Q1", Values: []string{"No"}})
	state.Skipped = append(state.Skipped, "Q2")
	state.Presented = append(state.Presented, "Q1", "Q3")
	state.Version = 1
	return state
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunSessionStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlyingStore)
	ctx := context.Background()

	original := sampleState()
	require.NoError(t, secureStore.Save(ctx, testKey, original))

	stored, err := underlyingStore.Load(ctx, testKey)
	require.NoError(t, err)
	require.Len(t, stored.Answers, 1)
	assert.Equal(t, middleware.EnvelopeMarker, stored.Answers[0].QuestionID)
	assert.Empty(t, stored.Cursor, "cursor must be sealed")
	assert.Empty(t, stored.Skipped, "skips must be sealed")
	assert.Equal(t, original.Status, stored.Status)
	assert.Equal(t, original.Version, stored.Version)

	loaded, err := secureStore.Load(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, "Q3", loaded.Cursor)
	assert.Equal(t, original.Answers, loaded.Answers)
	assert.Equal(t, original.Skipped, loaded.Skipped)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	storeOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)
	require.NoError(t, storeOld.Save(ctx, testKey, sampleState()))

	storeNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := storeNew.Load(ctx, testKey)
	require.NoError(t, err, "fallback key should decrypt")

	loaded.Cursor = "Q4"
	require.NoError(t, storeNew.Save(ctx, testKey, loaded))

	_, err = storeOld.Load(ctx, testKey)
	assert.Error(t, err, "data re-sealed with the new key must not open with the old one")
}

func TestEncryptionMiddleware_RejectsPlainState(t *testing.T) {
	underlyingStore := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlyingStore.Save(ctx, testKey, sampleState()))

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	_, err := secureStore.Load(ctx, testKey)
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)

	_, err = secureStore.Load(ctx, domain.SessionKey{SurveyID: "x", SessionID: "y"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "missing sessions pass through untouched")
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}

func TestParseKey(t *testing.T) {
	raw := generateKey(t)

	k, err := middleware.ParseKey(hex.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, k)

	k, err = middleware.ParseKey(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, k)

	_, err = middleware.ParseKey("too-short")
	assert.Error(t, err)
}
