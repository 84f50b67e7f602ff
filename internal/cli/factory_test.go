package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/canvass/internal/config"
	"github.com/aretw0/canvass/internal/logging"
	"github.com/aretw0/canvass/internal/testutils"
	"github.com/aretw0/canvass/pkg/adapters/file"
	"github.com/aretw0/canvass/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig(driver, dsn string) config.Config {
	return config.Config{
		LogLevel:    "info",
		LogFormat:   "text",
		StoreDriver: driver,
		StoreDSN:    dsn,
		Metrics:     true,
	}
}

func takeFirstTwo(t *testing.T, stack *Stack) {
	t.Helper()
	ctx := context.Background()
	_, err := stack.Engine.Submit(ctx, testutils.CultureSurveyID, "s1", "Q1", "No")
	require.NoError(t, err)
	step, err := stack.Engine.Submit(ctx, testutils.CultureSurveyID, "s1", "Q3", "Yes")
	require.NoError(t, err)
	assert.Equal(t, "Q4", step.State.Cursor)
}

func TestBuild_Stores(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"memory", baseConfig(config.StoreMemory, "")},
		{"file", baseConfig(config.StoreFile, t.TempDir())},
		{"sqlite", baseConfig(config.StoreSQLite, "file:"+filepath.Join(t.TempDir(), "nested", "canvass.db"))},
		{"redis", baseConfig(config.StoreRedis, "redis://"+mr.Addr()+"/0")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack, err := Build(context.Background(), tt.cfg, logging.NewNop())
			require.NoError(t, err)
			defer stack.Close()

			takeFirstTwo(t, stack)

			state, err := stack.Store.Load(context.Background(), domain.SessionKey{SurveyID: testutils.CultureSurveyID, SessionID: "s1"})
			require.NoError(t, err)
			assert.Equal(t, 2, state.Version)
			assert.NotNil(t, stack.Metrics)
		})
	}
}

func TestBuild_EncryptionAndRedaction(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(config.StoreFile, dir)
	cfg.EncryptionKey = strings.Repeat("ab", 32)
	cfg.RedactFreeText = true

	stack, err := Build(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	ctx := context.Background()
	for _, s := range []struct{ q, v string }{{"Q1", "No"}, {"Q3", "No"}, {"Q5", "Agree"}, {"Q6", "Yes"}, {"Q7", "my secret"}} {
		_, err := stack.Engine.Submit(ctx, testutils.CultureSurveyID, "s1", s.q, s.v)
		require.NoError(t, err)
	}

	key := domain.SessionKey{SurveyID: testutils.CultureSurveyID, SessionID: "s1"}
	raw, err := file.New(dir).Load(ctx, key)
	require.NoError(t, err)
	_, answered := raw.AnswerFor("Q1")
	assert.False(t, answered, "answers at rest are sealed")

	state, err := stack.Store.Load(ctx, key)
	require.NoError(t, err)
	q7, _ := state.AnswerFor("Q7")
	assert.Equal(t, []string{"***"}, q7)
	q1, _ := state.AnswerFor("Q1")
	assert.Equal(t, []string{"No"}, q1)
}

func TestBuild_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Build(ctx, baseConfig("mongo", ""), logging.NewNop())
	assert.ErrorContains(t, err, "unknown store")

	cfg := baseConfig(config.StoreMemory, "")
	cfg.EncryptionKey = "short"
	_, err = Build(ctx, cfg, logging.NewNop())
	assert.ErrorContains(t, err, "invalid encryption key")

	cfg = baseConfig(config.StoreMemory, "")
	cfg.SurveysDir = filepath.Join(t.TempDir(), "missing")
	_, err = Build(ctx, cfg, logging.NewNop())
	assert.ErrorContains(t, err, "error loading surveys")

	_, err = Build(ctx, baseConfig(config.StoreRedis, "redis://127.0.0.1:1/0"), logging.NewNop())
	assert.ErrorContains(t, err, "redis")
}

func TestBuild_SurveysDir(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFile(t, dir, "pulse.yaml", `
id: PULSE
questions:
  - id: mood
    type: likert_5
    text: How was your week?
    options: [Great, Good, Okay, Bad, Awful]
`)
	cfg := baseConfig(config.StoreMemory, "")
	cfg.SurveysDir = dir

	stack, err := Build(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"PULSE"}, stack.Catalog.IDs())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := baseConfig(config.StoreMemory, "")
	cfg.LogFormat = "json"
	cfg.LogLevel = "debug"

	logger, err := NewLogger(cfg, &buf)
	require.NoError(t, err)
	logger.Debug("hello", "error", "boom")
	assert.Contains(t, buf.String(), `"err":"boom"`)

	cfg.LogLevel = "loud"
	_, err = NewLogger(cfg, &buf)
	assert.Error(t, err)
}

func TestSqliteDir(t *testing.T) {
	assert.Equal(t, ".canvass", sqliteDir("file:.canvass/canvass.db?mode=rwc"))
	assert.Equal(t, "", sqliteDir("file:canvass.db"))
	assert.Equal(t, "", sqliteDir(":memory:"))
	assert.Equal(t, "/tmp/x", sqliteDir("/tmp/x/db.sqlite"))
}
