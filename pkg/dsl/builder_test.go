package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/canvass/internal/testutils"
	"github.com/aretw0/canvass/pkg/domain"
	"github.com/aretw0/canvass/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_CultureSurvey(t *testing.T) {
	want := testutils.CultureSurvey()

	b := dsl.New(want.ID).
		Title(want.Title).
		Intro(want.Intro).
		EndMessage(want.EndMessage)

	b.Single("Q1", want.Questions[0].Text, want.Questions[0].Options...).Optional().SkipUnless("Yes", "Q2")
	b.Multi("Q2", want.Questions[1].Text, want.Questions[1].Options...).Optional()
	b.Single("Q3", want.Questions[2].Text, want.Questions[2].Options...).Optional().SkipUnless("Yes", "Q4")
	b.Multi("Q4", want.Questions[3].Text, want.Questions[3].Options...).Optional()
	b.Likert("Q5", want.Questions[4].Text, want.Questions[4].Options...).Optional()
	b.Single("Q6", want.Questions[5].Text, want.Questions[5].Options...).Optional()
	b.FreeText("Q7", want.Questions[6].Text).Optional()

	got, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, want.Questions, got.Questions)
	assert.Equal(t, want.Title, got.Title)
}

func TestBuilder_Chaining(t *testing.T) {
	survey, err := dsl.New("PULSE").
		Single("happy", "Good week?", "Yes", "No").SkipWhen("Yes", "why").Then().
		FreeText("why", "What got in the way?").Optional().Then().
		Build()
	require.NoError(t, err)

	require.Len(t, survey.Questions, 2)
	assert.Equal(t, []domain.SkipRule{{Kind: domain.RuleEquals, Values: []string{"Yes"}, Targets: []string{"why"}}}, survey.Questions[0].Rules)
	assert.True(t, survey.Questions[1].Optional)
}

func TestBuilder_AddIsIdempotent(t *testing.T) {
	b := dsl.New("S")
	first := b.Single("q", "Q?", "a", "b")
	again := b.Single("q", "ignored")
	assert.Same(t, first, again)

	survey, err := b.Build()
	require.NoError(t, err)
	assert.Len(t, survey.Questions, 1)
	assert.Equal(t, "Q?", survey.Questions[0].Text)
}

func TestBuilder_InvalidSurvey(t *testing.T) {
	b := dsl.New("BROKEN")
	b.Single("q1", "Ready?", "Yes", "No").SkipWhen("No", "q0")
	b.FreeText("q0", "Earlier?")

	// q0 is added after q1, so the rule points backwards.
	_, err := b.Build()
	assert.ErrorIs(t, err, domain.ErrInvalidSurvey)
}

func TestBuilder_BuildDoesNotAlias(t *testing.T) {
	b := dsl.New("S")
	q := b.Single("q", "Q?", "a", "b")

	first, err := b.Build()
	require.NoError(t, err)

	q.Optional()
	second, err := b.Build()
	require.NoError(t, err)

	assert.False(t, first.Questions[0].Optional)
	assert.True(t, second.Questions[0].Optional)
}

func TestBuilder_Loader(t *testing.T) {
	b := dsl.New("S")
	b.FreeText("q", "Anything?")

	loader, err := b.Loader()
	require.NoError(t, err)
	cat, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"S"}, cat.IDs())
}
