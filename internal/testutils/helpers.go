package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/canvass/pkg/domain"
	"github.com/stretchr/testify/require"
)

// CultureSurveyID is the identifier of the reference discrimination survey.
const CultureSurveyID = "CULTURE_DISCRIMINATION"

// CultureSurvey returns a fresh copy of the seven question discrimination survey.
// Q2 is only asked when Q1 is "Yes", Q4 only when Q3 is "Yes".
func CultureSurvey() *domain.Survey {
	return &domain.Survey{
		ID:         CultureSurveyID,
		Title:      "Discrimination & Bias",
		Intro:      "Thanks for taking a few minutes. There are no right or wrong answers, and you can skip any question.",
		EndMessage: domain.DefaultEndMessage,
		Questions: []domain.Question{
			{
				ID: "Q1", Type: domain.QuestionSingleChoice, Optional: true,
				Text:    "In the past year, have you been discriminated against for any aspect of your identity?",
				Options: []string{"Yes", "No", "Prefer not to say"},
				Rules:   []domain.SkipRule{{Kind: domain.RuleNotEquals, Values: []string{"Yes"}, Targets: []string{"Q2"}}},
			},
			{
				ID: "Q2", Type: domain.QuestionMultiChoice, Optional: true,
				Text:    "If you have been discriminated against, please select the source of the discrimination.",
				Options: []string{"Manager", "Colleague", "Customer/Client", "Policy/Process", "Other", "Prefer not to say"},
			},
			{
				ID: "Q3", Type: domain.QuestionSingleChoice, Optional: true,
				Text:    "In the past year, have you witnessed discrimination against anyone else in the organisation?",
				Options: []string{"Yes", "No", "Not sure"},
				Rules:   []domain.SkipRule{{Kind: domain.RuleNotEquals, Values: []string{"Yes"}, Targets: []string{"Q4"}}},
			},
			{
				ID: "Q4", Type: domain.QuestionMultiChoice, Optional: true,
				Text:    "If you have witnessed discrimination, please select the source of the discrimination.",
				Options: []string{"Manager", "Colleague", "Customer/Client", "Policy/Process", "Other", "Not sure", "Prefer not to say"},
			},
			{
				ID: "Q5", Type: domain.QuestionLikert5, Optional: true,
				Text:    "This company takes active steps to prevent discrimination in the workplace.",
				Options: []string{"Strongly agree", "Agree", "Neither agree nor disagree", "Disagree", "Strongly disagree"},
			},
			{
				ID: "Q6", Type: domain.QuestionSingleChoice, Optional: true,
				Text:    "Do you feel comfortable addressing issues of discrimination or bias, regardless of your position or seniority?",
				Options: []string{"Yes", "No"},
			},
			{
				ID: "Q7", Type: domain.QuestionFreeText, Optional: true,
				Text: "Have we missed any social / cultural / demographic causes of discrimination you believe are important? If so, please let us know what they are.",
			},
		},
	}
}

// NewCatalog builds a catalog and fails the test on validation errors.
func NewCatalog(t *testing.T, surveys ...*domain.Survey) *domain.Catalog {
	t.Helper()
	if len(surveys) == 0 {
		surveys = []*domain.Survey{CultureSurvey()}
	}
	cat, err := domain.NewCatalog(surveys...)
	require.NoError(t, err, "invalid test catalog")
	return cat
}

// WriteFile writes content under dir (creating parents) and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
