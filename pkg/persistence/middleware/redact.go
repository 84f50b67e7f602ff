package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/canvass/pkg/domain"
	"github.com/aretw0/canvass/pkg/ports"
)

// Mask replaces redacted answer values.
const Mask = "***"

type redactMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware masks the recorded values of every question whose ID matches
// one of the patterns before the state reaches the store. Navigation only needs to know
// that a question was answered, so masked sessions resume normally.
func NewRedactionMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}
}

// FreeTextQuestions returns anchored patterns for every free text question of the surveys,
// ready for NewRedactionMiddleware.
func FreeTextQuestions(surveys ...*domain.Survey) []string {
	var patterns []string
	for _, s := range surveys {
		for _, q := range s.Questions {
			if q.Type == domain.QuestionFreeText {
				patterns = append(patterns, "^"+regexp.QuoteMeta(q.ID)+"$")
			}
		}
	}
	return patterns
}

func (m *redactMiddleware) Save(ctx context.Context, key domain.SessionKey, state *domain.SessionState) error {
	// Clone so the caller's in-memory state keeps the real values.
	cloned := state.Clone()
	for i := range cloned.Answers {
		if m.matches(cloned.Answers[i].QuestionID) {
			cloned.Answers[i].Values = []string{Mask}
		}
	}
	return m.next.Save(ctx, key, cloned)
}

func (m *redactMiddleware) matches(questionID string) bool {
	for _, p := range m.patterns {
		if p.MatchString(questionID) {
			return true
		}
	}
	return false
}

func (m *redactMiddleware) Load(ctx context.Context, key domain.SessionKey) (*domain.SessionState, error) {
	return m.next.Load(ctx, key)
}

func (m *redactMiddleware) Delete(ctx context.Context, key domain.SessionKey) error {
	return m.next.Delete(ctx, key)
}

func (m *redactMiddleware) List(ctx context.Context) ([]domain.SessionKey, error) {
	return m.next.List(ctx)
}
