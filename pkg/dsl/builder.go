package dsl

import (
	"fmt"

	"github.com/aretw0/canvass/pkg/adapters/memory"
	"github.com/aretw0/canvass/pkg/domain"
)

// Builder manages the survey construction. Questions keep the order they were added in.
type Builder struct {
	survey    domain.Survey
	questions []*QuestionBuilder
	index     map[string]*QuestionBuilder
}

// New creates a builder for the survey with the given ID.
func New(id string) *Builder {
	return &Builder{
		survey: domain.Survey{ID: id},
		index:  make(map[string]*QuestionBuilder),
	}
}

// Title sets the display title.
func (b *Builder) Title(title string) *Builder {
	b.survey.Title = title
	return b
}

// Intro sets the text shown before the first question.
func (b *Builder) Intro(intro string) *Builder {
	b.survey.Intro = intro
	return b
}

// EndMessage sets the text shown once the survey is complete.
func (b *Builder) EndMessage(msg string) *Builder {
	b.survey.EndMessage = msg
	return b
}

// Add appends a question of any type.
// If the question already exists, it returns the existing builder.
func (b *Builder) Add(id string, typ domain.QuestionType, text string, options ...string) *QuestionBuilder {
	if qb, ok := b.index[id]; ok {
		return qb
	}
	qb := &QuestionBuilder{
		question: domain.Question{ID: id, Type: typ, Text: text, Options: options},
		builder:  b,
	}
	b.questions = append(b.questions, qb)
	b.index[id] = qb
	return qb
}

// Single appends a single choice question.
func (b *Builder) Single(id, text string, options ...string) *QuestionBuilder {
	return b.Add(id, domain.QuestionSingleChoice, text, options...)
}

// Multi appends a multiple choice question.
func (b *Builder) Multi(id, text string, options ...string) *QuestionBuilder {
	return b.Add(id, domain.QuestionMultiChoice, text, options...)
}

// Likert appends a five point scale question.
func (b *Builder) Likert(id, text string, options ...string) *QuestionBuilder {
	return b.Add(id, domain.QuestionLikert5, text, options...)
}

// FreeText appends an open question.
func (b *Builder) FreeText(id, text string) *QuestionBuilder {
	return b.Add(id, domain.QuestionFreeText, text)
}

// Build returns the validated survey.
func (b *Builder) Build() (*domain.Survey, error) {
	survey := b.survey
	survey.Questions = make([]domain.Question, 0, len(b.questions))
	for _, qb := range b.questions {
		q := qb.question
		q.Options = append([]string(nil), q.Options...)
		q.Rules = append([]domain.SkipRule(nil), q.Rules...)
		survey.Questions = append(survey.Questions, q)
	}
	if err := survey.Validate(); err != nil {
		return nil, fmt.Errorf("failed to build survey %q: %w", survey.ID, err)
	}
	return &survey, nil
}

// Loader builds the survey and wraps it in a catalog loader.
func (b *Builder) Loader() (*memory.Loader, error) {
	survey, err := b.Build()
	if err != nil {
		return nil, err
	}
	return memory.NewLoader(survey), nil
}
