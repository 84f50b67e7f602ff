package dsl

import "github.com/aretw0/canvass/pkg/domain"

// QuestionBuilder provides a fluent API for configuring a question.
type QuestionBuilder struct {
	question domain.Question
	builder  *Builder
}

// Optional lets the respondent decline the question.
func (q *QuestionBuilder) Optional() *QuestionBuilder {
	q.question.Optional = true
	return q
}

// SkipWhen skips targets when the answer includes value.
func (q *QuestionBuilder) SkipWhen(value string, targets ...string) *QuestionBuilder {
	return q.Rule(domain.RuleEquals, []string{value}, targets...)
}

// SkipUnless skips targets unless the answer includes value.
// Declining the question counts as not matching.
func (q *QuestionBuilder) SkipUnless(value string, targets ...string) *QuestionBuilder {
	return q.Rule(domain.RuleNotEquals, []string{value}, targets...)
}

// Rule attaches a skip rule of any kind.
func (q *QuestionBuilder) Rule(kind domain.RuleKind, values []string, targets ...string) *QuestionBuilder {
	q.question.Rules = append(q.question.Rules, domain.SkipRule{Kind: kind, Values: values, Targets: targets})
	return q
}

// Then returns the survey builder, for chaining.
func (q *QuestionBuilder) Then() *Builder {
	return q.builder
}
