package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// QuestionType defines the answer domain of a question.
type QuestionType string

const (
	// QuestionSingleChoice accepts exactly one of the declared options.
	QuestionSingleChoice QuestionType = "single_choice"
	// QuestionLikert5 is a five point agreement scale. It behaves like a single choice.
	QuestionLikert5 QuestionType = "likert_5"
	// QuestionMultiChoice accepts one or more distinct declared options.
	QuestionMultiChoice QuestionType = "multi_choice"
	// QuestionFreeText accepts any non-empty text.
	QuestionFreeText QuestionType = "free_text"
)

// DefaultEndMessage is shown by presentation layers when a survey defines no end message.
const DefaultEndMessage = "The survey is complete. Please proceed to the next page.---END---"

// Question is a single entry of a survey, identified by an ID unique within the survey.
type Question struct {
	ID       string       `json:"id" yaml:"id"`
	Type     QuestionType `json:"type" yaml:"type"`
	Text     string       `json:"text" yaml:"text"`
	Options  []string     `json:"options,omitempty" yaml:"options,omitempty"`
	Optional bool         `json:"optional,omitempty" yaml:"optional,omitempty"`

	// Rules fire when this question is resolved and may only target later questions.
	Rules []SkipRule `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// IsChoice reports whether the question's domain is an enumerated option list.
func (q *Question) IsChoice() bool {
	switch q.Type {
	case QuestionSingleChoice, QuestionLikert5, QuestionMultiChoice:
		return true
	}
	return false
}

// Normalize checks raw answer values against the question's domain and returns
// the canonical values to record. It returns ErrInvalidAnswer (wrapped) otherwise.
func (q *Question) Normalize(raw []string) ([]string, error) {
	values := make([]string, 0, len(raw))
	for _, r := range raw {
		if q.Type == QuestionMultiChoice {
			// "Manager, Colleague" is accepted as two selections.
			for _, part := range strings.Split(r, ",") {
				if v := strings.TrimSpace(part); v != "" {
					values = append(values, v)
				}
			}
			continue
		}
		if v := strings.TrimSpace(r); v != "" {
			values = append(values, v)
		}
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty answer", ErrInvalidAnswer)
	}

	switch q.Type {
	case QuestionFreeText:
		if len(values) > 1 {
			return nil, fmt.Errorf("%w: expected a single text answer", ErrInvalidAnswer)
		}
		return values, nil
	case QuestionSingleChoice, QuestionLikert5:
		if len(values) > 1 {
			return nil, fmt.Errorf("%w: expected exactly one option", ErrInvalidAnswer)
		}
	}

	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if !slices.Contains(q.Options, v) {
			return nil, fmt.Errorf("%w: %q is not one of %v", ErrInvalidAnswer, v, q.Options)
		}
		if seen[v] {
			return nil, fmt.Errorf("%w: %q selected more than once", ErrInvalidAnswer, v)
		}
		seen[v] = true
	}
	return values, nil
}

// Survey is an immutable, ordered catalog of questions.
// Once handed to the engine (via NewCatalog) it must not be mutated.
type Survey struct {
	ID         string     `json:"id" yaml:"id"`
	Title      string     `json:"title,omitempty" yaml:"title,omitempty"`
	Intro      string     `json:"intro,omitempty" yaml:"intro,omitempty"`
	EndMessage string     `json:"end_message,omitempty" yaml:"end_message,omitempty"`
	Questions  []Question `json:"questions" yaml:"questions"`

	index map[string]int
}

// Position returns the sequence position of a question.
func (s *Survey) Position(questionID string) (int, bool) {
	if s.index != nil {
		pos, ok := s.index[questionID]
		return pos, ok
	}
	for i := range s.Questions {
		if s.Questions[i].ID == questionID {
			return i, true
		}
	}
	return -1, false
}

// Question returns the question with the given ID.
func (s *Survey) Question(questionID string) (*Question, bool) {
	pos, ok := s.Position(questionID)
	if !ok {
		return nil, false
	}
	return &s.Questions[pos], true
}

// FirstQuestionID returns the ID of the first question, or "" for an empty survey.
func (s *Survey) FirstQuestionID() string {
	if len(s.Questions) == 0 {
		return ""
	}
	return s.Questions[0].ID
}

// Completion returns the text to present once a session completes.
func (s *Survey) Completion() string {
	if s.EndMessage != "" {
		return s.EndMessage
	}
	return DefaultEndMessage
}

// Validate checks the structural rules of the definition.
// Every skip rule must only target questions positioned strictly after its source.
func (s *Survey) Validate() error {
	var errs []error
	if strings.TrimSpace(s.ID) == "" {
		errs = append(errs, errors.New("survey id is required"))
	}
	if len(s.Questions) == 0 {
		errs = append(errs, errors.New("survey has no questions"))
	}

	positions := make(map[string]int, len(s.Questions))
	for i, q := range s.Questions {
		if q.ID == "" {
			errs = append(errs, fmt.Errorf("question #%d has no id", i+1))
			continue
		}
		if _, dup := positions[q.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate question id %q", q.ID))
			continue
		}
		positions[q.ID] = i
	}

	for i := range s.Questions {
		q := &s.Questions[i]
		errs = append(errs, validateQuestion(q)...)
		for j, rule := range q.Rules {
			if err := validateRule(q, i, rule, positions); err != nil {
				errs = append(errs, fmt.Errorf("question %q rule #%d: %w", q.ID, j+1, err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w %q: %w", ErrInvalidSurvey, s.ID, errors.Join(errs...))
	}
	return nil
}

func validateQuestion(q *Question) []error {
	var errs []error
	switch q.Type {
	case QuestionSingleChoice, QuestionLikert5, QuestionMultiChoice:
		if len(q.Options) == 0 {
			errs = append(errs, fmt.Errorf("question %q: %s requires options", q.ID, q.Type))
		}
		seen := make(map[string]bool, len(q.Options))
		for _, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				errs = append(errs, fmt.Errorf("question %q: empty option", q.ID))
			}
			if seen[opt] {
				errs = append(errs, fmt.Errorf("question %q: duplicate option %q", q.ID, opt))
			}
			seen[opt] = true
		}
	case QuestionFreeText:
		if len(q.Options) > 0 {
			errs = append(errs, fmt.Errorf("question %q: free_text takes no options", q.ID))
		}
	default:
		errs = append(errs, fmt.Errorf("question %q: unknown type %q", q.ID, q.Type))
	}
	return errs
}

func validateRule(q *Question, pos int, rule SkipRule, positions map[string]int) error {
	if _, ok := ruleEvaluators[rule.Kind]; !ok {
		return fmt.Errorf("unknown rule kind %q", rule.Kind)
	}
	if len(rule.Values) == 0 {
		return errors.New("rule has no values")
	}
	if q.IsChoice() {
		for _, v := range rule.Values {
			if !slices.Contains(q.Options, v) {
				return fmt.Errorf("value %q is not an option of %q", v, q.ID)
			}
		}
	}
	if len(rule.Targets) == 0 {
		return errors.New("rule has no targets")
	}
	for _, target := range rule.Targets {
		tpos, ok := positions[target]
		if !ok {
			return fmt.Errorf("unknown target %q", target)
		}
		if tpos <= pos {
			return fmt.Errorf("target %q does not come after %q", target, q.ID)
		}
	}
	return nil
}

// compile validates the survey and freezes its lookup index.
func (s *Survey) compile() error {
	if err := s.Validate(); err != nil {
		return err
	}
	s.index = make(map[string]int, len(s.Questions))
	for i, q := range s.Questions {
		s.index[q.ID] = i
	}
	return nil
}
