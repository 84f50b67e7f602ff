package definition

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/aretw0/canvass/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML or JSON survey document into a domain.Survey.
// The result is not yet validated; NewCatalog does that.
func Parse(data []byte) (*domain.Survey, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse survey document: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidSurvey)
	}

	var doc Document
	if err := decode(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidSurvey, err)
	}
	return Compile(&doc)
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: out,
		// Lets authors write `equals: Yes` or `options: [1, 2, 3]` without quoting.
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// Compile turns a Document into a domain.Survey.
// Conditions on a target question become not_equals rules on the question they reference.
func Compile(doc *Document) (*domain.Survey, error) {
	survey := &domain.Survey{
		ID:         strings.TrimSpace(doc.ID),
		Title:      doc.Title,
		Intro:      doc.Intro,
		EndMessage: doc.EndMessage,
		Questions:  make([]domain.Question, 0, len(doc.Questions)),
	}

	vars := make(map[string]int, len(doc.Questions))
	for i, qd := range doc.Questions {
		q := domain.Question{
			ID:       strings.TrimSpace(qd.ID),
			Type:     domain.QuestionType(strings.ToLower(strings.TrimSpace(qd.Type))),
			Text:     qd.Text,
			Options:  qd.Options,
			Optional: doc.AllowSkip,
		}
		if qd.Optional != nil {
			q.Optional = *qd.Optional
		}
		for _, rd := range qd.Rules {
			q.Rules = append(q.Rules, domain.SkipRule{
				Kind:    domain.RuleKind(strings.ToLower(strings.TrimSpace(rd.When))),
				Values:  rd.Values,
				Targets: rd.Skip,
			})
		}
		survey.Questions = append(survey.Questions, q)

		vars[strings.ToLower(q.ID)] = i
		if qd.SaveAs != "" {
			vars[strings.ToLower(qd.SaveAs)] = i
		}
	}

	for i, qd := range doc.Questions {
		if qd.Condition == nil {
			continue
		}
		target := survey.Questions[i].ID
		src, ok := vars[strings.ToLower(qd.Condition.Var)]
		if !ok {
			return nil, fmt.Errorf("%w %q: question %q condition references unknown variable %q",
				domain.ErrInvalidSurvey, survey.ID, target, qd.Condition.Var)
		}
		if src >= i {
			return nil, fmt.Errorf("%w %q: question %q condition must reference an earlier question, got %q",
				domain.ErrInvalidSurvey, survey.ID, target, qd.Condition.Var)
		}
		source := &survey.Questions[src]
		source.Rules = append(source.Rules, domain.SkipRule{
			Kind:    domain.RuleNotEquals,
			Values:  qd.Condition.Equals,
			Targets: []string{target},
		})
	}

	return survey, nil
}

// Decompile turns a domain.Survey back into a Document using the explicit rules form.
func Decompile(survey *domain.Survey) *Document {
	doc := &Document{
		ID:         survey.ID,
		Title:      survey.Title,
		Intro:      survey.Intro,
		EndMessage: survey.EndMessage,
		Questions:  make([]QuestionDocument, 0, len(survey.Questions)),
	}
	for _, q := range survey.Questions {
		qd := QuestionDocument{
			ID:      q.ID,
			Type:    string(q.Type),
			Text:    q.Text,
			Options: q.Options,
		}
		if q.Optional {
			optional := true
			qd.Optional = &optional
		}
		for _, r := range q.Rules {
			qd.Rules = append(qd.Rules, RuleDocument{When: string(r.Kind), Values: r.Values, Skip: r.Targets})
		}
		doc.Questions = append(doc.Questions, qd)
	}
	return doc
}

// Encode renders a survey as a YAML document that Parse accepts.
func Encode(survey *domain.Survey) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Decompile(survey)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
