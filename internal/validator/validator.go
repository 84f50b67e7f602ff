// Package validator reports survey definitions that are valid but probably not what the author meant.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/canvass/pkg/domain"
)

// Finding is a lint warning about one question.
type Finding struct {
	QuestionID string
	Message    string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s", f.QuestionID, f.Message)
}

// Lint checks skip rules against every way their source question can be resolved.
// A rule that fires on every resolution of an always-presented question makes its targets unreachable;
// a rule that fires on none is dead.
func Lint(s *domain.Survey) []Finding {
	var findings []Finding

	targeted := make(map[string]bool)
	for _, q := range s.Questions {
		for _, r := range q.Rules {
			for _, t := range r.Targets {
				targeted[t] = true
			}
		}
	}

	unreachable := make(map[string]bool)
	for i := range s.Questions {
		q := &s.Questions[i]
		if strings.TrimSpace(q.Text) == "" {
			findings = append(findings, Finding{q.ID, "question has no text"})
		}

		if q.Type == domain.QuestionFreeText {
			for _, r := range q.Rules {
				if r.Kind == domain.RuleEquals {
					findings = append(findings, Finding{q.ID, fmt.Sprintf("equals rule on free text only matches the exact text %q", r.Values)})
				}
			}
			continue
		}

		outcomes := resolutions(q, targeted[q.ID])
		for j, r := range q.Rules {
			fired := 0
			for _, values := range outcomes {
				if r.Fires(values) {
					fired++
				}
			}
			switch {
			case fired == 0:
				findings = append(findings, Finding{q.ID, fmt.Sprintf("rule #%d never fires", j+1)})
			case fired == len(outcomes) && !targeted[q.ID]:
				for _, t := range r.Targets {
					unreachable[t] = true
				}
			}
		}
	}

	for _, q := range s.Questions {
		if unreachable[q.ID] {
			findings = append(findings, Finding{q.ID, "question is never presented"})
		}
	}
	return findings
}

// resolutions enumerates representative answers: each option on its own, all options
// together for multi choice, and no values when the question can be declined or skipped by a rule.
func resolutions(q *domain.Question, skippable bool) [][]string {
	var out [][]string
	for _, opt := range q.Options {
		out = append(out, []string{opt})
	}
	if q.Type == domain.QuestionMultiChoice && len(q.Options) > 1 {
		out = append(out, append([]string(nil), q.Options...))
	}
	if q.Optional || skippable {
		out = append(out, nil)
	}
	return out
}
