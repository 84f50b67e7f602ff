package domain

import "slices"

// RuleKind identifies a skip rule variant.
type RuleKind string

const (
	// RuleEquals skips the targets when the answer contains any of the rule values.
	RuleEquals RuleKind = "equals"
	// RuleNotEquals skips the targets when the answer contains none of the rule values.
	// A declined question has no values, so RuleNotEquals always fires for it.
	RuleNotEquals RuleKind = "not_equals"
)

// SkipRule removes later questions from the presentation sequence when its
// source question (the question it is attached to) resolves with a matching value.
type SkipRule struct {
	Kind    RuleKind `json:"kind" yaml:"kind"`
	Values  []string `json:"values" yaml:"values"`
	Targets []string `json:"targets" yaml:"targets"`
}

// ruleEvaluator decides whether a rule fires for the recorded values.
// values is empty when the source question was declined.
type ruleEvaluator func(rule SkipRule, values []string) bool

var ruleEvaluators = map[RuleKind]ruleEvaluator{
	RuleEquals: func(rule SkipRule, values []string) bool {
		return containsAny(values, rule.Values)
	},
	RuleNotEquals: func(rule SkipRule, values []string) bool {
		return !containsAny(values, rule.Values)
	},
}

// Fires reports whether the rule is satisfied by the given answer values.
// Unknown kinds never fire; Survey.Validate rejects them up front.
func (r SkipRule) Fires(values []string) bool {
	eval, ok := ruleEvaluators[r.Kind]
	if !ok {
		return false
	}
	return eval(r, values)
}

func containsAny(values, candidates []string) bool {
	for _, v := range values {
		if slices.Contains(candidates, v) {
			return true
		}
	}
	return false
}
