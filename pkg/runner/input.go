package runner

import (
	"strconv"
	"strings"

	"github.com/aretw0/canvass/pkg/domain"
)

// SkipKeyword declines the current question in text mode.
const SkipKeyword = "skip"

// ParseReply interprets a line typed by the respondent.
// Choice questions accept the 1-based option number or the option text; multi choice
// questions accept several separated by commas. Unknown tokens are passed through
// unchanged so the engine can reject them.
func ParseReply(q *domain.Question, line string) Reply {
	line = strings.TrimSpace(line)
	if strings.EqualFold(line, SkipKeyword) {
		return Reply{Decline: true}
	}

	switch q.Type {
	case domain.QuestionMultiChoice:
		var values []string
		for _, tok := range strings.Split(line, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				values = append(values, resolveOption(q, tok))
			}
		}
		return Reply{Values: values}
	case domain.QuestionSingleChoice, domain.QuestionLikert5:
		return Reply{Values: []string{resolveOption(q, line)}}
	default:
		return Reply{Values: []string{line}}
	}
}

func resolveOption(q *domain.Question, tok string) string {
	n, err := strconv.Atoi(tok)
	if err != nil || n < 1 || n > len(q.Options) {
		return tok
	}
	return q.Options[n-1]
}
