package canvass

import "github.com/aretw0/canvass/pkg/domain"

// Step is what a presentation layer needs after any engine call:
// the session, the navigation result and the question to show (if any).
type Step struct {
	Survey *domain.Survey
	State  *domain.SessionState
	Result domain.Result

	// Question is the question under the cursor; nil once the session is complete.
	Question *domain.Question

	// Created reports whether this call opened the session.
	Created bool
}

func newStep(survey *domain.Survey, state *domain.SessionState, created bool) *Step {
	step := &Step{
		Survey:  survey,
		State:   state,
		Result:  domain.ResultOf(state),
		Created: created,
	}
	if !step.Result.Complete {
		step.Question, _ = survey.Question(step.Result.Next)
	}
	return step
}

// Complete reports whether the session has finished.
func (s *Step) Complete() bool {
	return s.Result.Complete
}

// EndMessage is the text to show once the session is complete.
func (s *Step) EndMessage() string {
	return s.Survey.Completion()
}

// Progress returns how many questions are resolved and the survey length.
// Skipped questions count as resolved, so a session can jump ahead.
func (s *Step) Progress() (resolved, total int) {
	return s.State.Resolved(), len(s.Survey.Questions)
}
