package domain

// StateDiff represents the changes between two session states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	SurveyID  string `json:"survey_id"`
	SessionID string `json:"session_id"`

	Cursor *string        `json:"cursor,omitempty"`
	Status *SessionStatus `json:"status,omitempty"`

	// Answered and Skipped hold only entries appended since the old state.
	Answered []Answer `json:"answered,omitempty"`
	Skipped  []string `json:"skipped,omitempty"`

	Version int `json:"version"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// Answers and Skipped are append-only, so only the tail beyond the old length is reported.
// Returns nil when nothing changed.
func Diff(oldState, newState *SessionState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		SurveyID:  newState.SurveyID,
		SessionID: newState.SessionID,
		Version:   newState.Version,
	}

	if oldState == nil || oldState.Cursor != newState.Cursor {
		cursor := newState.Cursor
		diff.Cursor = &cursor
	}
	if oldState == nil || oldState.Status != newState.Status {
		status := newState.Status
		diff.Status = &status
	}

	oldAnswers, oldSkipped := 0, 0
	if oldState != nil {
		oldAnswers, oldSkipped = len(oldState.Answers), len(oldState.Skipped)
	}
	if len(newState.Answers) > oldAnswers {
		diff.Answered = newState.Answers[oldAnswers:]
	}
	if len(newState.Skipped) > oldSkipped {
		diff.Skipped = newState.Skipped[oldSkipped:]
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Cursor == nil &&
		d.Status == nil &&
		len(d.Answered) == 0 &&
		len(d.Skipped) == 0
}
