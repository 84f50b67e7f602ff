package http

import (
	"github.com/aretw0/canvass"
	"github.com/aretw0/canvass/pkg/domain"
)

// AnswerRequest is the body of POST /{survey}/{session}.
// Value is a convenience for single answers; it is appended to Values.
type AnswerRequest struct {
	QuestionID string   `json:"question_id"`
	Values     []string `json:"values,omitempty"`
	Value      string   `json:"value,omitempty"`
	Decline    bool     `json:"decline,omitempty"`
}

// AllValues merges Value into Values.
func (a AnswerRequest) AllValues() []string {
	if a.Value == "" {
		return a.Values
	}
	return append(append([]string{}, a.Values...), a.Value)
}

// View is the response body for every session endpoint.
type View struct {
	SurveyID   string               `json:"survey_id"`
	SessionID  string               `json:"session_id"`
	Status     domain.SessionStatus `json:"status"`
	Complete   bool                 `json:"complete"`
	Created    bool                 `json:"created,omitempty"`
	Question   *domain.Question     `json:"question,omitempty"`
	Progress   Progress             `json:"progress"`
	EndMessage string               `json:"end_message,omitempty"`
	Version    int                  `json:"version"`
	Error      *APIError            `json:"error,omitempty"`
}

// Progress counts resolved questions, skipped ones included.
type Progress struct {
	Resolved int `json:"resolved"`
	Total    int `json:"total"`
}

// APIError describes a rejected request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is returned when there is no session to show.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// SurveySummary is an entry of GET /surveys.
type SurveySummary struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	Questions int    `json:"questions"`
}

// NewView maps a step to its wire representation.
// Rules are internal routing and are not sent to clients.
func NewView(step *canvass.Step) View {
	resolved, total := step.Progress()
	v := View{
		SurveyID:  step.State.SurveyID,
		SessionID: step.State.SessionID,
		Status:    step.State.Status,
		Complete:  step.Complete(),
		Created:   step.Created,
		Progress:  Progress{Resolved: resolved, Total: total},
		Version:   step.State.Version,
	}
	if step.Question != nil {
		q := *step.Question
		q.Rules = nil
		v.Question = &q
	}
	if v.Complete {
		v.EndMessage = step.EndMessage()
	}
	return v
}
