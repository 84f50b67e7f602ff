package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/canvass"
	"github.com/aretw0/canvass/pkg/domain"
)

// Message is one line written by JSONHandler.
type Message struct {
	Type      string           `json:"type"` // question | notice | complete
	SurveyID  string           `json:"survey_id,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	Question  *domain.Question `json:"question,omitempty"`
	Resolved  int              `json:"resolved,omitempty"`
	Total     int              `json:"total,omitempty"`
	Message   string           `json:"message,omitempty"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
// Replies are JSON objects ({"values": ["No"]} or {"decline": true}); any other line is
// interpreted like typed text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Present(ctx context.Context, step *canvass.Step) error {
	resolved, total := step.Progress()
	return h.Encoder.Encode(Message{
		Type:      "question",
		SurveyID:  step.State.SurveyID,
		SessionID: step.State.SessionID,
		Question:  step.Question,
		Resolved:  resolved,
		Total:     total,
	})
}

func (h *JSONHandler) Input(ctx context.Context, q *domain.Question) (Reply, error) {
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}
	line, err := h.Reader.ReadString('\n')
	if err != nil && line == "" {
		return Reply{}, err
	}
	line = strings.TrimSpace(line)

	if strings.HasPrefix(line, "{") {
		var reply Reply
		if err := json.Unmarshal([]byte(line), &reply); err == nil {
			return reply, nil
		}
	}
	return ParseReply(q, line), nil
}

func (h *JSONHandler) Notice(ctx context.Context, msg string) error {
	return h.Encoder.Encode(Message{Type: "notice", Message: msg})
}

func (h *JSONHandler) Finish(ctx context.Context, step *canvass.Step) error {
	return h.Encoder.Encode(Message{
		Type:      "complete",
		SurveyID:  step.State.SurveyID,
		SessionID: step.State.SessionID,
		Message:   step.EndMessage(),
	})
}
