package runner

import (
	"context"

	"github.com/aretw0/canvass"
	"github.com/aretw0/canvass/pkg/domain"
)

// Reply is a respondent's answer to the question being presented.
type Reply struct {
	Values  []string `json:"values,omitempty"`
	Decline bool     `json:"decline,omitempty"`
}

// IOHandler defines the strategy for interacting with the respondent.
// This allows switching between Text (CLI/TUI) and JSON (structured) modes.
type IOHandler interface {
	// Present shows the question under the cursor of step.
	Present(ctx context.Context, step *canvass.Step) error

	// Input reads the reply to q. It returns io.EOF when the respondent leaves.
	Input(ctx context.Context, q *domain.Question) (Reply, error)

	// Notice tells the respondent why a reply was not accepted.
	Notice(ctx context.Context, msg string) error

	// Finish shows the completion message.
	Finish(ctx context.Context, step *canvass.Step) error
}

// ContentRenderer transforms Markdown before it is written.
// This allows TUI rendering (markdown to ANSI) without coupling this package to a terminal library.
type ContentRenderer func(string) (string, error)
