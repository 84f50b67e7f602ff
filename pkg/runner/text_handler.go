package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/canvass"
	"github.com/aretw0/canvass/pkg/domain"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// initPump reads lines on a single goroutine so Input can honor context cancellation.
func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult, 1)
		go func() {
			for {
				text, err := h.Reader.ReadString('\n')
				if err != nil && text == "" {
					h.inputChan <- inputResult{err: err}
					close(h.inputChan)
					return
				}
				h.inputChan <- inputResult{text: text}
			}
		}()
	})
}

// Present writes the question with numbered options.
func (h *TextHandler) Present(ctx context.Context, step *canvass.Step) error {
	if step.Created && step.State.Resolved() == 0 {
		if err := h.write(formatIntro(step.Survey)); err != nil {
			return err
		}
	}
	return h.write(FormatQuestion(step))
}

// Input reads one line and interprets it against q.
func (h *TextHandler) Input(ctx context.Context, q *domain.Question) (Reply, error) {
	h.initPump()
	if _, err := fmt.Fprint(h.Writer, "> "); err != nil {
		return Reply{}, err
	}

	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case res, ok := <-h.inputChan:
		if !ok {
			return Reply{}, io.EOF
		}
		if res.err != nil {
			return Reply{}, res.err
		}
		return ParseReply(q, res.text), nil
	}
}

// Notice writes a rejection message.
func (h *TextHandler) Notice(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "! %s\n", msg)
	return err
}

// Finish writes the completion message.
func (h *TextHandler) Finish(ctx context.Context, step *canvass.Step) error {
	return h.write(step.EndMessage() + "\n")
}

func (h *TextHandler) write(markdown string) error {
	out := markdown
	if h.Renderer != nil {
		rendered, err := h.Renderer(markdown)
		if err == nil {
			out = rendered
		}
	}
	_, err := io.WriteString(h.Writer, out)
	return err
}

func formatIntro(s *domain.Survey) string {
	var b strings.Builder
	if s.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", s.Title)
	}
	if s.Intro != "" {
		fmt.Fprintf(&b, "%s\n", s.Intro)
	}
	return b.String()
}

// FormatQuestion renders the question under the cursor of step as Markdown.
func FormatQuestion(step *canvass.Step) string {
	q := step.Question
	resolved, total := step.Progress()

	var b strings.Builder
	fmt.Fprintf(&b, "\n**%s** (%d/%d)\n\n%s\n\n", q.ID, resolved+1, total, q.Text)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "%d. %s\n", i+1, opt)
	}

	var hints []string
	switch q.Type {
	case domain.QuestionMultiChoice:
		hints = append(hints, "Select one or more, separated by commas (e.g. 1,3).")
	case domain.QuestionSingleChoice, domain.QuestionLikert5:
		hints = append(hints, "Type a number or the option text.")
	}
	if q.Optional {
		hints = append(hints, fmt.Sprintf("Type %q to skip.", SkipKeyword))
	}
	if len(hints) > 0 {
		fmt.Fprintf(&b, "\n_%s_\n", strings.Join(hints, " "))
	}
	return b.String()
}
