/*
Package runner drives a survey session interactively, one question at a time.

It is the bridge between the Engine and a conversational front end. The runner owns
the loop (present, read, submit, repeat until complete) while an IOHandler owns the
wire format:

  - TextHandler: numbered options for terminals, optionally rendered as Markdown.
  - JSONHandler: JSON lines for programs driving the survey over stdin/stdout.

# Usage

	r := runner.NewRunner(runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)))
	step, err := r.Run(ctx, eng, "CULTURE_DISCRIMINATION", "user-1")

Sessions are persisted by the Engine's store after every answer, so an interrupted run
resumes where it stopped when started again with the same session id.
*/
package runner
