/*
Package canvass is a survey delivery engine built around a skip-logic state machine.

A survey is an ordered list of questions. Each question may carry skip rules that,
depending on the answer, remove later questions from the session. The engine presents
questions one at a time, records answers, and guarantees that no question is presented
twice and that a session completes exactly when no unresolved question remains.

# Architecture

The navigation logic (internal/runtime) is pure: it takes a session state and a
submission and returns a new state. Everything else is an adapter behind a port:

  - Survey definitions: ports.CatalogLoader (YAML/JSON files, embedded catalog, memory).
  - Session persistence: ports.SessionStore (memory, file, Redis, SQLite/PostgreSQL),
    optionally wrapped with encryption and redaction middleware.
  - Presentation: the HTTP server, the terminal runner, or your own code.

Engine wires these together and serializes every transition of a session behind a
per-session lock, so different sessions proceed in parallel.

# Usage

	eng, err := canvass.New(ctx) // built-in surveys, in-memory store
	if err != nil {
		log.Fatal(err)
	}

	step, err := eng.Start(ctx, "CULTURE_DISCRIMINATION", "TESTSESSION")
	// step.Question is Q1

	step, err = eng.Submit(ctx, "CULTURE_DISCRIMINATION", "TESTSESSION", "Q1", "No")
	// Q2 is skipped, step.Question is Q3

Rejected submissions (out of turn, invalid answer, already complete) return an error
wrapping *domain.TransitionError together with a Step describing the unchanged session.
*/
package canvass
