/*
Package domain contains the core domain models of the canvass survey engine.

It defines the survey definition (an ordered catalog of questions with skip rules),
the per-session navigation state and the result of a transition. This package is kept
pure and free of I/O or persistence concerns, following Hexagonal Architecture principles.

# Key Entities

  - Survey: An immutable, ordered list of Questions with answer domains and Skip Rules.
  - Catalog: A read-only set of Surveys shared across all sessions.
  - SessionState: The runtime snapshot of one respondent's traversal (Answers, Skipped, Cursor).
  - Result: What the presentation layer should show next ({next: id} or {complete}).
*/
package domain
