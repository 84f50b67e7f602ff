/*
Package dsl provides a Go DSL for programmatically constructing surveys.

It allows developers to define questions and skip rules with a fluent builder
instead of relying on external YAML or JSON files. This is particularly useful for
generated surveys, unit tests, and IDE autocompletion/type-checking.

Example usage:

	b := dsl.New("PULSE").Title("Weekly pulse")

	b.Single("happy", "Was this a good week?", "Yes", "No").
		SkipWhen("Yes", "why")

	b.FreeText("why", "What got in the way?").Optional()

	survey, err := b.Build()
	// ... pass domain.NewCatalog(survey) to canvass.WithCatalog
*/
package dsl
