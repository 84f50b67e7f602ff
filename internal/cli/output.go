package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/canvass/internal/validator"
	"github.com/aretw0/canvass/pkg/adapters/definition"
	"github.com/aretw0/canvass/pkg/domain"
	"github.com/aretw0/canvass/pkg/ports"
)

// PrintSurveys writes one line per survey of the catalog.
func PrintSurveys(w io.Writer, cat *domain.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tQUESTIONS\tTITLE")
	for _, id := range cat.IDs() {
		s, err := cat.Survey(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", s.ID, len(s.Questions), s.Title)
	}
	return tw.Flush()
}

// PrintSurvey writes a survey as a YAML document, or as JSON when asJSON is set.
func PrintSurvey(w io.Writer, s *domain.Survey, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(definition.Decompile(s))
	}
	data, err := definition.Encode(s)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// PrintSessions lists stored sessions, optionally restricted to one survey.
func PrintSessions(ctx context.Context, w io.Writer, store ports.SessionStore, surveyID string) error {
	keys, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	n := 0
	for _, k := range keys {
		if surveyID != "" && k.SurveyID != surveyID {
			continue
		}
		if n == 0 {
			fmt.Fprintln(tw, "SURVEY\tSESSION\tSTATUS\tCURSOR\tUPDATED")
		}
		n++
		state, err := store.Load(ctx, k)
		if err != nil {
			fmt.Fprintf(tw, "%s\t%s\t?\t\t%v\n", k.SurveyID, k.SessionID, err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", k.SurveyID, k.SessionID, state.Status, state.Cursor, state.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	if n == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}
	return tw.Flush()
}

// InspectSession writes the stored state of a session as indented JSON.
func InspectSession(ctx context.Context, w io.Writer, store ports.SessionStore, ref string) error {
	key, err := domain.ParseSessionKey(ref)
	if err != nil {
		return err
	}
	state, err := store.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("error loading session %q: %w", ref, err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}

// RemoveSessions deletes every "survey/session" reference, reporting each one.
func RemoveSessions(ctx context.Context, w io.Writer, store ports.SessionStore, refs []string) error {
	var errs []error
	for _, ref := range refs {
		key, err := domain.ParseSessionKey(ref)
		if err == nil {
			err = store.Delete(ctx, key)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("error removing %q: %w", ref, err))
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", key)
	}
	return errors.Join(errs...)
}

// Validate checks survey documents. Each path is a document or a directory of them;
// a directory is also checked as one catalog, so duplicate ids are caught.
// Lint findings are printed as warnings, and fail the path when strict is set.
func Validate(ctx context.Context, w io.Writer, paths []string, strict bool) error {
	var failed []string
	for _, p := range paths {
		if err := validatePath(ctx, w, p, strict); err != nil {
			fmt.Fprintf(w, "✗ %s: %v\n", p, err)
			failed = append(failed, p)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d invalid: %s", len(failed), len(paths), strings.Join(failed, ", "))
	}
	return nil
}

func validatePath(ctx context.Context, w io.Writer, p string, strict bool) error {
	info, err := os.Stat(p)
	if err != nil {
		return err
	}

	var list []*domain.Survey
	if info.IsDir() {
		cat, err := definition.NewLoader(p).Load(ctx)
		if err != nil {
			return err
		}
		for _, id := range cat.IDs() {
			s, _ := cat.Survey(id)
			list = append(list, s)
		}
	} else {
		s, err := definition.LoadFile(p)
		if err != nil {
			return err
		}
		if _, err := domain.NewCatalog(s); err != nil {
			return err
		}
		list = append(list, s)
	}

	warnings := 0
	for _, s := range list {
		fmt.Fprintf(w, "✓ %s (%d questions)\n", s.ID, len(s.Questions))
		for _, f := range validator.Lint(s) {
			fmt.Fprintf(w, "  ! %s\n", f)
			warnings++
		}
	}
	if strict && warnings > 0 {
		return fmt.Errorf("%d warnings", warnings)
	}
	return nil
}
