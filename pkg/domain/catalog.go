package domain

import (
	"fmt"
	"sort"
)

// Catalog is the read-only set of surveys served by a process.
// It is built once at startup and shared by reference; it is never mutated afterwards,
// so concurrent readers need no synchronization.
type Catalog struct {
	surveys map[string]*Survey
	ids     []string
}

// NewCatalog validates every survey and freezes them into a catalog.
func NewCatalog(surveys ...*Survey) (*Catalog, error) {
	c := &Catalog{surveys: make(map[string]*Survey, len(surveys))}
	for _, s := range surveys {
		if s == nil {
			continue
		}
		if _, dup := c.surveys[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate survey id %q", ErrInvalidSurvey, s.ID)
		}
		if err := s.compile(); err != nil {
			return nil, err
		}
		c.surveys[s.ID] = s
		c.ids = append(c.ids, s.ID)
	}
	sort.Strings(c.ids)
	return c, nil
}

// Survey returns the survey with the given ID or ErrUnknownSurvey.
func (c *Catalog) Survey(id string) (*Survey, error) {
	if c != nil {
		if s, ok := c.surveys[id]; ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSurvey, id)
}

// IDs returns the sorted survey identifiers.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Len returns the number of surveys in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ids)
}
