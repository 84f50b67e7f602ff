package memory

import (
	"context"

	"github.com/aretw0/canvass/pkg/domain"
)

// Loader implements ports.CatalogLoader over surveys already held in memory.
// Useful for tests and for embedding programmatically built surveys.
type Loader struct {
	surveys []*domain.Survey
}

// NewLoader creates a Loader serving the given surveys.
func NewLoader(surveys ...*domain.Survey) *Loader {
	return &Loader{surveys: surveys}
}

// Load compiles the surveys into a catalog.
func (l *Loader) Load(ctx context.Context) (*domain.Catalog, error) {
	return domain.NewCatalog(l.surveys...)
}
