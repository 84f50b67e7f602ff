package ports

import (
	"context"

	"github.com/aretw0/canvass/pkg/domain"
)

// CatalogLoader defines how the engine obtains survey definitions.
// Parsing and storage of definitions stay outside the engine.
type CatalogLoader interface {
	// Load reads every available definition and returns a validated catalog.
	Load(ctx context.Context) (*domain.Catalog, error)
}

// CatalogLoaderFunc adapts a function to CatalogLoader.
type CatalogLoaderFunc func(ctx context.Context) (*domain.Catalog, error)

// Load implements CatalogLoader.
func (f CatalogLoaderFunc) Load(ctx context.Context) (*domain.Catalog, error) {
	return f(ctx)
}
