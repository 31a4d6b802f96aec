package index

import (
	"context"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
	"github.com/kailas-cloud/facetdex/internal/mapping"
)

// DefinitionSource resolves and invalidates cached document definitions.
type DefinitionSource interface {
	Get(ctx context.Context, docType string) (*document.Definition, error)
	Invalidate(docType string)
}

// Repository persists definitions and provisions their indexes.
type Repository interface {
	Provision(ctx context.Context, def *document.Definition, idx *db.IndexDefinition) error
	AddField(ctx context.Context, def *document.Definition, indexName string, f db.IndexField) error
}

// IndexChecker reports whether an index exists.
type IndexChecker interface {
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Strategies resolves the mapping strategy of a field.
type Strategies interface {
	For(f field.Descriptor) mapping.Strategy
}
