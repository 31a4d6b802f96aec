package query

import (
	"context"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
	"github.com/kailas-cloud/facetdex/internal/mapping"
)

// Backend executes a batch of structured queries in one round trip.
type Backend interface {
	ExecuteBatch(ctx context.Context, queries []db.NamedQuery) (map[string]*db.Response, error)
}

// DefinitionSource resolves document definitions (cached).
type DefinitionSource interface {
	Get(ctx context.Context, docType string) (*document.Definition, error)
}

// Strategies resolves the mapping strategy of a field.
type Strategies interface {
	For(f field.Descriptor) mapping.Strategy
}
