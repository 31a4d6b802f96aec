package mapping

import (
	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
	"github.com/kailas-cloud/facetdex/internal/domain/search/criteria"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
)

// TextStrategy maps strings: analyzed TEXT for full-text fields, TAG otherwise.
// It is also the fallback for unknown semantic types.
type TextStrategy struct{}

var textMapping = exactMapping{
	exact:  db.IndexFieldTag,
	encode: func(raw string) (string, error) { return raw, nil },
}

// DeclareMapping implements Strategy.
func (TextStrategy) DeclareMapping(f field.Descriptor) (db.IndexField, error) {
	return textMapping.declare(f)
}

// Encode implements Strategy.
func (TextStrategy) Encode(_ field.Descriptor, raw string) (string, error) { return raw, nil }

// RenderFilter implements Strategy.
func (TextStrategy) RenderFilter(f field.Descriptor, p criteria.Predicate) (db.Clause, error) {
	return textMapping.filter(f, p)
}

// RenderSelection implements Strategy.
func (TextStrategy) RenderSelection(f field.Descriptor, def facet.Definition, keys []string) (db.Clause, error) {
	return textMapping.selection(f, def, keys)
}

// RenderAggregation implements Strategy.
func (TextStrategy) RenderAggregation(f field.Descriptor, def facet.Definition) (db.Aggregation, error) {
	return textMapping.aggregation(f, def)
}
