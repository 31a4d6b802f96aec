// Package mapping dispatches a field's semantic type to the strategy that
// declares its backend mapping and renders its filters and aggregations.
package mapping

import (
	"sync"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
	"github.com/kailas-cloud/facetdex/internal/domain/search/criteria"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
)

// Strategy maps one family of semantic types onto the backend.
// Implementations are stateless and safe for concurrent use.
type Strategy interface {
	// DeclareMapping returns the index field for f.
	DeclareMapping(f field.Descriptor) (db.IndexField, error)
	// Encode converts a raw document value into its stored form.
	Encode(f field.Descriptor, raw string) (string, error)
	// RenderFilter turns a criteria predicate into a clause.
	RenderFilter(f field.Descriptor, p criteria.Predicate) (db.Clause, error)
	// RenderSelection turns selected facet keys into a clause matching any of them.
	RenderSelection(f field.Descriptor, def facet.Definition, keys []string) (db.Clause, error)
	// RenderAggregation turns a facet definition into a count request.
	RenderAggregation(f field.Descriptor, def facet.Definition) (db.Aggregation, error)
}

// Registry resolves strategies by semantic type.
type Registry struct {
	mu         sync.RWMutex
	strategies map[field.SemanticType]Strategy
	fallback   Strategy
}

// NewRegistry returns a registry with the built-in strategies.
// Unknown semantic types resolve to the text strategy.
func NewRegistry() *Registry {
	text := TextStrategy{}
	return &Registry{
		strategies: map[field.SemanticType]Strategy{
			field.String: text,
			field.Int:    NumberStrategy{Kind: IntNumber},
			field.Float:  NumberStrategy{Kind: FloatNumber},
			field.Date:   NumberStrategy{Kind: DateNumber},
			field.Bool:   BoolStrategy{},
		},
		fallback: text,
	}
}

// Register binds a strategy to a semantic type, replacing any previous one.
func (r *Registry) Register(t field.SemanticType, s Strategy) {
	r.mu.Lock()
	r.strategies[t] = s
	r.mu.Unlock()
}

// Resolve returns the strategy for t. It never fails.
func (r *Registry) Resolve(t field.SemanticType) Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.strategies[t]; ok {
		return s
	}
	return r.fallback
}

// For resolves the strategy of f.
func (r *Registry) For(f field.Descriptor) Strategy { return r.Resolve(f.Type()) }
