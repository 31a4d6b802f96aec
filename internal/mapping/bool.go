package mapping

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
	"github.com/kailas-cloud/facetdex/internal/domain/search/criteria"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
)

// BoolStrategy maps booleans onto TAG fields holding "true" or "false".
type BoolStrategy struct{}

var boolMapping = exactMapping{exact: db.IndexFieldTag, encode: encodeBool}

func encodeBool(raw string) (string, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("not a boolean")
	}
	return strconv.FormatBool(b), nil
}

// DeclareMapping implements Strategy.
func (BoolStrategy) DeclareMapping(f field.Descriptor) (db.IndexField, error) {
	if f.Indexing() == field.FullText {
		return db.IndexField{}, domain.Configf(f.Name(), "boolean fields cannot be full-text")
	}
	return boolMapping.declare(f)
}

// Encode implements Strategy.
func (BoolStrategy) Encode(f field.Descriptor, raw string) (string, error) {
	enc, err := encodeBool(raw)
	if err != nil {
		return "", domain.Configf(f.Name(), "invalid value %q: %v", raw, err)
	}
	return enc, nil
}

// RenderFilter implements Strategy.
func (BoolStrategy) RenderFilter(f field.Descriptor, p criteria.Predicate) (db.Clause, error) {
	return boolMapping.filter(f, p)
}

// RenderSelection implements Strategy.
func (BoolStrategy) RenderSelection(f field.Descriptor, def facet.Definition, keys []string) (db.Clause, error) {
	return boolMapping.selection(f, def, keys)
}

// RenderAggregation implements Strategy.
func (BoolStrategy) RenderAggregation(f field.Descriptor, def facet.Definition) (db.Aggregation, error) {
	return boolMapping.aggregation(f, def)
}
