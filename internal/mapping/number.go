package mapping

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
	"github.com/kailas-cloud/facetdex/internal/domain/search/criteria"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
)

// NumberKind selects how a NumberStrategy parses values.
type NumberKind int

// Number kinds.
const (
	IntNumber NumberKind = iota
	FloatNumber
	// DateNumber stores dates as unix seconds.
	DateNumber
)

// dateLayouts are accepted in addition to unix seconds.
var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// NumberStrategy maps integers, floats and dates onto NUMERIC fields.
// Full-text numbers are indexed as analyzed TEXT.
type NumberStrategy struct {
	Kind NumberKind
}

func (s NumberStrategy) mapping() exactMapping {
	return exactMapping{exact: db.IndexFieldNumeric, encode: s.encode}
}

func (s NumberStrategy) encode(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch s.Kind {
	case IntNumber:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return "", fmt.Errorf("not an integer")
		}
		return strconv.FormatInt(n, 10), nil
	case FloatNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return "", fmt.Errorf("not a number")
		}
		return db.FormatNumber(f), nil
	case DateNumber:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return strconv.FormatInt(n, 10), nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return strconv.FormatInt(t.Unix(), 10), nil
			}
		}
		return "", fmt.Errorf("not a date")
	}
	return "", fmt.Errorf("unknown number kind %d", s.Kind)
}

// DeclareMapping implements Strategy.
func (s NumberStrategy) DeclareMapping(f field.Descriptor) (db.IndexField, error) {
	return s.mapping().declare(f)
}

// Encode implements Strategy.
func (s NumberStrategy) Encode(f field.Descriptor, raw string) (string, error) {
	enc, err := s.encode(raw)
	if err != nil {
		return "", domain.Configf(f.Name(), "invalid value %q: %v", raw, err)
	}
	return enc, nil
}

// RenderFilter implements Strategy.
func (s NumberStrategy) RenderFilter(f field.Descriptor, p criteria.Predicate) (db.Clause, error) {
	return s.mapping().filter(f, p)
}

// RenderSelection implements Strategy.
func (s NumberStrategy) RenderSelection(f field.Descriptor, def facet.Definition, keys []string) (db.Clause, error) {
	return s.mapping().selection(f, def, keys)
}

// RenderAggregation implements Strategy.
func (s NumberStrategy) RenderAggregation(f field.Descriptor, def facet.Definition) (db.Aggregation, error) {
	return s.mapping().aggregation(f, def)
}
