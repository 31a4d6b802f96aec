package mapping

import (
	"math"
	"strconv"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
	"github.com/kailas-cloud/facetdex/internal/domain/search/criteria"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
)

// encoder converts raw values into their stored form.
type encoder func(raw string) (string, error)

// exactMapping is the shared behavior of every built-in strategy: full-text
// fields map to analyzed TEXT, term and sort fields to the strategy's exact type.
type exactMapping struct {
	exact  db.IndexFieldType
	encode encoder
}

func (m exactMapping) indexType(f field.Descriptor) db.IndexFieldType {
	if f.Indexing() == field.FullText {
		return db.IndexFieldText
	}
	return m.exact
}

func (m exactMapping) declare(f field.Descriptor) (db.IndexField, error) {
	switch f.Indexing() {
	case field.FullText:
		return db.IndexField{
			Name:           f.StorageName(),
			Type:           db.IndexFieldText,
			Analyzer:       db.AnalyzerText,
			SearchAnalyzer: db.AnalyzerSearchText,
		}, nil
	case field.Term, field.Sort:
		return db.IndexField{Name: f.StorageName(), Type: m.exact, Sortable: true}, nil
	case field.None:
		return db.IndexField{Name: f.StorageName(), Type: m.exact, NoIndex: true}, nil
	}
	return db.IndexField{}, domain.Configf(f.Name(), "unsupported indexing %q", f.Indexing())
}

func (m exactMapping) encodeAll(f field.Descriptor, values []string) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		enc, err := m.encode(v)
		if err != nil {
			return nil, domain.Configf(f.Name(), "invalid value %q: %v", v, err)
		}
		out[i] = enc
	}
	return out, nil
}

func (m exactMapping) filter(f field.Descriptor, p criteria.Predicate) (db.Clause, error) {
	if f.Indexing() == field.None {
		return db.Clause{}, domain.Configf(f.Name(), "field is not indexed")
	}
	name, typ := f.StorageName(), m.indexType(f)

	switch p.Op() {
	case criteria.OpExists:
		return db.ExistsClause(name, typ), nil
	case criteria.OpMissing:
		return db.MissingClause(name, typ), nil
	}

	if f.Indexing() == field.FullText {
		switch p.Op() {
		case criteria.OpMatch:
			return db.MatchClause(name, p.Values()[0], true), nil
		case criteria.OpEq, criteria.OpIn:
			return db.TermClause(name, db.IndexFieldText, p.Values()...), nil
		}
		return db.Clause{}, domain.Configf(f.Name(), "%s filter on a full-text field", p.Op())
	}

	switch p.Op() {
	case criteria.OpEq, criteria.OpIn:
		values, err := m.encodeAll(f, p.Values())
		if err != nil {
			return db.Clause{}, err
		}
		return db.TermClause(name, m.exact, values...), nil
	case criteria.OpRange:
		if m.exact != db.IndexFieldNumeric {
			return db.Clause{}, domain.Configf(f.Name(), "range filter on a text term field")
		}
		r, err := m.numericRange(f, p.Range())
		if err != nil {
			return db.Clause{}, err
		}
		return db.RangeClause(name, r), nil
	}
	return db.Clause{}, domain.Configf(f.Name(), "%s filter on a non full-text field", p.Op())
}

func (m exactMapping) numericRange(f field.Descriptor, r *criteria.Range) (db.NumericRange, error) {
	out := db.Unbounded()
	if r == nil {
		return out, nil
	}
	bound := func(raw *string) (float64, error) {
		enc, err := m.encode(*raw)
		if err != nil {
			return 0, domain.Configf(f.Name(), "invalid range bound %q: %v", *raw, err)
		}
		return strconv.ParseFloat(enc, 64)
	}
	var err error
	switch {
	case r.GT() != nil:
		out.Min, err = bound(r.GT())
		out.ExclusiveMin = true
	case r.GTE() != nil:
		out.Min, err = bound(r.GTE())
	}
	if err != nil {
		return db.NumericRange{}, err
	}
	switch {
	case r.LT() != nil:
		out.Max, err = bound(r.LT())
		out.ExclusiveMax = true
	case r.LTE() != nil:
		out.Max, err = bound(r.LTE())
	}
	if err != nil {
		return db.NumericRange{}, err
	}
	return out, nil
}

func (m exactMapping) selection(f field.Descriptor, def facet.Definition, keys []string) (db.Clause, error) {
	if f.Indexing() == field.None {
		return db.Clause{}, domain.Configf(f.Name(), "field is not indexed")
	}
	name, typ := f.StorageName(), m.indexType(f)

	clauses := make([]db.Clause, 0, len(keys))
	switch def.Kind() {
	case facet.Exists:
		for _, k := range keys {
			switch k {
			case facet.ExistsKey:
				clauses = append(clauses, db.ExistsClause(name, typ))
			case facet.MissingKey:
				clauses = append(clauses, db.MissingClause(name, typ))
			default:
				return db.Clause{}, domain.Configf(def.Code(), "unknown exists facet key %q", k)
			}
		}

	case facet.Range:
		for _, k := range keys {
			b, ok := def.Range(k)
			if !ok {
				return db.Clause{}, domain.Configf(def.Code(), "unknown range %q", k)
			}
			clauses = append(clauses, db.RangeClause(name, boundRange(b)))
		}

	default:
		var values []string
		for _, k := range keys {
			if k == facet.MissingKey {
				clauses = append(clauses, db.MissingClause(name, typ))
				continue
			}
			values = append(values, k)
		}
		if len(values) > 0 {
			enc, err := m.encodeAll(f, values)
			if err != nil {
				return db.Clause{}, err
			}
			clauses = append(clauses, db.TermClause(name, typ, enc...))
		}
	}
	if len(clauses) == 0 {
		return db.MatchAll(), nil
	}
	return db.Or(clauses...), nil
}

func (m exactMapping) aggregation(f field.Descriptor, def facet.Definition) (db.Aggregation, error) {
	if f.Indexing() == field.None {
		return db.Aggregation{}, domain.Configf(f.Name(), "field is not indexed")
	}
	agg := db.Aggregation{
		Code:   def.Code(),
		Field:  f.StorageName(),
		Type:   m.indexType(f),
		Filter: db.MatchAll(),
	}

	switch def.Kind() {
	case facet.Exists:
		agg.Kind = db.AggExists
		return agg, nil

	case facet.Range:
		if f.Indexing() == field.FullText || m.exact != db.IndexFieldNumeric {
			return db.Aggregation{}, domain.Configf(def.Code(), "range facet on non-numeric field %q", f.Name())
		}
		agg.Kind = db.AggRange
		for _, b := range def.Ranges() {
			agg.Ranges = append(agg.Ranges, db.RangeBucket{Key: b.Code, Range: boundRange(b)})
		}
		return agg, nil
	}

	if f.Indexing() == field.FullText {
		return db.Aggregation{}, domain.Configf(def.Code(), "term facet on full-text field %q", f.Name())
	}
	agg.Kind = db.AggTerms
	agg.Size = def.Size()
	agg.Missing = def.HasMissing()
	return agg, nil
}

// boundRange converts a facet range, [min, max), into a numeric range.
func boundRange(b facet.Bound) db.NumericRange {
	r := db.NumericRange{Min: b.Lower(), Max: b.Upper()}
	if !math.IsInf(r.Max, 1) {
		r.ExclusiveMax = true
	}
	return r
}
