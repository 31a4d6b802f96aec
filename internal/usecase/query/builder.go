package query

import (
	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/document/field"
	"github.com/kailas-cloud/facetdex/internal/domain/search/criteria"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
)

// Page size defaults.
const (
	DefaultTop = 20
	MaxTop     = 1000
)

// BuilderConfig configures pagination defaults.
type BuilderConfig struct {
	DefaultTop int
	MaxTop     int
}

// Builder turns an advanced query input into a structured backend query.
// It is stateless apart from its configuration and safe for concurrent use.
type Builder struct {
	strategies Strategies
	defaultTop int
	maxTop     int
}

// NewBuilder creates a query builder.
func NewBuilder(s Strategies, cfg BuilderConfig) *Builder {
	b := &Builder{strategies: s, defaultTop: DefaultTop, maxTop: MaxTop}
	if cfg.DefaultTop > 0 {
		b.defaultTop = cfg.DefaultTop
	}
	if cfg.MaxTop > 0 {
		b.maxTop = cfg.MaxTop
	}
	if b.defaultTop > b.maxTop {
		b.defaultTop = b.maxTop
	}
	return b
}

// Build creates a fresh query for def. The input is not modified.
func (b *Builder) Build(def *document.Definition, in request.Input) (*db.Query, error) {
	if err := in.Validate(); err != nil {
		return nil, &domain.ConfigurationError{Subject: def.Type(), Reason: err.Error()}
	}
	in = in.Clone()

	filter, err := b.criteriaClause(def, in.Criteria)
	if err != nil {
		return nil, err
	}

	q := &db.Query{
		Index:      db.IndexName(def.Type()),
		Prefix:     db.KeyPrefix(def.Type()),
		Filter:     filter,
		PostFilter: db.MatchAll(),
		Offset:     in.Skip,
		Limit:      b.pageSize(in.Top),
	}

	if err := b.applyFacets(q, def, in); err != nil {
		return nil, err
	}
	if err := b.applyGroup(q, def, in.GroupField); err != nil {
		return nil, err
	}
	if err := b.applySort(q, def, in.Sort); err != nil {
		return nil, err
	}
	return q, nil
}

func (b *Builder) pageSize(top int) int {
	switch {
	case top <= 0:
		return b.defaultTop
	case top > b.maxTop:
		return b.maxTop
	}
	return top
}

// criteriaClause ORs the criteria; each criterion ANDs its predicates and
// its full-text query.
func (b *Builder) criteriaClause(def *document.Definition, list []criteria.Criterion) (db.Clause, error) {
	clauses := make([]db.Clause, 0, len(list))
	for _, c := range list {
		parts := make([]db.Clause, 0, len(c.Predicates())+1)
		for _, p := range c.Predicates() {
			f, err := lookupField(def, p.Field(), p.Field())
			if err != nil {
				return db.Clause{}, err
			}
			clause, err := b.strategies.For(f).RenderFilter(f, p)
			if err != nil {
				return db.Clause{}, err
			}
			parts = append(parts, clause)
		}
		if c.Query() != "" {
			text, err := fullTextClause(def, c.Query())
			if err != nil {
				return db.Clause{}, err
			}
			parts = append(parts, text)
		}
		clauses = append(clauses, db.And(parts...))
	}
	return db.Or(clauses...), nil
}

func fullTextClause(def *document.Definition, text string) (db.Clause, error) {
	fields := def.FullTextFields()
	if len(fields) == 0 {
		return db.Clause{}, domain.Configf(def.Type(), "full-text query on a type without full-text fields")
	}
	matches := make([]db.Clause, len(fields))
	for i, f := range fields {
		matches[i] = db.MatchClause(f.StorageName(), text, true)
	}
	return db.Or(matches...), nil
}

// applyFacets adds one aggregation per facet and turns the selections into the
// post filter. Multi-selectable facets are counted without their own
// selection so sibling values keep their counts.
func (b *Builder) applyFacets(q *db.Query, def *document.Definition, in request.Input) error {
	facets := make(map[string]facet.Definition, len(in.Facets))
	for _, fd := range in.Facets {
		facets[fd.Code()] = fd
	}

	type selected struct {
		code   string
		clause db.Clause
	}
	selections := make([]selected, 0, len(in.Selected))
	for _, sel := range in.Selected {
		fd, ok := facets[sel.Facet]
		if !ok {
			return domain.Configf(sel.Facet, "selection on unknown facet")
		}
		if len(sel.Values) == 0 {
			continue
		}
		if len(sel.Values) > 1 && !fd.IsMultiSelectable() {
			return domain.Configf(sel.Facet, "facet is not multi-selectable")
		}
		if sel.Excluded && !fd.CanExclude() {
			return domain.Configf(sel.Facet, "facet does not support exclusion")
		}
		f, err := lookupField(def, fd.Field(), fd.Code())
		if err != nil {
			return err
		}
		clause, err := b.strategies.For(f).RenderSelection(f, fd, sel.Values)
		if err != nil {
			return err
		}
		if sel.Excluded {
			clause = db.Not(clause)
		}
		selections = append(selections, selected{code: sel.Facet, clause: clause})
	}

	all := make([]db.Clause, len(selections))
	for i, s := range selections {
		all[i] = s.clause
	}
	q.PostFilter = db.And(all...)

	for _, fd := range in.Facets {
		f, err := lookupField(def, fd.Field(), fd.Code())
		if err != nil {
			return err
		}
		agg, err := b.strategies.For(f).RenderAggregation(f, fd)
		if err != nil {
			return err
		}
		agg.Filter = q.PostFilter
		if fd.IsMultiSelectable() {
			others := make([]db.Clause, 0, len(selections))
			for _, s := range selections {
				if s.code != fd.Code() {
					others = append(others, s.clause)
				}
			}
			agg.Filter = db.And(others...)
		}
		q.Aggregations = append(q.Aggregations, agg)
	}
	return nil
}

func (b *Builder) applyGroup(q *db.Query, def *document.Definition, name string) error {
	if name == "" {
		return nil
	}
	f, err := lookupField(def, name, name)
	if err != nil {
		return err
	}
	if !f.Indexing().IsExact() {
		return domain.Configf(name, "grouping needs a term or sort field, got %s", f.Indexing())
	}
	decl, err := b.strategies.For(f).DeclareMapping(f)
	if err != nil {
		return err
	}
	// each group carries up to one page of its own documents
	q.Group = &db.GroupSpec{Field: f.StorageName(), Type: decl.Type, Hits: q.Limit}
	return nil
}

func (b *Builder) applySort(q *db.Query, def *document.Definition, s *request.Sort) error {
	if s == nil {
		return nil
	}
	f, err := lookupField(def, s.Field, s.Field)
	if err != nil {
		return err
	}
	if !f.Indexing().IsExact() {
		return domain.Configf(s.Field, "sorting needs a term or sort field, got %s", f.Indexing())
	}
	q.Sort = &db.SortSpec{Field: f.StorageName(), Desc: s.Desc}
	return nil
}

func lookupField(def *document.Definition, name, subject string) (field.Descriptor, error) {
	f, ok := def.Field(name)
	if !ok {
		if subject != name {
			return field.Descriptor{}, domain.Configf(subject, "unknown field %q in %s", name, def.Type())
		}
		return field.Descriptor{}, domain.Configf(name, "unknown field in %s", def.Type())
	}
	return f, nil
}
