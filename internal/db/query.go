package db

import (
	"math"
	"strconv"
)

// ClauseKind enumerates structured query clause kinds.
type ClauseKind int

const (
	// ClauseAll matches every document.
	ClauseAll ClauseKind = iota
	// ClauseTerm matches any of Values exactly.
	ClauseTerm
	// ClauseRange matches numeric values within Range.
	ClauseRange
	// ClauseMatch matches analyzed Text.
	ClauseMatch
	// ClauseExists matches documents with a value for Field.
	ClauseExists
	// ClauseMissing matches documents without a value for Field.
	ClauseMissing
	// ClauseAnd matches when every child matches.
	ClauseAnd
	// ClauseOr matches when any child matches.
	ClauseOr
	// ClauseNot matches when its single child does not.
	ClauseNot
)

// NumericRange is a numeric interval. Open ends use ±Inf.
type NumericRange struct {
	Min          float64
	Max          float64
	ExclusiveMin bool
	ExclusiveMax bool
}

// Unbounded returns (-Inf, +Inf).
func Unbounded() NumericRange {
	return NumericRange{Min: math.Inf(-1), Max: math.Inf(1)}
}

// Contains reports whether v lies within r.
func (r NumericRange) Contains(v float64) bool {
	if r.ExclusiveMin && v <= r.Min || !r.ExclusiveMin && v < r.Min {
		return false
	}
	if r.ExclusiveMax && v >= r.Max || !r.ExclusiveMax && v > r.Max {
		return false
	}
	return true
}

// Clause is a node of a structured boolean query.
type Clause struct {
	Kind     ClauseKind
	Field    string
	Type     IndexFieldType
	Values   []string
	Range    NumericRange
	Text     string
	Prefix   bool // match terms by prefix (search_text analyzer)
	Children []Clause
}

// MatchAll returns a clause matching every document.
func MatchAll() Clause { return Clause{Kind: ClauseAll} }

// IsAll reports whether c matches every document.
func (c Clause) IsAll() bool { return c.Kind == ClauseAll }

// TermClause matches any of values exactly.
func TermClause(field string, typ IndexFieldType, values ...string) Clause {
	return Clause{Kind: ClauseTerm, Field: field, Type: typ, Values: append([]string(nil), values...)}
}

// RangeClause matches numeric values within r.
func RangeClause(field string, r NumericRange) Clause {
	return Clause{Kind: ClauseRange, Field: field, Type: IndexFieldNumeric, Range: r}
}

// MatchClause matches analyzed text.
func MatchClause(field, text string, prefix bool) Clause {
	return Clause{Kind: ClauseMatch, Field: field, Type: IndexFieldText, Text: text, Prefix: prefix}
}

// ExistsClause matches documents with a value for field.
func ExistsClause(field string, typ IndexFieldType) Clause {
	return Clause{Kind: ClauseExists, Field: field, Type: typ}
}

// MissingClause matches documents without a value for field.
func MissingClause(field string, typ IndexFieldType) Clause {
	return Clause{Kind: ClauseMissing, Field: field, Type: typ}
}

// And combines clauses conjunctively. MatchAll children are dropped.
func And(clauses ...Clause) Clause {
	children := make([]Clause, 0, len(clauses))
	for _, c := range clauses {
		if c.IsAll() {
			continue
		}
		children = append(children, c)
	}
	switch len(children) {
	case 0:
		return MatchAll()
	case 1:
		return children[0]
	}
	return Clause{Kind: ClauseAnd, Children: children}
}

// Or combines clauses disjunctively. An empty disjunction or a MatchAll child
// yields MatchAll.
func Or(clauses ...Clause) Clause {
	if len(clauses) == 0 {
		return MatchAll()
	}
	for _, c := range clauses {
		if c.IsAll() {
			return MatchAll()
		}
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return Clause{Kind: ClauseOr, Children: append([]Clause(nil), clauses...)}
}

// Not negates c.
func Not(c Clause) Clause {
	if c.Kind == ClauseNot {
		return c.Children[0]
	}
	return Clause{Kind: ClauseNot, Children: []Clause{c}}
}

// AggregationKind enumerates facet aggregation kinds.
type AggregationKind int

const (
	// AggTerms counts documents per distinct value.
	AggTerms AggregationKind = iota
	// AggExists counts documents with and without a value.
	AggExists
	// AggRange counts documents per declared numeric range.
	AggRange
)

// RangeBucket is one declared bucket of a range aggregation.
type RangeBucket struct {
	Key   string
	Range NumericRange
}

// Aggregation describes one facet count request.
type Aggregation struct {
	Code    string
	Kind    AggregationKind
	Field   string
	Type    IndexFieldType
	Size    int  // max term buckets, 0 means unlimited
	Missing bool // emit a missing bucket for terms
	Ranges  []RangeBucket
	// Filter restricts the counted documents on top of Query.Filter.
	Filter Clause
}

// GroupSpec splits the results by the values of one field. Documents
// without a value form the MissingKey group.
type GroupSpec struct {
	Field string
	Type  IndexFieldType
	Size  int // max groups, 0 means unlimited
	Hits  int // max documents returned per group, sorted like the page
}

// SortSpec orders hits by one sortable field.
type SortSpec struct {
	Field string
	Desc  bool
}

// Query is a backend-neutral structured search. It is built fresh per call
// and never mutated after submission.
type Query struct {
	Index        string
	Prefix       string // key prefix stripped from document ids
	Filter       Clause
	PostFilter   Clause
	Aggregations []Aggregation
	Group        *GroupSpec
	Sort         *SortSpec
	Offset       int
	Limit        int
}

// HitFilter returns the clause selecting the returned documents.
func (q *Query) HitFilter() Clause { return And(q.Filter, q.PostFilter) }

// AggregationFilter returns the clause selecting the documents counted by a.
func (q *Query) AggregationFilter(a Aggregation) Clause { return And(q.Filter, a.Filter) }

// FormatNumber renders a numeric value the way backends store it.
func FormatNumber(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
