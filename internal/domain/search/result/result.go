package result

import "github.com/kailas-cloud/facetdex/internal/domain/search/facet"

// Group is the outcome of one query entry (or one group bucket of a single query).
type Group struct {
	Code   string
	Label  string
	Items  []any
	Total  int64
	Facets []facet.Output
	Groups []Group // group buckets of a grouped multi-query entry
}

// Output is the merged result of one search call.
type Output struct {
	Groups     []Group
	Facets     []facet.Output
	TotalCount int64
}

// Group returns the group with the given code.
func (o Output) Group(code string) (Group, bool) {
	for _, g := range o.Groups {
		if g.Code == code {
			return g, true
		}
	}
	return Group{}, false
}

// Facet returns the top-level facet with the given code.
func (o Output) Facet(code string) (facet.Output, bool) {
	for _, f := range o.Facets {
		if f.Code == code {
			return f, true
		}
	}
	return facet.Output{}, false
}
