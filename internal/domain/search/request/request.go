package request

import (
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/domain/search/criteria"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
)

// MaxQueryLength is the maximum allowed full-text query length.
const MaxQueryLength = 4096

// Selection holds the keys selected for one facet.
type Selection struct {
	Facet    string
	Values   []string
	Excluded bool
}

// Has reports whether key is selected.
func (s Selection) Has(key string) bool {
	for _, v := range s.Values {
		if v == key {
			return true
		}
	}
	return false
}

// Sort orders hits by one field.
type Sort struct {
	Field string
	Desc  bool
}

// Input is the structured description of one advanced query.
// Skip and Top are defaulted and clamped by the query builder.
type Input struct {
	Criteria   []criteria.Criterion
	Selected   []Selection
	GroupField string
	Sort       *Sort
	Skip       int
	Top        int
	Facets     []facet.Definition
}

// Validate checks the input shape. Field references are checked by the builder.
func (in Input) Validate() error {
	if in.Skip < 0 {
		return fmt.Errorf("skip must be non-negative")
	}
	if in.Top < 0 {
		return fmt.Errorf("top must be non-negative")
	}
	for _, c := range in.Criteria {
		if len(c.Query()) > MaxQueryLength {
			return fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
		}
	}
	codes := make(map[string]bool, len(in.Facets))
	for _, f := range in.Facets {
		if codes[f.Code()] {
			return fmt.Errorf("duplicate facet %q", f.Code())
		}
		codes[f.Code()] = true
	}
	seen := make(map[string]bool, len(in.Selected))
	for _, s := range in.Selected {
		if seen[s.Facet] {
			return fmt.Errorf("facet %q selected twice", s.Facet)
		}
		seen[s.Facet] = true
	}
	return nil
}

// Selection returns the selection for facet code.
func (in Input) Selection(code string) (Selection, bool) {
	for _, s := range in.Selected {
		if s.Facet == code {
			return s, true
		}
	}
	return Selection{}, false
}

// Clone returns a deep copy with every criterion group marker cleared.
func (in Input) Clone() Input {
	out := in
	if in.Criteria != nil {
		out.Criteria = make([]criteria.Criterion, len(in.Criteria))
		for i, c := range in.Criteria {
			out.Criteria[i] = c.WithoutGroup()
		}
	}
	if in.Selected != nil {
		out.Selected = make([]Selection, len(in.Selected))
		for i, s := range in.Selected {
			s.Values = append([]string(nil), s.Values...)
			out.Selected[i] = s
		}
	}
	if in.Sort != nil {
		s := *in.Sort
		out.Sort = &s
	}
	out.Facets = append([]facet.Definition(nil), in.Facets...)
	return out
}
