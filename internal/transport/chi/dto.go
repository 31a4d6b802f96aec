package chi

import (
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain/search/criteria"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
)

// --- Requests ---

type multiSearchRequest struct {
	Queries []queryEntry `json:"queries"`
}

type queryEntry struct {
	Code  string   `json:"code"`
	Label string   `json:"label"`
	Type  string   `json:"type"`
	Input inputDTO `json:"input"`
}

type inputDTO struct {
	Criteria   []criterionDTO `json:"criteria"`
	Selected   []selectionDTO `json:"selected"`
	GroupField string         `json:"group_field"`
	Sort       *sortDTO       `json:"sort"`
	Skip       int            `json:"skip"`
	Top        int            `json:"top"`
	Facets     []facetDTO     `json:"facets"`
}

type criterionDTO struct {
	Query   string         `json:"query"`
	Filters []predicateDTO `json:"filters"`
}

type predicateDTO struct {
	Field  string    `json:"field"`
	Op     string    `json:"op"`
	Value  string    `json:"value"`
	Values []string  `json:"values"`
	Range  *rangeDTO `json:"range"`
}

type rangeDTO struct {
	Gt  *string `json:"gt"`
	Gte *string `json:"gte"`
	Lt  *string `json:"lt"`
	Lte *string `json:"lte"`
}

type selectionDTO struct {
	Facet    string   `json:"facet"`
	Values   []string `json:"values"`
	Excluded bool     `json:"excluded"`
}

type sortDTO struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

type facetDTO struct {
	Code            string     `json:"code"`
	Label           string     `json:"label"`
	Field           string     `json:"field"`
	Kind            string     `json:"kind"` // term (default), exists, range
	MultiSelectable bool       `json:"multi_selectable"`
	Excludable      bool       `json:"excludable"`
	Missing         bool       `json:"missing"`
	Order           string     `json:"order"` // key, label; backend order by default
	Size            int        `json:"size"`
	Ranges          []boundDTO `json:"ranges"`
	Reference       string     `json:"reference"` // code table resolving item labels
}

type boundDTO struct {
	Code  string   `json:"code"`
	Label string   `json:"label"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
}

type bulkRequest struct {
	Index  []map[string]string `json:"index"`
	Delete []string            `json:"delete"`
}

// --- Responses ---

type outputDTO struct {
	Groups     []groupDTO       `json:"groups"`
	Facets     []facetOutputDTO `json:"facets"`
	TotalCount int64            `json:"total_count"`
}

type groupDTO struct {
	Code   string           `json:"code"`
	Label  string           `json:"label"`
	Items  []any            `json:"items"`
	Total  int64            `json:"total"`
	Facets []facetOutputDTO `json:"facets"`
	Groups []groupDTO       `json:"groups,omitempty"`
}

type facetOutputDTO struct {
	Code            string    `json:"code"`
	Label           string    `json:"label"`
	MultiSelectable bool      `json:"multi_selectable"`
	Excludable      bool      `json:"excludable"`
	HasMissing      bool      `json:"has_missing"`
	Items           []itemDTO `json:"items"`
}

type itemDTO struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type documentDTO struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

type mappingDTO struct {
	Name     string            `json:"name"`
	Prefixes []string          `json:"prefixes"`
	Fields   []mappingFieldDTO `json:"fields"`
}

type mappingFieldDTO struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	Sortable       bool   `json:"sortable,omitempty"`
	NoIndex        bool   `json:"no_index,omitempty"`
	Analyzer       string `json:"analyzer,omitempty"`
	SearchAnalyzer string `json:"search_analyzer,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Converters ---

func (d inputDTO) toInput(resolve func(list string) (facet.LabelResolver, error)) (request.Input, error) {
	in := request.Input{
		GroupField: d.GroupField,
		Skip:       d.Skip,
		Top:        d.Top,
	}
	if d.Sort != nil {
		in.Sort = &request.Sort{Field: d.Sort.Field, Desc: d.Sort.Desc}
	}

	for i, c := range d.Criteria {
		crit, err := c.toCriterion()
		if err != nil {
			return request.Input{}, fmt.Errorf("criteria[%d]: %w", i, err)
		}
		in.Criteria = append(in.Criteria, crit)
	}

	for _, s := range d.Selected {
		in.Selected = append(in.Selected, request.Selection{
			Facet:    s.Facet,
			Values:   append([]string(nil), s.Values...),
			Excluded: s.Excluded,
		})
	}

	for i, f := range d.Facets {
		def, err := f.toDefinition()
		if err != nil {
			return request.Input{}, fmt.Errorf("facets[%d]: %w", i, err)
		}
		if f.Reference != "" {
			r, err := resolve(f.Reference)
			if err != nil {
				return request.Input{}, fmt.Errorf("facets[%d]: reference %q: %w", i, f.Reference, err)
			}
			def = def.WithLabelResolver(r)
		}
		in.Facets = append(in.Facets, def)
	}

	if err := in.Validate(); err != nil {
		return request.Input{}, err
	}
	return in, nil
}

func (c criterionDTO) toCriterion() (criteria.Criterion, error) {
	preds := make([]criteria.Predicate, 0, len(c.Filters))
	for _, p := range c.Filters {
		pred, err := p.toPredicate()
		if err != nil {
			return criteria.Criterion{}, err
		}
		preds = append(preds, pred)
	}
	return criteria.New(c.Query, preds...)
}

func (p predicateDTO) toPredicate() (criteria.Predicate, error) {
	switch criteria.Op(p.Op) {
	case criteria.OpEq:
		return criteria.Eq(p.Field, p.Value)
	case criteria.OpIn:
		return criteria.In(p.Field, p.Values...)
	case criteria.OpMatch:
		return criteria.Match(p.Field, p.Value)
	case criteria.OpExists:
		return criteria.Exists(p.Field)
	case criteria.OpMissing:
		return criteria.Missing(p.Field)
	case criteria.OpRange:
		if p.Range == nil {
			return criteria.Predicate{}, fmt.Errorf("range filter on %q needs bounds", p.Field)
		}
		r, err := criteria.NewRange(p.Range.Gt, p.Range.Gte, p.Range.Lt, p.Range.Lte)
		if err != nil {
			return criteria.Predicate{}, fmt.Errorf("range filter on %q: %w", p.Field, err)
		}
		return criteria.Between(p.Field, r)
	}
	return criteria.Predicate{}, fmt.Errorf("unknown filter op %q", p.Op)
}

func (f facetDTO) toDefinition() (facet.Definition, error) {
	var opts []facet.Option
	if f.MultiSelectable {
		opts = append(opts, facet.MultiSelectable())
	}
	if f.Excludable {
		opts = append(opts, facet.Excludable())
	}
	if f.Missing {
		opts = append(opts, facet.WithMissing())
	}
	if f.Size > 0 {
		opts = append(opts, facet.WithSize(f.Size))
	}
	switch f.Order {
	case "":
	case "key":
		opts = append(opts, facet.OrderBy(facet.OrderKey))
	case "label":
		opts = append(opts, facet.OrderBy(facet.OrderLabel))
	default:
		return facet.Definition{}, fmt.Errorf("facet %q: unknown order %q", f.Code, f.Order)
	}

	switch f.Kind {
	case "", "term":
		return facet.NewTerm(f.Code, f.Label, f.Field, opts...)
	case "exists":
		return facet.NewExists(f.Code, f.Label, f.Field, opts...)
	case "range":
		bounds := make([]facet.Bound, len(f.Ranges))
		for i, b := range f.Ranges {
			bounds[i] = facet.Bound{Code: b.Code, Label: b.Label, Min: b.Min, Max: b.Max}
		}
		return facet.NewRange(f.Code, f.Label, f.Field, bounds, opts...)
	}
	return facet.Definition{}, fmt.Errorf("facet %q: unknown kind %q", f.Code, f.Kind)
}

func outputToDTO(o result.Output) outputDTO {
	return outputDTO{
		Groups:     groupsToDTO(o.Groups),
		Facets:     facetsToDTO(o.Facets),
		TotalCount: o.TotalCount,
	}
}

func groupsToDTO(groups []result.Group) []groupDTO {
	out := make([]groupDTO, len(groups))
	for i, g := range groups {
		items := g.Items
		if items == nil {
			items = []any{}
		}
		out[i] = groupDTO{
			Code:   g.Code,
			Label:  g.Label,
			Items:  items,
			Total:  g.Total,
			Facets: facetsToDTO(g.Facets),
		}
		if len(g.Groups) > 0 {
			out[i].Groups = groupsToDTO(g.Groups)
		}
	}
	return out
}

func facetsToDTO(facets []facet.Output) []facetOutputDTO {
	out := make([]facetOutputDTO, len(facets))
	for i, f := range facets {
		items := make([]itemDTO, len(f.Items))
		for j, it := range f.Items {
			items[j] = itemDTO{Code: it.Code, Label: it.Label, Count: it.Count}
		}
		out[i] = facetOutputDTO{
			Code:            f.Code,
			Label:           f.Label,
			MultiSelectable: f.MultiSelectable,
			Excludable:      f.Excludable,
			HasMissing:      f.HasMissing,
			Items:           items,
		}
	}
	return out
}

func mappingToDTO(idx *db.IndexDefinition) mappingDTO {
	out := mappingDTO{
		Name:     idx.Name,
		Prefixes: append([]string(nil), idx.Prefixes...),
		Fields:   make([]mappingFieldDTO, len(idx.Fields)),
	}
	for i, f := range idx.Fields {
		out.Fields[i] = mappingFieldToDTO(f)
	}
	return out
}

func mappingFieldToDTO(f db.IndexField) mappingFieldDTO {
	return mappingFieldDTO{
		Name:           f.Name,
		Type:           f.Type.String(),
		Sortable:       f.Sortable,
		NoIndex:        f.NoIndex,
		Analyzer:       f.Analyzer,
		SearchAnalyzer: f.SearchAnalyzer,
	}
}

func documentToDTO(doc db.Document) (documentDTO, error) {
	return documentDTO{ID: doc.ID, Fields: doc.Fields}, nil
}
