package query

import (
	"sort"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
)

// Default labels of synthetic buckets.
const (
	DefaultMissingLabel = "Missing"
	DefaultExistsLabel  = "Has value"
)

// HandlerConfig sets the labels of synthetic buckets that resolve to no label.
type HandlerConfig struct {
	MissingLabel string
	ExistsLabel  string
}

// Handler turns raw aggregation buckets into facet outputs.
type Handler struct {
	missingLabel string
	existsLabel  string
}

// NewHandler creates a facet handler.
func NewHandler(cfg HandlerConfig) *Handler {
	h := &Handler{missingLabel: DefaultMissingLabel, existsLabel: DefaultExistsLabel}
	if cfg.MissingLabel != "" {
		h.missingLabel = cfg.MissingLabel
	}
	if cfg.ExistsLabel != "" {
		h.existsLabel = cfg.ExistsLabel
	}
	return h
}

// Resolve builds the output of one facet. Selected keys absent from buckets
// are emitted with a zero count.
func (h *Handler) Resolve(def facet.Definition, buckets []db.Bucket, sel request.Selection) facet.Output {
	out := facet.Output{
		Code:            def.Code(),
		Label:           def.Label(),
		MultiSelectable: def.IsMultiSelectable(),
		Excludable:      def.CanExclude(),
		HasMissing:      def.HasMissing(),
		Items:           make([]facet.Item, 0, len(buckets)+len(sel.Values)),
	}

	seen := make(map[string]bool, len(buckets))
	for _, b := range buckets {
		seen[b.Key] = true
		out.Items = append(out.Items, facet.Item{Code: b.Key, Label: h.label(def, b.Key), Count: b.Count})
	}
	for _, key := range sel.Values {
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Items = append(out.Items, facet.Item{Code: key, Label: h.label(def, key)})
	}

	if def.Kind() == facet.Term {
		sortItems(out.Items, def.Order())
	}
	return out
}

// ResolveAll resolves every facet of in, in declaration order.
func (h *Handler) ResolveAll(in request.Input, aggs map[string][]db.Bucket) []facet.Output {
	out := make([]facet.Output, 0, len(in.Facets))
	for _, def := range in.Facets {
		sel, _ := in.Selection(def.Code())
		out = append(out, h.Resolve(def, aggs[def.Code()], sel))
	}
	return out
}

// ResolveGrouped resolves every facet of in within one group bucket.
func (h *Handler) ResolveGrouped(in request.Input, group db.GroupBucket) []facet.Output {
	return h.ResolveAll(in, group.Aggregations)
}

// GroupLabel labels a group bucket of field through the first facet of in
// declared on that field. Unknown keys keep their code and the missing group
// gets the missing label.
func (h *Handler) GroupLabel(in request.Input, field, key string) string {
	for _, def := range in.Facets {
		if def.Field() == field {
			return h.label(def, key)
		}
	}
	if key == facet.MissingKey {
		return h.missingLabel
	}
	return key
}

func (h *Handler) label(def facet.Definition, key string) string {
	if label, ok := def.ResolveLabel(key); ok {
		return label
	}
	switch {
	case key == facet.MissingKey:
		return h.missingLabel
	case def.Kind() == facet.Exists && key == facet.ExistsKey:
		return h.existsLabel
	}
	return key
}

// sortItems orders term items by key or label. The missing bucket stays last.
func sortItems(items []facet.Item, order facet.Order) {
	if order == facet.OrderBackend {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if (a.Code == facet.MissingKey) != (b.Code == facet.MissingKey) {
			return b.Code == facet.MissingKey
		}
		if order == facet.OrderLabel && a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.Code < b.Code
	})
}
