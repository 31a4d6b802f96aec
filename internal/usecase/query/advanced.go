package query

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
)

// Search runs one advanced query in one round trip. Without a grouping field
// the output holds a single group named after docType. With one, it holds a
// group per group bucket, each with up to one page of its own hits and its own
// facets. Matches without a value for the grouping field form a last group
// keyed facet.MissingKey. Top-level facets are always computed over all
// matches.
func (s *Service) Search(ctx context.Context, docType string, in request.Input, mapper DocumentMapper) (result.Output, error) {
	in = in.Clone()
	def, q, err := s.Build(ctx, docType, in)
	if err != nil {
		return result.Output{}, err
	}

	responses, err := s.backend.ExecuteBatch(ctx, []db.NamedQuery{{Code: docType, Query: q}})
	if err != nil {
		return result.Output{}, fmt.Errorf("%w: %w", domain.ErrBackendExecution, err)
	}
	if err := ctx.Err(); err != nil {
		return result.Output{}, err
	}
	resp, err := entryResponse(docType, responses)
	if err != nil {
		return result.Output{}, err
	}

	facets := s.handler.ResolveAll(in, resp.Aggregations)
	out := result.Output{Facets: facets, TotalCount: resp.Total}
	if q.Group != nil {
		out.Groups, err = s.groups(def, docType, in, resp, mapper)
		if err != nil {
			return result.Output{}, err
		}
		return out, nil
	}

	items, err := project(def, docType, resp.Documents, mapper)
	if err != nil {
		return result.Output{}, err
	}
	out.Groups = []result.Group{{
		Code:   docType,
		Label:  docType,
		Items:  items,
		Total:  resp.Total,
		Facets: facets,
	}}
	return out, nil
}

// groups maps the group buckets of one entry, in backend order.
func (s *Service) groups(def *document.Definition, code string, in request.Input, resp *db.Response, mapper DocumentMapper) ([]result.Group, error) {
	out := make([]result.Group, 0, len(resp.Groups))
	for _, gb := range resp.Groups {
		items, err := project(def, code, gb.Documents, mapper)
		if err != nil {
			return nil, err
		}
		out = append(out, result.Group{
			Code:   gb.Key,
			Label:  s.handler.GroupLabel(in, in.GroupField, gb.Key),
			Items:  items,
			Total:  gb.Count,
			Facets: s.handler.ResolveGrouped(in, gb),
		})
	}
	return out, nil
}
