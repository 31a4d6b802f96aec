package query

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
)

type entry struct {
	code    string
	label   string
	docType string
	input   request.Input
	mapper  DocumentMapper
}

// Coordinator batches several advanced queries, possibly over different
// document types, into one backend round trip.
// A Coordinator is not safe for concurrent AddQuery calls.
type Coordinator struct {
	svc     *Service
	entries []entry
	codes   map[string]bool
	err     error
}

// MultiQuery starts a new coordinator.
func (s *Service) MultiQuery() *Coordinator {
	return &Coordinator{svc: s, codes: make(map[string]bool)}
}

// AddQuery registers one entry. Configuration errors are reported by Search.
func (c *Coordinator) AddQuery(code, label, docType string, in request.Input, mapper DocumentMapper) *Coordinator {
	if c.err != nil {
		return c
	}
	switch {
	case code == "":
		c.err = domain.Configf(label, "entry code is required")
		return c
	case c.codes[code]:
		c.err = domain.Configf(code, "duplicate entry code")
		return c
	}
	c.codes[code] = true
	c.entries = append(c.entries, entry{
		code: code, label: label, docType: docType,
		input: in.Clone(), mapper: mapper,
	})
	return c
}

// Len returns the number of registered entries.
func (c *Coordinator) Len() int { return len(c.entries) }

// Search builds every entry, executes the batch and merges the results in
// registration order. Any failing entry fails the whole call.
// A grouped entry keeps its page hits and facets and lists its group buckets
// in Group.Groups.
func (c *Coordinator) Search(ctx context.Context) (result.Output, error) {
	if c.err != nil {
		return result.Output{}, c.err
	}
	if limit := c.svc.cfg.MaxEntries; limit > 0 && len(c.entries) > limit {
		return result.Output{}, domain.Configf("", "too many entries: %d (max %d)", len(c.entries), limit)
	}
	if len(c.entries) == 0 {
		return result.Output{Groups: []result.Group{}, Facets: []facet.Output{}}, nil
	}

	defs, queries, err := c.build(ctx)
	if err != nil {
		return result.Output{}, err
	}

	responses, err := c.svc.backend.ExecuteBatch(ctx, queries)
	if err != nil {
		return result.Output{}, fmt.Errorf("%w: %w", domain.ErrBackendExecution, err)
	}
	if err := ctx.Err(); err != nil {
		return result.Output{}, err
	}

	out := result.Output{Groups: make([]result.Group, 0, len(c.entries))}
	scope := facet.Output{
		Code:  c.svc.cfg.ScopeCode,
		Label: c.svc.cfg.ScopeLabel,
		Items: make([]facet.Item, 0, len(c.entries)),
	}
	for i, e := range c.entries {
		resp, err := entryResponse(e.code, responses)
		if err != nil {
			return result.Output{}, err
		}
		items, err := project(defs[i], e.code, resp.Documents, e.mapper)
		if err != nil {
			return result.Output{}, err
		}
		g := result.Group{
			Code:   e.code,
			Label:  e.label,
			Items:  items,
			Total:  resp.Total,
			Facets: c.svc.handler.ResolveAll(e.input, resp.Aggregations),
		}
		if queries[i].Query.Group != nil {
			g.Groups, err = c.svc.groups(defs[i], e.code, e.input, resp, e.mapper)
			if err != nil {
				return result.Output{}, err
			}
		}
		out.Groups = append(out.Groups, g)
		scope.Items = append(scope.Items, facet.Item{Code: e.code, Label: e.label, Count: resp.Total})
		out.TotalCount += resp.Total
	}

	out.Facets = []facet.Output{}
	if len(c.entries) > 1 {
		out.Facets = append(out.Facets, scope)
	}

	c.svc.logger.Debug("Multi-query search completed",
		zap.Int("entries", len(c.entries)),
		zap.Int64("total", out.TotalCount),
	)
	return out, nil
}

// build resolves definitions and builds queries concurrently. The first error
// in registration order wins.
func (c *Coordinator) build(ctx context.Context) ([]*document.Definition, []db.NamedQuery, error) {
	n := len(c.entries)
	defs := make([]*document.Definition, n)
	queries := make([]db.NamedQuery, n)
	errs := make([]error, n)

	var g errgroup.Group
	g.SetLimit(c.svc.cfg.Concurrency)
	for i, e := range c.entries {
		g.Go(func() error {
			def, q, err := c.svc.Build(ctx, e.docType, e.input)
			if err != nil {
				errs[i] = fmt.Errorf("entry %q: %w", e.code, err)
				return nil
			}
			defs[i] = def
			queries[i] = db.NamedQuery{Code: e.code, Query: q}
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return defs, queries, nil
}
