// Package query builds, executes and reassembles faceted searches.
package query

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
)

// Scope facet defaults.
const (
	DefaultScopeCode  = "FCT_SCOPE"
	DefaultScopeLabel = "Scope"
)

// DefaultConcurrency bounds concurrent query construction.
const DefaultConcurrency = 8

// Config tunes the search service.
type Config struct {
	Builder     BuilderConfig
	Facets      HandlerConfig
	ScopeCode   string
	ScopeLabel  string
	Concurrency int
	MaxEntries  int // 0 means unlimited
}

// Service runs single and multi-entry searches.
type Service struct {
	defs    DefinitionSource
	backend Backend
	builder *Builder
	handler *Handler
	cfg     Config
	logger  *zap.Logger
}

// New creates a search service.
func New(defs DefinitionSource, backend Backend, s Strategies, cfg Config, logger *zap.Logger) *Service {
	if cfg.ScopeCode == "" {
		cfg.ScopeCode = DefaultScopeCode
	}
	if cfg.ScopeLabel == "" {
		cfg.ScopeLabel = DefaultScopeLabel
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		defs:    defs,
		backend: backend,
		builder: NewBuilder(s, cfg.Builder),
		handler: NewHandler(cfg.Facets),
		cfg:     cfg,
		logger:  logger,
	}
}

// Build resolves the definition of docType and builds its query.
func (s *Service) Build(ctx context.Context, docType string, in request.Input) (*document.Definition, *db.Query, error) {
	def, err := s.defs.Get(ctx, docType)
	if err != nil {
		return nil, nil, fmt.Errorf("definition %s: %w", docType, err)
	}
	q, err := s.builder.Build(def, in)
	if err != nil {
		return nil, nil, err
	}
	return def, q, nil
}

// Handler returns the facet handler.
func (s *Service) Handler() *Handler { return s.handler }

// project maps the hits of one entry. Stored field names are translated to
// field names before the mapper sees them.
func project(def *document.Definition, code string, docs []db.Document, mapper DocumentMapper) ([]any, error) {
	if mapper == nil {
		mapper = Raw()
	}
	names := storageNames(def)
	items := make([]any, len(docs))
	for i, doc := range docs {
		v, err := mapper.Map(rename(doc, names))
		if err != nil {
			return nil, domain.NewProjectionError(code, i, err)
		}
		items[i] = v
	}
	return items, nil
}

func storageNames(def *document.Definition) map[string]string {
	fields := def.Fields()
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		m[f.StorageName()] = f.Name()
	}
	return m
}

func rename(doc db.Document, names map[string]string) db.Document {
	fields := make(map[string]string, len(doc.Fields))
	for k, v := range doc.Fields {
		if name, ok := names[k]; ok {
			fields[name] = v
			continue
		}
		fields[k] = v
	}
	return db.Document{ID: doc.ID, Fields: fields}
}

func entryResponse(code string, responses map[string]*db.Response) (*db.Response, error) {
	resp, ok := responses[code]
	if !ok || resp == nil {
		return nil, domain.NewBackendEntryError(code, fmt.Errorf("no response"))
	}
	if resp.Err != nil {
		return nil, domain.NewBackendEntryError(code, resp.Err)
	}
	return resp, nil
}
