package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
	logpkg "github.com/kailas-cloud/facetdex/internal/logger"
	docrepo "github.com/kailas-cloud/facetdex/internal/repository/document"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/facetdex/internal/usecase/index"
	queryuc "github.com/kailas-cloud/facetdex/internal/usecase/query"
)

// maxBulkOps bounds the operations of one bulk request.
const maxBulkOps = 1000

// DefinitionSource resolves document definitions.
type DefinitionSource interface {
	Get(ctx context.Context, docType string) (*document.Definition, error)
}

// References loads and stores code tables.
type References interface {
	Save(ctx context.Context, list string, labels map[string]string) error
	Resolver(ctx context.Context, list string) (facet.LabelResolver, error)
}

// Server serves the facetdex HTTP API.
type Server struct {
	queries       *queryuc.Service
	indexes       *indexuc.Service
	defs          DefinitionSource
	documents     *docrepo.Repo
	references    References
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// Deps groups the services behind the API.
type Deps struct {
	Queries     *queryuc.Service
	Indexes     *indexuc.Service
	Definitions DefinitionSource
	Documents   *docrepo.Repo
	References  References
	Health      *healthuc.Service
}

// NewServer creates an HTTP API server.
func NewServer(d Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		queries:       d.Queries,
		indexes:       d.Indexes,
		defs:          d.Definitions,
		documents:     d.Documents,
		references:    d.References,
		health:        d.Health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.MultiSearch)
		r.Post("/search/{type}", s.Search)
		r.Get("/mappings/{type}", s.GetMapping)
		r.Put("/indexes/{type}", s.EnsureIndex)
		r.Post("/indexes/{type}/fields/{field}", s.DeclareField)
		r.Post("/documents/{type}/bulk", s.Bulk)
		r.Put("/references/{list}", s.SaveReference)
	})
}

// MultiSearch handles POST /api/v1/search.
func (s *Server) MultiSearch(w http.ResponseWriter, r *http.Request) {
	var req multiSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	mq := s.queries.MultiQuery()
	for i, e := range req.Queries {
		in, err := e.Input.toInput(s.resolver(r.Context()))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, fmt.Sprintf("queries[%d]: %v", i, err))
			return
		}
		mq.AddQuery(e.Code, e.Label, e.Type, in, documentMapper())
	}

	out, err := mq.Search(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outputToDTO(out))
}

// Search handles POST /api/v1/search/{type}.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	docType := chi.URLParam(r, "type")

	var req inputDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	in, err := req.toInput(s.resolver(r.Context()))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	out, err := s.queries.Search(r.Context(), docType, in, documentMapper())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outputToDTO(out))
}

// GetMapping handles GET /api/v1/mappings/{type}.
func (s *Server) GetMapping(w http.ResponseWriter, r *http.Request) {
	idx, err := s.indexes.Mapping(r.Context(), chi.URLParam(r, "type"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappingToDTO(idx))
}

// EnsureIndex handles PUT /api/v1/indexes/{type}.
func (s *Server) EnsureIndex(w http.ResponseWriter, r *http.Request) {
	docType := chi.URLParam(r, "type")
	created, err := s.indexes.Ensure(r.Context(), docType)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		logpkg.FromContext(r.Context(), s.logger).Info("Index created", zap.String("type", docType))
	}
	idx, err := s.indexes.Mapping(r.Context(), docType)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, status, mappingToDTO(idx))
}

// DeclareField handles POST /api/v1/indexes/{type}/fields/{field}.
func (s *Server) DeclareField(w http.ResponseWriter, r *http.Request) {
	decl, err := s.indexes.DeclareField(r.Context(), chi.URLParam(r, "type"), chi.URLParam(r, "field"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappingFieldToDTO(decl))
}

// Bulk handles POST /api/v1/documents/{type}/bulk.
func (s *Server) Bulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if n := len(req.Index) + len(req.Delete); n == 0 || n > maxBulkOps {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("operation count must be between 1 and %d", maxBulkOps))
		return
	}

	def, err := s.defs.Get(r.Context(), chi.URLParam(r, "type"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	b := s.documents.Bulk(def).DeleteMany(req.Delete)
	for _, doc := range req.Index {
		b.Index(docrepo.Raw(doc))
	}
	n, err := b.Run(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"applied": n})
}

// SaveReference handles PUT /api/v1/references/{list}.
func (s *Server) SaveReference(w http.ResponseWriter, r *http.Request) {
	var labels map[string]string
	if err := json.NewDecoder(r.Body).Decode(&labels); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(labels) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "at least one label is required")
		return
	}
	if err := s.references.Save(r.Context(), chi.URLParam(r, "list"), labels); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": string(report.Status),
		"checks": checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) resolver(ctx context.Context) func(list string) (facet.LabelResolver, error) {
	return func(list string) (facet.LabelResolver, error) {
		return s.references.Resolver(ctx, list)
	}
}

func documentMapper() queryuc.DocumentMapper {
	return queryuc.MapperFunc[documentDTO](documentToDTO)
}
