package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	logpkg "github.com/kailas-cloud/facetdex/internal/logger"
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeConfiguration    = "configuration_error"
	codeProjection       = "mapping_projection_error"
	codeBackend          = "backend_execution_error"
	codeNotFound         = "not_found"
	codeConflict         = "conflict"
	codeUnauthorized     = "unauthorized"
	codeInternal         = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		configurationHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(db.ErrIndexNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(db.ErrFieldExists, http.StatusConflict, codeConflict),
		sentinelHandler(domain.ErrMappingProjection, http.StatusUnprocessableEntity, codeProjection),
		sentinelHandler(domain.ErrBackendExecution, http.StatusBadGateway, codeBackend),
	}
}

// configurationHandler exposes the configuration reason; it names caller
// supplied fields and codes only.
func configurationHandler(w http.ResponseWriter, err error) bool {
	var ce *domain.ConfigurationError
	if !errors.As(err, &ce) {
		return false
	}
	writeError(w, http.StatusBadRequest, codeConfiguration, ce.Error())
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, entryMessage(err, sentinel))
		return true
	}
}

// entryMessage names the failing entry without exposing backend internals.
func entryMessage(err, sentinel error) string {
	var ee *domain.EntryError
	if errors.As(err, &ee) {
		return sentinel.Error() + ": entry " + ee.Code
	}
	return sentinel.Error()
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			logger.Warn("Request failed", zap.Error(err))
			return
		}
	}
	logger.Error("Internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
