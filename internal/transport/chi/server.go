// Package chi is the HTTP transport: routing, middleware, and the JSON API handlers.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reformhub/internal/domain"
	"github.com/kailas-cloud/reformhub/internal/logger"
	searchuc "github.com/kailas-cloud/reformhub/internal/usecase/search"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest          = "bad_request"
	CodeValidationFailed    = "validation_failed"
	CodeUnauthorized        = "unauthorized"
	CodeNotFound            = "not_found"
	CodeAlreadyExists       = "already_exists"
	CodeSuperseded          = "superseded"
	CodeUnsupportedMedia    = "unsupported_media_type"
	CodeUpstreamUnavailable = "upstream_unavailable"
	CodeNotConfigured       = "not_configured"
	CodeClientClosed        = "client_closed_request"
	CodeInternal            = "internal_error"
)

// statusClientClosedRequest is the de facto status for a request the client abandoned.
const statusClientClosedRequest = 499

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Deps are the use cases behind the API. Optional ones may be nil; their
// endpoints then answer 503 not_configured.
type Deps struct {
	Search        Searcher
	Freezer       TypeFreezer
	Catalog       Catalog
	Resources     Resources
	Related       Related
	Contributions Contributions
	Previews      Previews
	Images        Images
	Health        HealthChecker
}

// Server holds the API handlers.
type Server struct {
	deps          Deps
	maxBodyBytes  int64
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. maxBodyBytes <= 0 means 1 MiB.
func NewServer(deps Deps, maxBodyBytes int64, logger *zap.Logger) *Server {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{deps: deps, maxBodyBytes: maxBodyBytes, logger: logger}
	s.errorHandlers = []errorHandler{
		fieldErrorHandler,
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists),
		sentinelHandler(searchuc.ErrSuperseded, http.StatusConflict, CodeSuperseded),
		sentinelHandler(domain.ErrUnsupportedMedia, http.StatusUnsupportedMediaType, CodeUnsupportedMedia),
		sentinelHandler(domain.ErrNotConfigured, http.StatusServiceUnavailable, CodeNotConfigured),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusBadGateway, CodeUpstreamUnavailable),
		sentinelHandler(context.Canceled, statusClientClosedRequest, CodeClientClosed),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, CodeUpstreamUnavailable),
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		searchuc.ErrSuperseded,
		domain.ErrUnsupportedMedia,
		domain.ErrNotConfigured,
		domain.ErrUpstreamUnavailable,
		context.Canceled,
		context.DeadlineExceeded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// fieldErrorHandler reports which input field failed validation.
func fieldErrorHandler(w http.ResponseWriter, err error, _ string) bool {
	var fe *domain.FieldError
	if !errors.As(err, &fe) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:    CodeValidationFailed,
		Message: fe.Field + ": " + fe.Reason,
		Field:   fe.Field,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}

func notConfigured(w http.ResponseWriter, what string) {
	writeError(w, http.StatusServiceUnavailable, CodeNotConfigured, what+" is not configured")
}
