package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reformhub/internal/domain"
	"github.com/kailas-cloud/reformhub/internal/domain/search/facet"
	"github.com/kailas-cloud/reformhub/internal/domain/search/mode"
	"github.com/kailas-cloud/reformhub/internal/domain/search/request"
	"github.com/kailas-cloud/reformhub/internal/domain/search/result"
	"github.com/kailas-cloud/reformhub/internal/logger"
	"github.com/kailas-cloud/reformhub/internal/usecase/aggregate"
	"github.com/kailas-cloud/reformhub/internal/usecase/contribution"
	healthuc "github.com/kailas-cloud/reformhub/internal/usecase/health"
)

// SessionHeader carries the UI session key used for type freezing and supersede.
const SessionHeader = "X-Session-ID"

// Search handles GET /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchRequest(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	session := sessionKey(r)

	out, err := s.deps.Search.Search(r.Context(), req, session)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	computed := aggregate.Compute(result.Resources(out.Results))
	types := computed.Types
	if s.deps.Freezer != nil {
		types = s.deps.Freezer.Types(r.Context(), session, types)
	}
	if types == nil {
		types = []string{}
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Results: resultsToResponse(out.Results),
		Count:   len(out.Results),
		Facets: SearchFacets{
			Tags:   categoriesToResponse(computed.Tags),
			Themes: categoriesToResponse(computed.Themes),
			Types:  types,
		},
		Strategy: string(out.Plan.Strategy),
		Degraded: out.Degraded,
	})
}

// Facets handles GET /api/facets.
func (s *Server) Facets(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.Catalog.Catalog(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogToResponse(&c))
}

// GetResource handles GET /api/resources/{id}.
func (s *Server) GetResource(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Resources.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resourceToResponse(&res))
}

// RelatedResources handles GET /api/resources/{id}/related.
func (s *Server) RelatedResources(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	items, err := s.deps.Related.For(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RelatedResponse{Results: resourcesToResponse(items), Count: len(items)})
}

// CreateContribution handles POST /api/contributions.
func (s *Server) CreateContribution(w http.ResponseWriter, r *http.Request) {
	var in contribution.Input
	if !s.decodeBody(w, r, &in) {
		return
	}
	res, err := s.deps.Contributions.Submit(r.Context(), in)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/resources/"+res.ID)
	writeJSON(w, http.StatusCreated, resourceToResponse(&res))
}

// Preview handles GET /api/preview.
func (s *Server) Preview(w http.ResponseWriter, r *http.Request) {
	if s.deps.Previews == nil {
		notConfigured(w, "preview")
		return
	}
	p, err := s.deps.Previews.Get(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UploadImage handles POST /api/resources/{id}/image.
func (s *Server) UploadImage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Images == nil {
		notConfigured(w, "image storage")
		return
	}
	var body ImageUploadRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	res, err := s.deps.Images.Upload(r.Context(), chi.URLParam(r, "id"), body.URL)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.Reused {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.deps.Health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

// decodeBody reads a size-limited JSON body into v, writing the error response itself.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		logger.FromContextOr(r.Context(), s.logger).Debug("malformed body", zap.Error(err))
		writeError(w, http.StatusBadRequest, CodeBadRequest, "malformed JSON body")
		return false
	}
	return true
}

func sessionKey(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(SessionHeader)); v != "" {
		return v
	}
	return strings.TrimSpace(r.URL.Query().Get("session"))
}

func parseSearchRequest(r *http.Request) (request.Request, error) {
	q := r.URL.Query()

	limit, err := intParam(r, "limit")
	if err != nil {
		return request.Request{}, err
	}
	m := mode.Mode(strings.ToLower(strings.TrimSpace(q.Get("mode"))))
	if m != "" && !m.IsValid() {
		return request.Request{}, domain.NewFieldError("mode", fmt.Sprintf("must be %q or %q", mode.Keyword, mode.Hybrid))
	}

	from, err := dateParam(r, "from", false)
	if err != nil {
		return request.Request{}, err
	}
	to, err := dateParam(r, "to", true)
	if err != nil {
		return request.Request{}, err
	}
	dr, err := facet.NewDateRange(from, to)
	if err != nil {
		return request.Request{}, domain.NewFieldError("to", err.Error())
	}

	values := make(map[facet.Field][]string, len(facet.Fields))
	for _, f := range facet.Fields {
		if vs := q[string(f)]; len(vs) > 0 {
			values[f] = vs
		}
	}
	set, err := facet.NewSet(values, dr)
	if err != nil {
		return request.Request{}, domain.NewFieldError("facets", err.Error())
	}

	req, err := request.New(q.Get("q"), m, set, limit)
	if err != nil {
		return request.Request{}, domain.NewFieldError("q", err.Error())
	}
	return req, nil
}

// intParam parses an optional non-negative integer query parameter; absent means 0.
func intParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewFieldError(name, "must be a non-negative integer")
	}
	return n, nil
}

// dateParam parses an optional YYYY-MM-DD parameter. With endOfDay the last
// instant of that day is returned so the bound stays inclusive.
func dateParam(r *http.Request, name string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, domain.NewFieldError(name, "must be a date in YYYY-MM-DD format")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
