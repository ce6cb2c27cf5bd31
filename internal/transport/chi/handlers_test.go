package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/reformhub/internal/domain"
	"github.com/kailas-cloud/reformhub/internal/domain/category"
	"github.com/kailas-cloud/reformhub/internal/domain/resource"
	"github.com/kailas-cloud/reformhub/internal/domain/search/facet"
	"github.com/kailas-cloud/reformhub/internal/domain/search/mode"
	"github.com/kailas-cloud/reformhub/internal/domain/search/plan"
	"github.com/kailas-cloud/reformhub/internal/domain/search/request"
	"github.com/kailas-cloud/reformhub/internal/domain/search/result"
	"github.com/kailas-cloud/reformhub/internal/usecase/contribution"
	"github.com/kailas-cloud/reformhub/internal/usecase/facets"
	healthuc "github.com/kailas-cloud/reformhub/internal/usecase/health"
	"github.com/kailas-cloud/reformhub/internal/usecase/imageupload"
	"github.com/kailas-cloud/reformhub/internal/usecase/preview"
	searchuc "github.com/kailas-cloud/reformhub/internal/usecase/search"
)

func decode[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return v
}

func sampleResource(id, theme string, tags ...string) resource.Resource {
	return resource.Resource{
		ID:                   id,
		Title:                "Title " + id,
		Type:                 "Report",
		Theme:                theme,
		Tags:                 tags,
		Source:               "Reform Trust",
		PublicationDate:      time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC),
		LinkToOriginalSource: "https://example.org/" + id,
		Status:               resource.StatusPublished,
	}
}

func TestSearch_ParsesRequest(t *testing.T) {
	var got request.Request
	var gotSession string
	deps := defaultDeps()
	deps.Search = &mockSearcher{searchFn: func(_ context.Context, req request.Request, session string) (searchuc.Outcome, error) {
		got, gotSession = req, session
		return searchuc.Outcome{
			Results: []result.Result{
				result.NewScored(sampleResource("a", "Bail", "Remand", "bail"), 0.9),
				result.NewScored(sampleResource("b", "", "remand"), 0.5),
			},
			Plan: plan.Plan{Strategy: plan.Filtered},
		}, nil
	}}
	deps.Freezer = &mockFreezer{typesFn: func(_ context.Context, session string, computed []string) []string {
		if session != "s1" {
			t.Errorf("freezer session = %q, want s1", session)
		}
		return []string{"Video", "Report"}
	}}
	h := newTestRouter(t, deps)

	rr := do(t, h, http.MethodGet,
		"/api/search?q=+bail+&type=report&type=video&theme=Bail&from=2020-01-01&to=2020-12-31&limit=5&mode=hybrid",
		"", map[string]string{SessionHeader: "s1"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	if got.Query() != "bail" {
		t.Errorf("query = %q, want bail", got.Query())
	}
	if got.Limit() != 5 {
		t.Errorf("limit = %d, want 5", got.Limit())
	}
	if got.Mode() != mode.Hybrid {
		t.Errorf("mode = %q, want hybrid", got.Mode())
	}
	if types := got.Facets().Values(facet.Type); len(types) != 2 || types[0] != "report" || types[1] != "video" {
		t.Errorf("types = %v", types)
	}
	if themes := got.Facets().Values(facet.Theme); len(themes) != 1 || themes[0] != "Bail" {
		t.Errorf("themes = %v", themes)
	}
	dr := got.Facets().DateRange()
	if dr.From() == nil || !dr.From().Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %v", dr.From())
	}
	wantTo := time.Date(2020, 12, 31, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	if dr.To() == nil || !dr.To().Equal(wantTo) {
		t.Errorf("to = %v, want %v", dr.To(), wantTo)
	}
	if gotSession != "s1" {
		t.Errorf("session = %q, want s1", gotSession)
	}

	resp := decode[SearchResponse](t, rr.Body.String())
	if resp.Count != 2 || len(resp.Results) != 2 {
		t.Fatalf("count = %d, results = %d", resp.Count, len(resp.Results))
	}
	if resp.Strategy != "filtered" || resp.Degraded {
		t.Errorf("strategy = %q, degraded = %v", resp.Strategy, resp.Degraded)
	}
	first := resp.Results[0]
	if first.Score == nil || *first.Score != 0.9 {
		t.Errorf("score = %v, want 0.9", first.Score)
	}
	if first.PublicationDate != "2021-03-04" {
		t.Errorf("publication_date = %q", first.PublicationDate)
	}
	if resp.Results[1].Theme != resource.DefaultTheme {
		t.Errorf("empty theme rendered as %q", resp.Results[1].Theme)
	}
	if len(resp.Facets.Tags) != 2 || resp.Facets.Tags[0].Name != "Remand" || resp.Facets.Tags[0].Count != 2 {
		t.Errorf("tags = %+v", resp.Facets.Tags)
	}
	if resp.Facets.Tags[0].Link != "/tags/remand" {
		t.Errorf("tag link = %q", resp.Facets.Tags[0].Link)
	}
	if len(resp.Facets.Types) != 2 || resp.Facets.Types[0] != "Video" {
		t.Errorf("types = %v, want frozen list", resp.Facets.Types)
	}
}

func TestSearch_SessionFromQuery(t *testing.T) {
	var gotSession string
	deps := defaultDeps()
	deps.Search = &mockSearcher{searchFn: func(_ context.Context, _ request.Request, session string) (searchuc.Outcome, error) {
		gotSession = session
		return searchuc.Outcome{Plan: plan.Plan{Strategy: plan.Sample}}, nil
	}}
	rr := do(t, newTestRouter(t, deps), http.MethodGet, "/api/search?session=abc", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if gotSession != "abc" {
		t.Errorf("session = %q, want abc", gotSession)
	}
}

func TestSearch_Degraded(t *testing.T) {
	deps := defaultDeps()
	deps.Search = &mockSearcher{searchFn: func(context.Context, request.Request, string) (searchuc.Outcome, error) {
		return searchuc.Outcome{Plan: plan.Plan{Strategy: plan.BM25}, Degraded: true}, nil
	}}
	rr := do(t, newTestRouter(t, deps), http.MethodGet, "/api/search?q=bail", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"results":[]`) {
		t.Errorf("expected empty results array, got %s", rr.Body.String())
	}
	resp := decode[SearchResponse](t, rr.Body.String())
	if !resp.Degraded || resp.Count != 0 {
		t.Errorf("degraded = %v, count = %d", resp.Degraded, resp.Count)
	}
	if resp.Facets.Types == nil {
		t.Error("types should be an empty list, not null")
	}
}

func TestSearch_InvalidParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		field string
	}{
		{"bad limit", "limit=abc", "limit"},
		{"negative limit", "limit=-1", "limit"},
		{"bad mode", "mode=vector", "mode"},
		{"bad from", "from=2020-13-01", "from"},
		{"bad to", "to=yesterday", "to"},
		{"reversed range", "from=2021-01-01&to=2020-01-01", "to"},
		{"query too long", "q=" + strings.Repeat("x", request.MaxQueryLength+1), "q"},
		{"too many values", tooManyThemes(), "facets"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := defaultDeps()
			deps.Search = &mockSearcher{searchFn: func(context.Context, request.Request, string) (searchuc.Outcome, error) {
				t.Fatal("search must not be called")
				return searchuc.Outcome{}, nil
			}}
			rr := do(t, newTestRouter(t, deps), http.MethodGet, "/api/search?"+tt.query, "", nil)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			resp := decode[ErrorResponse](t, rr.Body.String())
			if resp.Code != CodeValidationFailed || resp.Field != tt.field {
				t.Errorf("error = %+v, want field %q", resp, tt.field)
			}
		})
	}
}

func tooManyThemes() string {
	parts := make([]string, facet.MaxValuesPerField+1)
	for i := range parts {
		parts[i] = fmt.Sprintf("theme=t%d", i)
	}
	return strings.Join(parts, "&")
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"superseded", searchuc.ErrSuperseded, http.StatusConflict, CodeSuperseded},
		{"canceled", context.Canceled, statusClientClosedRequest, CodeClientClosed},
		{"internal", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := defaultDeps()
			deps.Search = &mockSearcher{searchFn: func(context.Context, request.Request, string) (searchuc.Outcome, error) {
				return searchuc.Outcome{}, tt.err
			}}
			rr := do(t, newTestRouter(t, deps), http.MethodGet, "/api/search?q=x", "", nil)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			resp := decode[ErrorResponse](t, rr.Body.String())
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
			if tt.code == CodeInternal && resp.Message != "internal error" {
				t.Errorf("internal details leaked: %q", resp.Message)
			}
		})
	}
}

func TestFacets(t *testing.T) {
	deps := defaultDeps()
	deps.Catalog = &mockCatalog{catalogFn: func(context.Context) (facets.Catalog, error) {
		return facets.Catalog{
			Themes:    []category.Category{category.New("Solitary Confinement", 4, category.KindTheme)},
			Locations: []category.Category{category.New("Texas", 2, category.KindLocation)},
		}, nil
	}}
	rr := do(t, newTestRouter(t, deps), http.MethodGet, "/api/facets", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[CatalogResponse](t, rr.Body.String())
	if len(resp.Themes) != 1 || resp.Themes[0].Slug != "solitary-confinement" || resp.Themes[0].Link != "/themes/solitary-confinement" {
		t.Errorf("themes = %+v", resp.Themes)
	}
	if len(resp.Locations) != 1 || resp.Locations[0].Count != 2 {
		t.Errorf("locations = %+v", resp.Locations)
	}
	if resp.Tags == nil || resp.Types == nil {
		t.Error("empty facet lists should encode as []")
	}
}

func TestFacets_Upstream(t *testing.T) {
	deps := defaultDeps()
	deps.Catalog = &mockCatalog{catalogFn: func(context.Context) (facets.Catalog, error) {
		return facets.Catalog{}, fmt.Errorf("load catalog: %w", domain.ErrUpstreamUnavailable)
	}}
	rr := do(t, newTestRouter(t, deps), http.MethodGet, "/api/facets", "", nil)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
}

func TestGetResource(t *testing.T) {
	deps := defaultDeps()
	deps.Resources = &mockResources{getFn: func(_ context.Context, id string) (resource.Resource, error) {
		if id != "r1" {
			return resource.Resource{}, domain.ErrNotFound
		}
		return sampleResource("r1", "Bail"), nil
	}}
	h := newTestRouter(t, deps)

	rr := do(t, h, http.MethodGet, "/api/resources/r1", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[ResourceResponse](t, rr.Body.String())
	if resp.ID != "r1" || resp.Attribution != "Reform Trust" || resp.Score != nil {
		t.Errorf("resource = %+v", resp)
	}
	if resp.Tags == nil {
		t.Error("tags should encode as []")
	}

	rr = do(t, h, http.MethodGet, "/api/resources/missing", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing: status = %d, want 404", rr.Code)
	}
}

func TestRelatedResources(t *testing.T) {
	var gotLimit int
	deps := defaultDeps()
	deps.Related = &mockRelated{forFn: func(_ context.Context, id string, limit int) ([]resource.Resource, error) {
		gotLimit = limit
		if limit > 12 {
			return nil, domain.NewFieldError("limit", "must be between 1 and 12")
		}
		r := sampleResource("b", "Bail")
		r.ImageURL = "https://img.example.org/b.png"
		return []resource.Resource{r}, nil
	}}
	h := newTestRouter(t, deps)

	rr := do(t, h, http.MethodGet, "/api/resources/a/related?limit=4", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if gotLimit != 4 {
		t.Errorf("limit = %d, want 4", gotLimit)
	}
	resp := decode[RelatedResponse](t, rr.Body.String())
	if resp.Count != 1 || resp.Results[0].ImageURL == "" {
		t.Errorf("related = %+v", resp)
	}

	rr = do(t, h, http.MethodGet, "/api/resources/a/related?limit=50", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if resp := decode[ErrorResponse](t, rr.Body.String()); resp.Field != "limit" {
		t.Errorf("field = %q, want limit", resp.Field)
	}
}

func TestCreateContribution(t *testing.T) {
	deps := defaultDeps()
	deps.Contributions = &mockContributions{submitFn: func(_ context.Context, in contribution.Input) (resource.Resource, error) {
		switch in.Title {
		case "":
			return resource.Resource{}, domain.NewFieldError("title", "required")
		case "dup":
			return resource.Resource{}, fmt.Errorf("submit contribution: %w", domain.ErrAlreadyExists)
		}
		r := sampleResource("3b0f", "Bail")
		r.Title = in.Title
		r.Status = resource.StatusPendingReview
		return r, nil
	}}
	h := newTestRouter(t, deps)

	rr := do(t, h, http.MethodPost, "/api/contributions", `{"title":"Bail study","link":"https://example.org/x"}`, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/api/resources/3b0f" {
		t.Errorf("Location = %q", loc)
	}
	if resp := decode[ResourceResponse](t, rr.Body.String()); resp.Status != "pending_review" {
		t.Errorf("status = %q, want pending_review", resp.Status)
	}

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed", `{"title":`, http.StatusBadRequest, CodeBadRequest},
		{"validation", `{"summary":"no title"}`, http.StatusBadRequest, CodeValidationFailed},
		{"duplicate", `{"title":"dup"}`, http.StatusConflict, CodeAlreadyExists},
		{"too large", `{"title":"` + strings.Repeat("x", 2048) + `"}`, http.StatusRequestEntityTooLarge, CodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/api/contributions", tt.body, nil)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			if resp := decode[ErrorResponse](t, rr.Body.String()); resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	deps := defaultDeps()
	deps.Previews = &mockPreviews{getFn: func(_ context.Context, rawURL string) (preview.Preview, error) {
		switch rawURL {
		case "https://example.org/a":
			return preview.Preview{URL: rawURL, ImageURL: "https://example.org/og.png", Title: "A"}, nil
		case "":
			return preview.Preview{}, domain.NewFieldError("url", "required")
		}
		return preview.Preview{}, fmt.Errorf("fetch: %w", domain.ErrUpstreamUnavailable)
	}}
	h := newTestRouter(t, deps)

	rr := do(t, h, http.MethodGet, "/api/preview?url=https%3A%2F%2Fexample.org%2Fa", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if p := decode[preview.Preview](t, rr.Body.String()); p.ImageURL != "https://example.org/og.png" {
		t.Errorf("image = %q", p.ImageURL)
	}

	if rr := do(t, h, http.MethodGet, "/api/preview", "", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("missing url: status = %d, want 400", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/preview?url=https://down.example.org", "", nil); rr.Code != http.StatusBadGateway {
		t.Errorf("upstream: status = %d, want 502", rr.Code)
	}
}

func TestPreview_NotConfigured(t *testing.T) {
	rr := do(t, newTestRouter(t, defaultDeps()), http.MethodGet, "/api/preview?url=https://example.org", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestUploadImage(t *testing.T) {
	auth := map[string]string{"Authorization": "Bearer secret"}
	deps := defaultDeps()
	deps.Images = &mockImages{uploadFn: func(_ context.Context, id, srcURL string) (imageupload.Result, error) {
		switch srcURL {
		case "https://example.org/login":
			return imageupload.Result{}, fmt.Errorf("upload: %w", domain.ErrUnsupportedMedia)
		case "https://example.org/again.png":
			return imageupload.Result{Key: "resources/" + id + "/k.png", URL: "https://cdn.example.org/k.png", Reused: true}, nil
		}
		return imageupload.Result{Key: "resources/" + id + "/k.png", URL: "https://cdn.example.org/k.png", ContentType: "image/png"}, nil
	}}
	h := newTestRouter(t, deps)

	rr := do(t, h, http.MethodPost, "/api/resources/r1/image", `{"url":"https://example.org/a.png"}`, auth)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if res := decode[imageupload.Result](t, rr.Body.String()); res.Key != "resources/r1/k.png" || res.ContentType != "image/png" {
		t.Errorf("result = %+v", res)
	}

	rr = do(t, h, http.MethodPost, "/api/resources/r1/image", `{"url":"https://example.org/again.png"}`, auth)
	if rr.Code != http.StatusOK {
		t.Errorf("reused: status = %d, want 200", rr.Code)
	}

	rr = do(t, h, http.MethodPost, "/api/resources/r1/image", `{"url":"https://example.org/login"}`, auth)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Errorf("html: status = %d, want 415", rr.Code)
	}

	rr = do(t, h, http.MethodPost, "/api/resources/r1/image", `{"url":"https://example.org/a.png"}`, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("no auth: status = %d, want 401", rr.Code)
	}
}

func TestUploadImage_NotConfigured(t *testing.T) {
	rr := do(t, newTestRouter(t, defaultDeps()), http.MethodPost, "/api/resources/r1/image",
		`{"url":"https://example.org/a.png"}`, map[string]string{"Authorization": "Bearer secret"})
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			deps := defaultDeps()
			deps.Health = &mockHealth{report: healthuc.Report{
				Status: tt.status,
				Checks: map[string]healthuc.CheckResult{healthuc.ComponentStore: healthuc.CheckOK},
			}}
			rr := do(t, newTestRouter(t, deps), http.MethodGet, "/health", "", nil)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			resp := decode[HealthResponse](t, rr.Body.String())
			if resp.Status != string(tt.status) || resp.Checks["store"] != "ok" {
				t.Errorf("health = %+v", resp)
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	rr := do(t, newTestRouter(t, defaultDeps()), http.MethodGet, "/api/nope", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if resp := decode[ErrorResponse](t, rr.Body.String()); resp.Code != CodeNotFound {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestSafeDomainMessage(t *testing.T) {
	err := fmt.Errorf("weaviate at 10.0.0.3: %w", domain.ErrUpstreamUnavailable)
	if got := safeDomainMessage(err); got != "upstream unavailable" {
		t.Errorf("got %q", got)
	}
	if got := safeDomainMessage(errors.New("secret detail")); got != "internal error" {
		t.Errorf("got %q", got)
	}
}
