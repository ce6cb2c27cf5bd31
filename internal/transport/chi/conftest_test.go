package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/reformhub/internal/domain"
	"github.com/kailas-cloud/reformhub/internal/domain/resource"
	"github.com/kailas-cloud/reformhub/internal/domain/search/request"
	"github.com/kailas-cloud/reformhub/internal/usecase/contribution"
	"github.com/kailas-cloud/reformhub/internal/usecase/facets"
	healthuc "github.com/kailas-cloud/reformhub/internal/usecase/health"
	"github.com/kailas-cloud/reformhub/internal/usecase/imageupload"
	"github.com/kailas-cloud/reformhub/internal/usecase/preview"
	searchuc "github.com/kailas-cloud/reformhub/internal/usecase/search"
)

type mockSearcher struct {
	searchFn func(ctx context.Context, req request.Request, session string) (searchuc.Outcome, error)
}

func (m *mockSearcher) Search(ctx context.Context, req request.Request, session string) (searchuc.Outcome, error) {
	return m.searchFn(ctx, req, session)
}

type mockFreezer struct {
	typesFn func(ctx context.Context, session string, computed []string) []string
}

func (m *mockFreezer) Types(ctx context.Context, session string, computed []string) []string {
	return m.typesFn(ctx, session, computed)
}

type mockCatalog struct {
	catalogFn func(ctx context.Context) (facets.Catalog, error)
}

func (m *mockCatalog) Catalog(ctx context.Context) (facets.Catalog, error) {
	return m.catalogFn(ctx)
}

type mockResources struct {
	getFn func(ctx context.Context, id string) (resource.Resource, error)
}

func (m *mockResources) Get(ctx context.Context, id string) (resource.Resource, error) {
	return m.getFn(ctx, id)
}

type mockRelated struct {
	forFn func(ctx context.Context, id string, limit int) ([]resource.Resource, error)
}

func (m *mockRelated) For(ctx context.Context, id string, limit int) ([]resource.Resource, error) {
	return m.forFn(ctx, id, limit)
}

type mockContributions struct {
	submitFn func(ctx context.Context, in contribution.Input) (resource.Resource, error)
}

func (m *mockContributions) Submit(ctx context.Context, in contribution.Input) (resource.Resource, error) {
	return m.submitFn(ctx, in)
}

type mockPreviews struct {
	getFn func(ctx context.Context, rawURL string) (preview.Preview, error)
}

func (m *mockPreviews) Get(ctx context.Context, rawURL string) (preview.Preview, error) {
	return m.getFn(ctx, rawURL)
}

type mockImages struct {
	uploadFn func(ctx context.Context, id, srcURL string) (imageupload.Result, error)
}

func (m *mockImages) Upload(ctx context.Context, id, srcURL string) (imageupload.Result, error) {
	return m.uploadFn(ctx, id, srcURL)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

// defaultDeps returns inert required deps; tests override what they exercise.
func defaultDeps() Deps {
	return Deps{
		Search: &mockSearcher{searchFn: func(context.Context, request.Request, string) (searchuc.Outcome, error) {
			return searchuc.Outcome{}, nil
		}},
		Catalog: &mockCatalog{catalogFn: func(context.Context) (facets.Catalog, error) {
			return facets.Catalog{}, nil
		}},
		Resources: &mockResources{getFn: func(context.Context, string) (resource.Resource, error) {
			return resource.Resource{}, domain.ErrNotFound
		}},
		Related: &mockRelated{forFn: func(context.Context, string, int) ([]resource.Resource, error) {
			return nil, domain.ErrNotFound
		}},
		Contributions: &mockContributions{submitFn: func(context.Context, contribution.Input) (resource.Resource, error) {
			return resource.Resource{}, domain.ErrInvalidInput
		}},
		Health: &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}},
	}
}

func newTestRouter(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	return NewRouter(NewServer(deps, 1024, nil), []string{"secret"}, nil)
}

func do(t *testing.T, h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
