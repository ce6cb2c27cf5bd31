package facets

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reformhub/internal/cache"
	"github.com/kailas-cloud/reformhub/internal/db/memory"
	"github.com/kailas-cloud/reformhub/internal/domain/category"
	"github.com/kailas-cloud/reformhub/internal/domain/resource"
	"github.com/kailas-cloud/reformhub/internal/domain/search/plan"
	"github.com/kailas-cloud/reformhub/internal/domain/search/result"
)

type mockRepo struct {
	results []result.Result
	err     error
	calls   int
	last    plan.Plan
}

func (m *mockRepo) Find(_ context.Context, p plan.Plan) ([]result.Result, error) {
	m.calls++
	m.last = p
	return m.results, m.err
}

func newTestService(repo Repository) *Service {
	c := cache.New(memory.NewStore(nil), cache.Config{TTL: time.Hour}, nil, nil, zap.NewNop())
	return New(repo, c, 50)
}

func sample() []result.Result {
	return []result.Result{
		result.New(resource.Resource{Theme: "Health", Type: "Report", Location: "UK", Tags: []string{"Mental Health"}}),
		result.New(resource.Resource{Theme: "health", Type: "Video", Location: "UK", Tags: []string{"mental health", "Bail"}}),
		result.New(resource.Resource{Theme: "Policing", Location: "US"}),
	}
}

func TestCatalog_ComputesFromSample(t *testing.T) {
	repo := &mockRepo{results: sample()}
	svc := newTestService(repo)

	got, err := svc.Catalog(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.last.Strategy != plan.Sample || repo.last.Limit != 50 {
		t.Errorf("plan = %s", repo.last.String())
	}
	if len(got.Themes) != 2 || got.Themes[0].Name() != "Health" || got.Themes[0].Count() != 2 {
		t.Errorf("themes = %+v", got.Themes)
	}
	if got.Themes[0].Kind() != category.KindTheme {
		t.Errorf("kind = %s", got.Themes[0].Kind())
	}
	if len(got.Tags) != 2 || got.Tags[0].Name() != "Mental Health" || got.Tags[0].Count() != 2 {
		t.Errorf("tags = %+v", got.Tags)
	}
	if len(got.Types) != 3 || got.Types[2].Name() != resource.DefaultType {
		t.Errorf("types = %+v", got.Types)
	}
	if len(got.Locations) != 2 || got.Locations[0].Name() != "UK" || got.Locations[0].Link() != "/locations/uk" {
		t.Errorf("locations = %+v", got.Locations)
	}
}

func TestCatalog_Cached(t *testing.T) {
	repo := &mockRepo{results: sample()}
	svc := newTestService(repo)

	for range 3 {
		if _, err := svc.Catalog(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if repo.calls != 1 {
		t.Errorf("store calls = %d, want 1", repo.calls)
	}

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if repo.calls != 2 {
		t.Errorf("store calls after refresh = %d, want 2", repo.calls)
	}
	if _, err := svc.Catalog(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.calls != 2 {
		t.Errorf("store calls after refreshed read = %d, want 2", repo.calls)
	}
}

func TestRefresh_WarmsCatalog(t *testing.T) {
	repo := &mockRepo{results: sample()}
	svc := newTestService(repo)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("store calls after warm-up = %d, want 1", repo.calls)
	}

	got, err := svc.Catalog(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.calls != 1 {
		t.Errorf("first read hit the store: calls = %d", repo.calls)
	}
	if len(got.Themes) != 2 {
		t.Errorf("themes = %+v", got.Themes)
	}
}

func TestRefresh_StoreErrorKeepsCache(t *testing.T) {
	repo := &mockRepo{results: sample()}
	svc := newTestService(repo)
	if _, err := svc.Catalog(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	repo.err = errors.New("down")
	if err := svc.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	repo.err = nil
	if _, err := svc.Catalog(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.calls != 2 {
		t.Errorf("store calls = %d, want 2", repo.calls)
	}
}

func TestCatalog_StoreError(t *testing.T) {
	svc := newTestService(&mockRepo{err: errors.New("down")})
	if _, err := svc.Catalog(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
