package resource

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/reformhub/internal/db/weaviate"
	"github.com/kailas-cloud/reformhub/internal/domain"
	domres "github.com/kailas-cloud/reformhub/internal/domain/resource"
	"github.com/kailas-cloud/reformhub/internal/domain/search/plan"
)

func TestFind_MapsAndScores(t *testing.T) {
	var gotClass string
	var gotProps []string
	s := &mockStore{queryFn: func(_ context.Context, class string, _ plan.Plan, props []string) ([]weaviate.Record, error) {
		gotClass, gotProps = class, props
		return []weaviate.Record{
			{ID: "1", Score: 2.5, Scored: true, Fields: map[string]any{"title": "A"}},
			{ID: "2", Fields: map[string]any{"title": "B", "status": "pending_review"}},
			{ID: "3", Fields: map[string]any{"title": "C"}},
		}, nil
	}}
	repo := newTestRepo(t, s)

	got, err := repo.Find(context.Background(), plan.Plan{Strategy: plan.BM25, Query: "x", Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotClass != domres.ClassName || len(gotProps) != len(domres.Properties) {
		t.Errorf("class=%s props=%v", gotClass, gotProps)
	}
	if len(got) != 2 {
		t.Fatalf("results = %d, want pending record dropped", len(got))
	}
	if !got[0].HasScore() || got[0].Score() != 2.5 {
		t.Errorf("first score = %v", got[0].Score())
	}
	if got[1].HasScore() || got[1].Resource().Title != "C" {
		t.Errorf("second = %+v", got[1].Resource())
	}
}

func TestFind_WidensPastPendingRecords(t *testing.T) {
	var limits []int
	s := &mockStore{queryFn: func(_ context.Context, _ string, p plan.Plan, _ []string) ([]weaviate.Record, error) {
		limits = append(limits, p.Limit)
		recs := []weaviate.Record{
			{ID: "p1", Fields: map[string]any{"title": "P1", "status": "pending_review"}},
			{ID: "p2", Fields: map[string]any{"title": "P2", "status": "pending_review"}},
			{ID: "1", Fields: map[string]any{"title": "A"}},
			{ID: "2", Fields: map[string]any{"title": "B"}},
			{ID: "3", Fields: map[string]any{"title": "C"}},
			{ID: "4", Fields: map[string]any{"title": "D"}},
		}
		return recs[:min(p.Limit, len(recs))], nil
	}}

	got, err := newTestRepo(t, s).Find(context.Background(), plan.Plan{Strategy: plan.Sample, Limit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("results = %d, want a full page of 3", len(got))
	}
	if got[0].Resource().ID != "1" || got[2].Resource().ID != "3" {
		t.Errorf("results = %v, %v", got[0].Resource().ID, got[2].Resource().ID)
	}
	if len(limits) != 2 || limits[0] != 3 || limits[1] != 6 {
		t.Errorf("store limits = %v, want [3 6]", limits)
	}
}

func TestFind_ShortStorePageNotWidened(t *testing.T) {
	calls := 0
	s := &mockStore{queryFn: func(context.Context, string, plan.Plan, []string) ([]weaviate.Record, error) {
		calls++
		return []weaviate.Record{
			{ID: "p1", Fields: map[string]any{"title": "P1", "status": "pending_review"}},
			{ID: "1", Fields: map[string]any{"title": "A"}},
		}, nil
	}}

	got, err := newTestRepo(t, s).Find(context.Background(), plan.Plan{Strategy: plan.Sample, Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || calls != 1 {
		t.Errorf("results = %d calls = %d, want 1 and 1", len(got), calls)
	}
}

func TestFind_WideningIsBounded(t *testing.T) {
	var limits []int
	s := &mockStore{queryFn: func(_ context.Context, _ string, p plan.Plan, _ []string) ([]weaviate.Record, error) {
		limits = append(limits, p.Limit)
		recs := make([]weaviate.Record, p.Limit)
		for i := range recs {
			recs[i] = weaviate.Record{Fields: map[string]any{"title": "P", "status": "pending_review"}}
		}
		return recs, nil
	}}

	got, err := newTestRepo(t, s).Find(context.Background(), plan.Plan{Strategy: plan.Sample, Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("results = %d, want 0", len(got))
	}
	if last := limits[len(limits)-1]; last != 2*maxWiden || len(limits) != 3 {
		t.Errorf("store limits = %v", limits)
	}
}

func TestFind_StoreError(t *testing.T) {
	s := &mockStore{queryFn: func(context.Context, string, plan.Plan, []string) ([]weaviate.Record, error) {
		return nil, domain.ErrUpstreamUnavailable
	}}
	_, err := newTestRepo(t, s).Find(context.Background(), plan.Plan{Strategy: plan.Sample, Limit: 1})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestGet(t *testing.T) {
	s := &mockStore{objectFn: func(_ context.Context, _, id string) (weaviate.Record, error) {
		return weaviate.Record{ID: id, Fields: map[string]any{"properties": map[string]any{"title": "Nested"}}}, nil
	}}
	r, err := newTestRepo(t, s).Get(context.Background(), "id-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID != "id-9" || r.Title != "Nested" {
		t.Errorf("resource = %+v", r)
	}
}

func TestGet_PendingIsNotFound(t *testing.T) {
	s := &mockStore{objectFn: func(_ context.Context, _, id string) (weaviate.Record, error) {
		return weaviate.Record{ID: id, Fields: map[string]any{"properties": map[string]any{"status": "pending_review"}}}, nil
	}}
	_, err := newTestRepo(t, s).Get(context.Background(), "id-9")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreate(t *testing.T) {
	var gotID string
	var gotProps map[string]any
	s := &mockStore{createFn: func(_ context.Context, _, id string, props map[string]any) error {
		gotID, gotProps = id, props
		return nil
	}}
	err := newTestRepo(t, s).Create(context.Background(), domres.Resource{
		ID: "uuid-1", Title: "T", Status: domres.StatusPendingReview,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != "uuid-1" || gotProps[domres.PropStatus] != "pending_review" {
		t.Errorf("id=%s props=%v", gotID, gotProps)
	}
}

func TestCreate_RequiresStableID(t *testing.T) {
	repo := newTestRepo(t, &mockStore{})
	for _, r := range []domres.Resource{{}, {ID: "Title", SyntheticID: true}} {
		if err := repo.Create(context.Background(), r); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for %+v, got %v", r, err)
		}
	}
}

func TestPatchImage(t *testing.T) {
	var gotProps map[string]any
	s := &mockStore{mergeFn: func(_ context.Context, _, _ string, props map[string]any) error {
		gotProps = props
		return nil
	}}
	if err := newTestRepo(t, s).PatchImage(context.Background(), "id", "https://cdn.example/a.png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotProps) != 1 || gotProps[domres.PropImageURL] != "https://cdn.example/a.png" {
		t.Errorf("props = %v", gotProps)
	}
}
