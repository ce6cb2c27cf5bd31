package resource

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/reformhub/internal/db/weaviate"
	"github.com/kailas-cloud/reformhub/internal/domain/search/plan"
	"github.com/kailas-cloud/reformhub/internal/resilience"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	queryFn  func(ctx context.Context, class string, p plan.Plan, props []string) ([]weaviate.Record, error)
	objectFn func(ctx context.Context, class, id string) (weaviate.Record, error)
	createFn func(ctx context.Context, class, id string, props map[string]any) error
	mergeFn  func(ctx context.Context, class, id string, props map[string]any) error
}

func (m *mockStore) Query(ctx context.Context, class string, p plan.Plan, props []string) ([]weaviate.Record, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, class, p, props)
	}
	return nil, nil
}

func (m *mockStore) Object(ctx context.Context, class, id string) (weaviate.Record, error) {
	if m.objectFn != nil {
		return m.objectFn(ctx, class, id)
	}
	return weaviate.Record{}, nil
}

func (m *mockStore) Create(ctx context.Context, class, id string, props map[string]any) error {
	if m.createFn != nil {
		return m.createFn(ctx, class, id, props)
	}
	return nil
}

func (m *mockStore) Merge(ctx context.Context, class, id string, props map[string]any) error {
	if m.mergeFn != nil {
		return m.mergeFn(ctx, class, id, props)
	}
	return nil
}

var fixedNow = time.Date(2024, 5, 17, 15, 30, 0, 0, time.UTC)

func testMapper() Mapper {
	return NewMapper(func() time.Time { return fixedNow })
}

func newTestRepo(t *testing.T, s *mockStore) *Repo {
	t.Helper()
	exec := resilience.NewExecutor(resilience.Config{RetryMaxAttempts: 1}, nil, nil)
	return New(s, exec, "", testMapper())
}
