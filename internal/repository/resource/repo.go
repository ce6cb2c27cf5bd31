// Package resource is the Weaviate-backed resource repository. Raw store
// records are mapped here and never leave the package.
package resource

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/reformhub/internal/db/weaviate"
	"github.com/kailas-cloud/reformhub/internal/domain"
	domres "github.com/kailas-cloud/reformhub/internal/domain/resource"
	"github.com/kailas-cloud/reformhub/internal/domain/search/plan"
	"github.com/kailas-cloud/reformhub/internal/domain/search/result"
	"github.com/kailas-cloud/reformhub/internal/resilience"
)

// store is the consumer interface for the document store (ISP).
type store interface {
	Query(ctx context.Context, class string, p plan.Plan, properties []string) ([]weaviate.Record, error)
	Object(ctx context.Context, class, id string) (weaviate.Record, error)
	Create(ctx context.Context, class, id string, props map[string]any) error
	Merge(ctx context.Context, class, id string, props map[string]any) error
}

// guard runs store calls under retry and breaker policies.
type guard interface {
	Execute(ctx context.Context, op string, fn func(context.Context) error, c resilience.Classifier) error
}

// Repo reads and writes resources.
type Repo struct {
	store  store
	guard  guard
	class  string
	mapper Mapper
}

// New creates a resource repository over class.
func New(s store, g guard, class string, mapper Mapper) *Repo {
	if class == "" {
		class = domres.ClassName
	}
	return &Repo{store: s, guard: g, class: class, mapper: mapper}
}

// maxWiden bounds how far Find grows the store limit to fill a page.
const maxWiden = 4

// Find runs a plan and maps the records. Resources awaiting review are dropped;
// when that leaves a full store page short, the query is repeated with a
// larger limit (up to maxWiden times the requested one) and trimmed back.
func (r *Repo) Find(ctx context.Context, p plan.Plan) ([]result.Result, error) {
	want := p.Limit
	q := p
	for {
		recs, err := r.query(ctx, q)
		if err != nil {
			return nil, err
		}
		out := r.published(recs)
		if len(out) >= want || len(recs) < q.Limit || q.Limit >= want*maxWiden {
			if len(out) > want {
				out = out[:want]
			}
			return out, nil
		}
		q.Limit = min(q.Limit*2, want*maxWiden)
	}
}

func (r *Repo) query(ctx context.Context, p plan.Plan) ([]weaviate.Record, error) {
	var recs []weaviate.Record
	err := r.guard.Execute(ctx, "weaviate.query", func(ctx context.Context) error {
		var err error
		recs, err = r.store.Query(ctx, r.class, p, domres.Properties)
		return err
	}, resilience.TransientClassifier)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", p.Strategy, err)
	}
	return recs, nil
}

func (r *Repo) published(recs []weaviate.Record) []result.Result {
	out := make([]result.Result, 0, len(recs))
	for _, rec := range recs {
		res := r.mapper.Map(rec)
		if res.Status == domres.StatusPendingReview {
			continue
		}
		if rec.Scored {
			out = append(out, result.NewScored(res, rec.Score))
			continue
		}
		out = append(out, result.New(res))
	}
	return out
}

// Get fetches one published resource.
func (r *Repo) Get(ctx context.Context, id string) (domres.Resource, error) {
	var rec weaviate.Record
	err := r.guard.Execute(ctx, "weaviate.object", func(ctx context.Context) error {
		var err error
		rec, err = r.store.Object(ctx, r.class, id)
		return err
	}, resilience.TransientClassifier)
	if err != nil {
		return domres.Resource{}, fmt.Errorf("get resource %s: %w", id, err)
	}

	res := r.mapper.Map(rec)
	if res.Status == domres.StatusPendingReview {
		return domres.Resource{}, fmt.Errorf("get resource %s: %w", id, domain.ErrNotFound)
	}
	return res, nil
}

// Create stores a new resource under its ID.
func (r *Repo) Create(ctx context.Context, res domres.Resource) error {
	if res.ID == "" || res.SyntheticID {
		return fmt.Errorf("create resource: %w", domain.NewFieldError("id", "a stable identifier is required"))
	}
	err := r.guard.Execute(ctx, "weaviate.create", func(ctx context.Context) error {
		return r.store.Create(ctx, r.class, res.ID, toProperties(res))
	}, resilience.DefaultClassifier)
	if err != nil {
		return fmt.Errorf("create resource %s: %w", res.ID, err)
	}
	return nil
}

// PatchImage sets the image URL of an existing resource.
func (r *Repo) PatchImage(ctx context.Context, id, imageURL string) error {
	err := r.guard.Execute(ctx, "weaviate.merge", func(ctx context.Context) error {
		return r.store.Merge(ctx, r.class, id, map[string]any{domres.PropImageURL: imageURL})
	}, resilience.TransientClassifier)
	if err != nil {
		return fmt.Errorf("patch image %s: %w", id, err)
	}
	return nil
}
