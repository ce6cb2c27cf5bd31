package facets

import (
	"context"

	"github.com/kailas-cloud/reformhub/internal/domain/search/plan"
	"github.com/kailas-cloud/reformhub/internal/domain/search/result"
)

// Repository samples resources from the store.
type Repository interface {
	Find(ctx context.Context, p plan.Plan) ([]result.Result, error)
}
