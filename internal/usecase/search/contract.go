package search

import (
	"context"

	"github.com/kailas-cloud/reformhub/internal/domain"
	"github.com/kailas-cloud/reformhub/internal/domain/search/plan"
	"github.com/kailas-cloud/reformhub/internal/domain/search/result"
)

// Repository executes store plans.
type Repository interface {
	Find(ctx context.Context, p plan.Plan) ([]result.Result, error)
}

// Embedder vectorizes hybrid queries when the store cannot.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
