package related

import (
	"context"

	"github.com/kailas-cloud/reformhub/internal/domain/resource"
)

// Resources is the consumer interface for resource lookup (ISP).
type Resources interface {
	Get(ctx context.Context, id string) (resource.Resource, error)
}

// Searcher is the consumer interface for same-theme search (ISP).
type Searcher interface {
	Related(ctx context.Context, r resource.Resource, limit int) ([]resource.Resource, error)
}

// Images resolves a preview image for a page. It returns "" when none is found.
type Images interface {
	ImageURL(ctx context.Context, pageURL string) string
}
