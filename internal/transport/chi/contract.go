package chi

import (
	"context"

	"github.com/kailas-cloud/reformhub/internal/domain/resource"
	"github.com/kailas-cloud/reformhub/internal/domain/search/request"
	"github.com/kailas-cloud/reformhub/internal/usecase/contribution"
	"github.com/kailas-cloud/reformhub/internal/usecase/facets"
	healthuc "github.com/kailas-cloud/reformhub/internal/usecase/health"
	"github.com/kailas-cloud/reformhub/internal/usecase/imageupload"
	"github.com/kailas-cloud/reformhub/internal/usecase/preview"
	searchuc "github.com/kailas-cloud/reformhub/internal/usecase/search"
)

// Consumer interfaces for the use cases the handlers call (ISP).

// Searcher runs resource searches.
type Searcher interface {
	Search(ctx context.Context, req request.Request, session string) (searchuc.Outcome, error)
}

// TypeFreezer pins the type facet per UI session.
type TypeFreezer interface {
	Types(ctx context.Context, session string, computed []string) []string
}

// Catalog serves the cached facet lists.
type Catalog interface {
	Catalog(ctx context.Context) (facets.Catalog, error)
}

// Resources fetches a single resource.
type Resources interface {
	Get(ctx context.Context, id string) (resource.Resource, error)
}

// Related lists resources related to one resource.
type Related interface {
	For(ctx context.Context, id string, limit int) ([]resource.Resource, error)
}

// Contributions accepts submissions.
type Contributions interface {
	Submit(ctx context.Context, in contribution.Input) (resource.Resource, error)
}

// Previews builds link previews.
type Previews interface {
	Get(ctx context.Context, rawURL string) (preview.Preview, error)
}

// Images stores resource images.
type Images interface {
	Upload(ctx context.Context, id, srcURL string) (imageupload.Result, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
