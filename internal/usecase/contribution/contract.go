package contribution

import (
	"context"

	"github.com/kailas-cloud/reformhub/internal/domain/resource"
)

// Repository is the consumer interface for resource creation (ISP).
type Repository interface {
	Create(ctx context.Context, r resource.Resource) error
}
