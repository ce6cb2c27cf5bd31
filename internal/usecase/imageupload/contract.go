package imageupload

import (
	"context"

	"github.com/kailas-cloud/reformhub/internal/domain/resource"
)

// Resources is the consumer interface for resource lookup and the image patch (ISP).
type Resources interface {
	Get(ctx context.Context, id string) (resource.Resource, error)
	PatchImage(ctx context.Context, id, imageURL string) error
}

// ObjectStore is the consumer interface for image storage (ISP).
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	PublicURL(key string) string
}
