// Package related lists resources sharing a theme, with preview images filled in.
package related

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/reformhub/internal/domain"
	"github.com/kailas-cloud/reformhub/internal/domain/resource"
)

// Defaults.
const (
	DefaultLimit       = 3
	MaxLimit           = 12
	DefaultConcurrency = 4
)

// Service resolves related resources.
type Service struct {
	resources   Resources
	search      Searcher
	images      Images
	concurrency int
}

// New creates a related-resources service. images may be nil to skip preview lookups.
func New(resources Resources, search Searcher, images Images, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Service{resources: resources, search: search, images: images, concurrency: concurrency}
}

// For returns up to limit resources related to id. Resources without a stored
// image get one from their original page's preview; a failed lookup leaves it empty.
func (s *Service) For(ctx context.Context, id string, limit int) ([]resource.Resource, error) {
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 || limit > MaxLimit {
		return nil, domain.NewFieldError("limit", fmt.Sprintf("must be between 1 and %d", MaxLimit))
	}

	r, err := s.resources.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.search.Related(ctx, r, limit)
	if err != nil {
		return nil, err
	}
	if s.images == nil {
		return items, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range items {
		if items[i].HasImage() || items[i].LinkToOriginalSource == "" {
			continue
		}
		g.Go(func() error {
			items[i].ImageURL = s.images.ImageURL(gctx, items[i].LinkToOriginalSource)
			return nil
		})
	}
	_ = g.Wait()
	return items, nil
}
