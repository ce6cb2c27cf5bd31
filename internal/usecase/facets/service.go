// Package facets serves site-wide facet lists computed from a bounded sample of resources.
package facets

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/reformhub/internal/cache"
	"github.com/kailas-cloud/reformhub/internal/domain/category"
	"github.com/kailas-cloud/reformhub/internal/domain/resource"
	"github.com/kailas-cloud/reformhub/internal/domain/search/plan"
	"github.com/kailas-cloud/reformhub/internal/domain/search/result"
	"github.com/kailas-cloud/reformhub/internal/usecase/aggregate"
)

// DefaultSampleSize bounds the resources facets are computed from.
const DefaultSampleSize = 500

const catalogKey = "facets:catalog"

// Catalog holds every browsable facet list.
type Catalog struct {
	Themes    []category.Category
	Tags      []category.Category
	Types     []category.Category
	Locations []category.Category
}

// Service computes and caches the catalog.
type Service struct {
	repo       Repository
	cache      *cache.Service
	sampleSize int
}

// New creates a facets service.
func New(repo Repository, c *cache.Service, sampleSize int) *Service {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &Service{repo: repo, cache: c, sampleSize: sampleSize}
}

// Catalog returns the cached catalog, refreshing it in the background once stale.
func (s *Service) Catalog(ctx context.Context) (Catalog, error) {
	dto, err := cache.Fetch(ctx, s.cache, catalogKey, s.load)
	if err != nil {
		return Catalog{}, fmt.Errorf("facet catalog: %w", err)
	}
	return dto.toDomain(), nil
}

// Refresh recomputes the catalog now and replaces the cached copy.
func (s *Service) Refresh(ctx context.Context) error {
	dto, err := s.load(ctx)
	if err != nil {
		return fmt.Errorf("refresh facet catalog: %w", err)
	}
	if err := cache.Put(ctx, s.cache, catalogKey, dto); err != nil {
		return fmt.Errorf("store facet catalog: %w", err)
	}
	return nil
}

func (s *Service) load(ctx context.Context) (catalogDTO, error) {
	results, err := s.repo.Find(ctx, plan.Plan{Strategy: plan.Sample, Limit: s.sampleSize})
	if err != nil {
		return catalogDTO{}, fmt.Errorf("sample resources: %w", err)
	}
	return fromDomain(compute(result.Resources(results))), nil
}

func compute(rs []resource.Resource) Catalog {
	types := make([]string, len(rs))
	locations := make([]string, len(rs))
	for i := range rs {
		types[i] = rs[i].DisplayType()
		locations[i] = rs[i].Location
	}
	return Catalog{
		Themes:    aggregate.Themes(rs),
		Tags:      aggregate.Tags(rs),
		Types:     aggregate.Rank(types, 0, category.KindType),
		Locations: aggregate.Rank(locations, 0, category.KindLocation),
	}
}
