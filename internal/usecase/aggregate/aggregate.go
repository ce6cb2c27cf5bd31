// Package aggregate computes facet values from a page of resources.
package aggregate

import (
	"slices"
	"strings"

	"github.com/kailas-cloud/reformhub/internal/domain/category"
	"github.com/kailas-cloud/reformhub/internal/domain/resource"
)

// Facet list sizes.
const (
	TopTags   = 15
	TopThemes = 10
)

// Facets is the filter UI data derived from one result page.
type Facets struct {
	Tags   []category.Category
	Themes []category.Category
	Types  []string
}

// Compute derives all facets from resources.
func Compute(resources []resource.Resource) Facets {
	return Facets{
		Tags:   Tags(resources),
		Themes: Themes(resources),
		Types:  Types(resources),
	}
}

// Tags ranks tags across resources, top 15.
func Tags(resources []resource.Resource) []category.Category {
	var all []string
	for i := range resources {
		all = append(all, resources[i].Tags...)
	}
	return Rank(all, TopTags, category.KindTag)
}

// Themes ranks themes across resources, top 10. Theme-less resources are not counted.
func Themes(resources []resource.Resource) []category.Category {
	all := make([]string, 0, len(resources))
	for i := range resources {
		all = append(all, resources[i].Theme)
	}
	return Rank(all, TopThemes, category.KindTheme)
}

// Types returns distinct display types in first-seen order.
func Types(resources []resource.Resource) []string {
	seen := make(map[string]struct{}, len(resources))
	var out []string
	for i := range resources {
		t := resources[i].DisplayType()
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

type bucket struct {
	display string
	count   int
	order   int
}

// Rank groups values case-insensitively, counts them and returns the top limit
// sorted by count descending. Ties keep first-seen order, and each group is
// displayed with the casing it was first seen in. Blank values are skipped.
func Rank(values []string, limit int, kind category.Kind) []category.Category {
	byKey := make(map[string]*bucket)
	var buckets []*bucket
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		b, ok := byKey[key]
		if !ok {
			b = &bucket{display: v, order: len(buckets)}
			byKey[key] = b
			buckets = append(buckets, b)
		}
		b.count++
	}

	slices.SortStableFunc(buckets, func(a, b *bucket) int {
		return b.count - a.count
	})
	if limit > 0 && len(buckets) > limit {
		buckets = buckets[:limit]
	}

	out := make([]category.Category, len(buckets))
	for i, b := range buckets {
		out[i] = category.New(b.display, b.count, kind)
	}
	return out
}
