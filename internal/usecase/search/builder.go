package search

import (
	"fmt"

	"github.com/kailas-cloud/reformhub/internal/domain"
	"github.com/kailas-cloud/reformhub/internal/domain/resource"
	"github.com/kailas-cloud/reformhub/internal/domain/search/facet"
	"github.com/kailas-cloud/reformhub/internal/domain/search/filter"
	"github.com/kailas-cloud/reformhub/internal/domain/search/mode"
	"github.com/kailas-cloud/reformhub/internal/domain/search/plan"
	"github.com/kailas-cloud/reformhub/internal/domain/search/request"
)

// facetProperties maps each text facet to the store property it filters.
var facetProperties = map[facet.Field]string{
	facet.Type:     resource.PropSourceType,
	facet.Theme:    resource.PropTheme,
	facet.Source:   resource.PropSource,
	facet.Author:   resource.PropAuthor,
	facet.Location: resource.PropLocation,
}

// Build turns a search request into a store plan.
//
// With facets, every condition is a substring match: values of one field are
// OR'ed, fields are AND'ed, and a text query becomes one more OR group over the
// text properties. Without facets, a text query is ranked by the store (BM25 or
// hybrid). With neither, the plan is an unranked sample.
func Build(req request.Request) (plan.Plan, error) {
	facets := req.Facets()

	var p plan.Plan
	switch {
	case !facets.IsEmpty():
		groups := make([]filter.Node, 0, len(facet.Fields)+3)
		for _, f := range facet.Fields {
			groups = append(groups, fieldGroup(f, facets.Values(f)))
		}
		groups = append(groups, dateConditions(facets.DateRange())...)
		if req.HasQuery() {
			groups = append(groups, textGroup(req.Query()))
		}
		p = plan.Plan{Strategy: plan.Filtered, Where: filter.And(groups...)}
	case req.HasQuery():
		strategy := plan.BM25
		if req.Mode() == mode.Hybrid {
			strategy = plan.Hybrid
		}
		p = plan.Plan{Strategy: strategy, Query: req.Query(), Properties: resource.TextProperties}
	default:
		p = plan.Plan{Strategy: plan.Sample}
	}
	p.Limit = req.Limit()

	if err := p.Validate(); err != nil {
		return plan.Plan{}, fmt.Errorf("%w: build plan: %w", domain.ErrInvalidInput, err)
	}
	return p, nil
}

// fieldGroup ORs substring conditions for each selected value of one facet.
// Type values expand through the synonym table.
func fieldGroup(f facet.Field, values []string) filter.Node {
	prop := facetProperties[f]
	conds := make([]filter.Node, 0, len(values))
	for _, v := range values {
		if f == facet.Type {
			for _, variant := range resource.TypeVariants(v) {
				conds = append(conds, filter.Contains(prop, variant))
			}
			continue
		}
		conds = append(conds, filter.Contains(prop, v))
	}
	return filter.Or(conds...)
}

func dateConditions(dr facet.DateRange) []filter.Node {
	var out []filter.Node
	if from := dr.From(); from != nil {
		out = append(out, filter.OnOrAfter(resource.PropPublicationDate, *from))
	}
	if to := dr.To(); to != nil {
		out = append(out, filter.OnOrBefore(resource.PropPublicationDate, *to))
	}
	return out
}

func textGroup(q string) filter.Node {
	conds := make([]filter.Node, 0, len(resource.TextProperties))
	for _, prop := range resource.TextProperties {
		conds = append(conds, filter.Contains(prop, q))
	}
	return filter.Or(conds...)
}
