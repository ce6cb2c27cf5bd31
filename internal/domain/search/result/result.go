package result

import "github.com/kailas-cloud/reformhub/internal/domain/resource"

// Result is a single search hit.
type Result struct {
	resource resource.Resource
	score    float64
	scored   bool
}

// New creates an unranked result.
func New(r resource.Resource) Result {
	return Result{resource: r}
}

// NewScored creates a result carrying a relevance score.
func NewScored(r resource.Resource, score float64) Result {
	return Result{resource: r, score: score, scored: true}
}

// Resource returns the mapped resource.
func (r *Result) Resource() resource.Resource { return r.resource }

// Score returns the relevance score (0 when unranked).
func (r *Result) Score() float64 { return r.score }

// HasScore reports whether the store returned a relevance score.
func (r *Result) HasScore() bool { return r.scored }

// Resources extracts the resources from results, preserving order.
func Resources(results []Result) []resource.Resource {
	out := make([]resource.Resource, len(results))
	for i := range results {
		out[i] = results[i].resource
	}
	return out
}
