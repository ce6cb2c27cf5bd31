// Package plan describes a store query produced by the query builder.
package plan

import (
	"fmt"

	"github.com/kailas-cloud/reformhub/internal/domain/search/filter"
)

// Strategy is how the store is asked for results.
type Strategy string

// Strategies.
const (
	// Sample returns a bounded unranked, unfiltered page.
	Sample Strategy = "sample"
	// Filtered applies a where tree; the text query, if any, is part of the tree.
	Filtered Strategy = "filtered"
	// BM25 ranks by keyword relevance with no where tree.
	BM25 Strategy = "bm25"
	// Hybrid blends keyword and vector relevance with no where tree.
	Hybrid Strategy = "hybrid"
)

// Plan is a store-agnostic query.
type Plan struct {
	Strategy Strategy
	Where    filter.Node
	// Query is set for ranked strategies only.
	Query string
	// Properties are searched by ranked strategies.
	Properties []string
	// Vector optionally accompanies Hybrid when the store cannot vectorize.
	Vector []float32
	Limit  int
}

// IsRanked reports whether the store orders results by relevance.
func (p *Plan) IsRanked() bool {
	return p.Strategy == BM25 || p.Strategy == Hybrid
}

// Validate checks that strategy and payload agree.
func (p *Plan) Validate() error {
	if p.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", p.Limit)
	}
	switch p.Strategy {
	case Sample:
		if !p.Where.IsEmpty() || p.Query != "" {
			return fmt.Errorf("sample plan must not carry a filter or query")
		}
	case Filtered:
		if p.Where.IsEmpty() {
			return fmt.Errorf("filtered plan requires a filter")
		}
	case BM25, Hybrid:
		if p.Query == "" {
			return fmt.Errorf("%s plan requires a query", p.Strategy)
		}
	default:
		return fmt.Errorf("unknown strategy %q", p.Strategy)
	}
	return p.Where.Validate()
}

// String renders the plan for logs.
func (p *Plan) String() string {
	switch p.Strategy {
	case BM25, Hybrid:
		return fmt.Sprintf("%s(%q, limit=%d)", p.Strategy, p.Query, p.Limit)
	case Filtered:
		return fmt.Sprintf("filtered(%s, limit=%d)", p.Where, p.Limit)
	}
	return fmt.Sprintf("%s(limit=%d)", p.Strategy, p.Limit)
}
