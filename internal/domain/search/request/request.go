package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/reformhub/internal/domain/search/facet"
	"github.com/kailas-cloud/reformhub/internal/domain/search/filter"
	"github.com/kailas-cloud/reformhub/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 512
	DefaultLimit   = 20
	MaxLimit       = 100
)

// Request is a validated search query.
type Request struct {
	query      string
	searchMode mode.Mode
	facets     facet.Set
	limit      int
}

// New validates and normalizes search parameters.
// The query may be empty. Wildcard characters are dropped so the query
// matches literally. Defaults: mode=keyword, limit=20.
func New(query string, m mode.Mode, facets facet.Set, limit int) (Request, error) {
	query = strings.TrimSpace(filter.StripWildcards(query))
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if m == "" {
		m = mode.Keyword
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid search mode: %q", m)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Request{query: query, searchMode: m, facets: facets, limit: limit}, nil
}

// Query returns the trimmed free-text query.
func (r *Request) Query() string { return r.query }

// Mode returns how an unfiltered query is ranked.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Facets returns the facet filters.
func (r *Request) Facets() facet.Set { return r.facets }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// HasQuery reports whether a text query was supplied.
func (r *Request) HasQuery() bool { return r.query != "" }
