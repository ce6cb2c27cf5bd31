package aggregate

import (
	"context"

	"github.com/kailas-cloud/reformhub/internal/cache"
)

const frozenTypesKey = "session-types:"

// Freezer pins the type list per UI session so refinements do not reshuffle the filter UI.
type Freezer struct {
	cache *cache.Service
}

// NewFreezer creates a Freezer backed by c; c's TTL bounds how long a session stays frozen.
func NewFreezer(c *cache.Service) *Freezer {
	return &Freezer{cache: c}
}

// Types returns the list frozen for session, freezing computed on the first
// non-empty load. Without a session key computed is returned unchanged.
func (f *Freezer) Types(ctx context.Context, session string, computed []string) []string {
	if session == "" {
		return computed
	}
	key := frozenTypesKey + session
	if frozen, _, ok := cache.Peek[[]string](ctx, f.cache, key); ok && len(frozen) > 0 {
		return frozen
	}
	if len(computed) > 0 {
		// A failed write only means the next load freezes instead.
		_ = cache.Put(ctx, f.cache, key, computed)
	}
	return computed
}
