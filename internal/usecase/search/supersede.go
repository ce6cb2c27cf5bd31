package search

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is the cancellation cause of a search replaced by a newer one.
var ErrSuperseded = errors.New("superseded by a newer search")

type flight struct {
	id     uint64
	cancel context.CancelCauseFunc
}

// Superseder keeps at most one in-flight search per session key.
// Starting a search cancels the previous one for the same key.
type Superseder struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[string]flight
}

// NewSuperseder creates an empty Superseder.
func NewSuperseder() *Superseder {
	return &Superseder{inflight: make(map[string]flight)}
}

// Begin registers a search for key and returns its context and a release func.
// An empty key is never superseded.
func (s *Superseder) Begin(ctx context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	if key == "" {
		return ctx, func() { cancel(nil) }
	}

	s.mu.Lock()
	if prev, ok := s.inflight[key]; ok {
		prev.cancel(ErrSuperseded)
	}
	s.seq++
	id := s.seq
	s.inflight[key] = flight{id: id, cancel: cancel}
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if cur, ok := s.inflight[key]; ok && cur.id == id {
			delete(s.inflight, key)
		}
		s.mu.Unlock()
		cancel(nil)
	}
}

// InFlight returns the number of tracked sessions.
func (s *Superseder) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}
