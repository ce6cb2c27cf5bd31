// Package cache is a read-through TTL cache over a key-value store with
// stale-while-revalidate semantics.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/reformhub/internal/db"
)

const keyPrefix = "reformhub:cache:"

// Lookup results reported to the counter.
const (
	resultHit   = "hit"
	resultStale = "stale"
	resultMiss  = "miss"
)

// store is the consumer interface for the cache backend (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Config controls entry freshness.
type Config struct {
	// TTL is how long an entry is served without a refresh.
	TTL time.Duration
	// StaleFor is how long past TTL an entry is still served while a refresh runs.
	StaleFor time.Duration
	// RefreshTimeout bounds a background refresh.
	RefreshTimeout time.Duration
}

// Service caches loader results. Construct once per process and share it.
type Service struct {
	store   store
	cfg     Config
	now     func() time.Time
	group   singleflight.Group
	wg      sync.WaitGroup
	lookups *prometheus.CounterVec
	logger  *zap.Logger
}

// New creates a cache service.
// lookups is a counter vec with labels "key" (first key segment) and "result" ("hit"/"stale"/"miss"), may be nil.
// now is the injected clock; nil means time.Now.
func New(
	s store,
	cfg Config,
	now func() time.Time,
	lookups *prometheus.CounterVec,
	logger *zap.Logger,
) *Service {
	if now == nil {
		now = time.Now
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, cfg: cfg, now: now, lookups: lookups, logger: logger}
}

type entry struct {
	StoredAt time.Time       `json:"stored_at"`
	Value    json.RawMessage `json:"value"`
}

// Loader produces a fresh value for a key.
type Loader[T any] func(ctx context.Context) (T, error)

// Fetch returns the cached value for key. A fresh entry is returned as is.
// A stale entry is returned immediately and refreshed in the background.
// A missing or expired entry is loaded synchronously; concurrent callers share one load.
func Fetch[T any](ctx context.Context, s *Service, key string, load Loader[T]) (T, error) {
	var zero T

	e, ok := s.read(ctx, key)
	if ok {
		var v T
		if err := json.Unmarshal(e.Value, &v); err == nil {
			age := s.now().Sub(e.StoredAt)
			if age < s.cfg.TTL {
				s.inc(key, resultHit)
				return v, nil
			}
			s.inc(key, resultStale)
			refresh(ctx, s, key, load)
			return v, nil
		}
		s.logger.Warn("Discarding undecodable cache entry", zap.String("key", key))
		if err := s.Invalidate(ctx, key); err != nil {
			s.logger.Warn("Cache delete failed", zap.String("key", key), zap.Error(err))
		}
	}

	s.inc(key, resultMiss)
	v, err, _ := s.group.Do(key, func() (any, error) {
		fresh, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := Put(ctx, s, key, fresh); err != nil {
			s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		}
		return fresh, nil
	})
	if err != nil {
		return zero, fmt.Errorf("load %s: %w", key, err)
	}
	out, _ := v.(T)
	return out, nil
}

// refresh reloads key in the background; concurrent refreshes of one key collapse.
// The refresh outlives the triggering request.
func refresh[T any](ctx context.Context, s *Service, key string, load Loader[T]) {
	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, err, _ := s.group.Do(key, func() (any, error) {
			rctx, cancel := context.WithTimeout(bg, s.cfg.RefreshTimeout)
			defer cancel()
			fresh, err := load(rctx)
			if err != nil {
				return nil, err
			}
			return fresh, Put(rctx, s, key, fresh)
		})
		if err != nil {
			s.logger.Warn("Background cache refresh failed", zap.String("key", key), zap.Error(err))
		}
	}()
}

// Put stores value under key, stamped with the current clock time.
func Put[T any](ctx context.Context, s *Service, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	data, err := json.Marshal(entry{StoredAt: s.now(), Value: raw})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := s.store.SetWithTTL(ctx, keyPrefix+key, data, s.cfg.TTL+s.cfg.StaleFor); err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// Peek returns the cached value and its age without loading or refreshing.
func Peek[T any](ctx context.Context, s *Service, key string) (T, time.Duration, bool) {
	var v T
	e, ok := s.read(ctx, key)
	if !ok {
		return v, 0, false
	}
	if err := json.Unmarshal(e.Value, &v); err != nil {
		return v, 0, false
	}
	return v, s.now().Sub(e.StoredAt), true
}

// Invalidate drops key so the next Fetch loads synchronously.
func (s *Service) Invalidate(ctx context.Context, key string) error {
	if err := s.store.Del(ctx, keyPrefix+key); err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}
	return nil
}

// Wait blocks until in-flight background refreshes finish. Used on shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) read(ctx context.Context, key string) (entry, bool) {
	data, err := s.store.Get(ctx, keyPrefix+key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return entry{}, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		s.logger.Warn("Discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
		return entry{}, false
	}
	// Entries past the stale window are treated as absent even if the backend kept them.
	if s.now().Sub(e.StoredAt) >= s.cfg.TTL+s.cfg.StaleFor {
		return entry{}, false
	}
	return e, true
}

func (s *Service) inc(key, result string) {
	if s.lookups != nil {
		s.lookups.WithLabelValues(family(key), result).Inc()
	}
}

// family trims a key to its first segment so per-URL keys share one series.
func family(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
