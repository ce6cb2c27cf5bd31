package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reformhub/internal/domain"
	"github.com/kailas-cloud/reformhub/internal/domain/resource"
	"github.com/kailas-cloud/reformhub/internal/domain/search/facet"
	"github.com/kailas-cloud/reformhub/internal/domain/search/mode"
	"github.com/kailas-cloud/reformhub/internal/domain/search/plan"
	"github.com/kailas-cloud/reformhub/internal/domain/search/request"
	"github.com/kailas-cloud/reformhub/internal/domain/search/result"
	"github.com/kailas-cloud/reformhub/internal/logger"
)

// DefaultTimeout caps a single store query.
const DefaultTimeout = 15 * time.Second

// Outcome is the result of a search. Degraded is set when Results is empty
// because the store failed, not because nothing matched.
type Outcome struct {
	Results  []result.Result
	Plan     plan.Plan
	Degraded bool
}

// Service runs resource searches. Store failures degrade to an empty result.
type Service struct {
	repo     Repository
	embed    Embedder
	sup      *Superseder
	timeout  time.Duration
	degraded *prometheus.CounterVec
	logger   *zap.Logger
}

// New creates a search service.
// embed may be nil when the store vectorizes hybrid queries itself.
// degraded is a counter vec with label "reason", may be nil.
func New(
	repo Repository,
	embed Embedder,
	timeout time.Duration,
	degraded *prometheus.CounterVec,
	logger *zap.Logger,
) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		embed:    embed,
		sup:      NewSuperseder(),
		timeout:  timeout,
		degraded: degraded,
		logger:   logger,
	}
}

// Search builds a plan for req and runs it. A newer search under the same
// session cancels this one; the superseded call returns ErrSuperseded.
// Invalid requests are rejected with domain.ErrInvalidInput.
func (s *Service) Search(ctx context.Context, req request.Request, session string) (Outcome, error) {
	p, err := Build(req)
	if err != nil {
		return Outcome{}, err
	}

	ctx, done := s.sup.Begin(ctx, session)
	defer done()

	if p.Strategy == plan.Hybrid && s.embed != nil {
		emb, err := s.embed.Embed(ctx, p.Query)
		if err != nil {
			// The store can still vectorize if it has a vectorizer.
			s.log(ctx).Warn("Query embedding failed, hybrid search without vector", zap.Error(err))
		} else {
			p.Vector = emb.Embedding
		}
	}

	return s.run(ctx, p)
}

// Related returns up to limit published resources sharing r's theme, excluding r.
func (s *Service) Related(ctx context.Context, r resource.Resource, limit int) ([]resource.Resource, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidInput)
	}

	var values map[facet.Field][]string
	if r.Theme != "" {
		values = map[facet.Field][]string{facet.Theme: {r.Theme}}
	}
	facets, err := facet.NewSet(values, facet.DateRange{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	// One extra to make room for r itself.
	req, err := request.New("", mode.Keyword, facets, limit+1)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	p, err := Build(req)
	if err != nil {
		return nil, err
	}

	out, err := s.run(ctx, p)
	if err != nil {
		return nil, err
	}

	related := make([]resource.Resource, 0, limit)
	for _, res := range result.Resources(out.Results) {
		if res.ID == r.ID {
			continue
		}
		if len(related) == limit {
			break
		}
		related = append(related, res)
	}
	return related, nil
}

func (s *Service) run(ctx context.Context, p plan.Plan) (Outcome, error) {
	qctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	results, err := s.repo.Find(qctx, p)
	if err != nil {
		if cause := context.Cause(ctx); cause != nil {
			// Caller went away or was superseded; nobody reads a degraded page.
			if errors.Is(cause, ErrSuperseded) {
				return Outcome{}, ErrSuperseded
			}
			return Outcome{}, fmt.Errorf("search canceled: %w", cause)
		}
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		s.incDegraded(reason)
		s.log(ctx).Warn("Search failed, returning empty result",
			zap.Stringer("plan", &p),
			zap.String("reason", reason),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return Outcome{Results: []result.Result{}, Plan: p, Degraded: true}, nil
	}

	s.log(ctx).Debug("Search completed",
		zap.Stringer("plan", &p),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)
	if results == nil {
		results = []result.Result{}
	}
	return Outcome{Results: results, Plan: p}, nil
}

func (s *Service) incDegraded(reason string) {
	if s.degraded != nil {
		s.degraded.WithLabelValues(reason).Inc()
	}
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}
