package pagefetch

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reformhub/internal/domain"
)

// primaryShare is the part of the caller's remaining deadline the primary
// fetch may use when a secondary is configured.
const primaryShare = 0.5

// FallbackFetcher tries primary and, when it fails for a reason a browser
// might overcome, secondary. Invalid input is never retried.
type FallbackFetcher struct {
	primary   Fetcher
	secondary Fetcher
	fetches   *prometheus.CounterVec
	logger    *zap.Logger
}

// NewFallbackFetcher chains two fetchers. secondary may be nil.
// fetches is a counter vec with labels "fetcher" and "status", may be nil.
func NewFallbackFetcher(primary, secondary Fetcher, fetches *prometheus.CounterVec, logger *zap.Logger) *FallbackFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackFetcher{primary: primary, secondary: secondary, fetches: fetches, logger: logger}
}

// Fetch implements Fetcher.
func (f *FallbackFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	page, err := f.fetchPrimary(ctx, rawURL)
	f.count("plain", err)
	if err == nil && len(page.Body) > 0 {
		return page, nil
	}
	if errors.Is(err, domain.ErrInvalidInput) || f.secondary == nil || ctx.Err() != nil {
		return page, err
	}

	f.logger.Debug("Plain fetch failed, trying headless browser",
		zap.String("url", rawURL), zap.Error(err))
	bpage, berr := f.secondary.Fetch(ctx, rawURL)
	f.count("browser", berr)
	if berr != nil {
		if err != nil {
			return Page{}, errors.Join(err, berr)
		}
		return page, nil
	}
	return bpage, nil
}

// fetchPrimary runs the primary fetch. With a secondary configured and a
// deadline set, the primary only gets primaryShare of the time left so a
// slow page still leaves room for the browser.
func (f *FallbackFetcher) fetchPrimary(ctx context.Context, rawURL string) (Page, error) {
	deadline, ok := ctx.Deadline()
	if f.secondary == nil || !ok {
		return f.primary.Fetch(ctx, rawURL)
	}
	budget := time.Duration(float64(time.Until(deadline)) * primaryShare)
	pctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	return f.primary.Fetch(pctx, rawURL)
}

func (f *FallbackFetcher) count(fetcher string, err error) {
	if f.fetches == nil {
		return
	}
	status := "ok"
	switch {
	case errors.Is(err, ErrBlocked):
		status = "blocked"
	case err != nil:
		status = "error"
	}
	f.fetches.WithLabelValues(fetcher, status).Inc()
}
