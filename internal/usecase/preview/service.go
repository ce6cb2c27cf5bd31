// Package preview builds link previews: Open Graph image, title and excerpt of a remote page.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reformhub/internal/cache"
	"github.com/kailas-cloud/reformhub/internal/domain"
	"github.com/kailas-cloud/reformhub/internal/logger"
	"github.com/kailas-cloud/reformhub/internal/transport/pagefetch"
)

// DefaultTimeout bounds one preview, fetch and fallback included.
const DefaultTimeout = 10 * time.Second

const maxExcerpt = 300

// Preview describes a remote page. ImageURL is empty when the page declares no image.
type Preview struct {
	URL      string `json:"url"`
	ImageURL string `json:"image_url"`
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	SiteName string `json:"site_name"`
}

// Service fetches and caches previews.
type Service struct {
	fetcher  pagefetch.Fetcher
	cache    *cache.Service
	timeout  time.Duration
	outcomes *prometheus.CounterVec
	logger   *zap.Logger
}

// New creates a preview service.
// outcomes is a counter vec with label "image" ("found"/"missing"/"error"), may be nil.
func New(
	fetcher pagefetch.Fetcher,
	c *cache.Service,
	timeout time.Duration,
	outcomes *prometheus.CounterVec,
	logger *zap.Logger,
) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{fetcher: fetcher, cache: c, timeout: timeout, outcomes: outcomes, logger: logger}
}

// Get returns the preview of rawURL. Malformed URLs are domain.ErrInvalidInput.
func (s *Service) Get(ctx context.Context, rawURL string) (Preview, error) {
	u, err := pagefetch.ParseURL(strings.TrimSpace(rawURL))
	if err != nil {
		return Preview{}, err
	}
	key := "preview:" + u.String()
	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (Preview, error) {
		return s.build(ctx, u)
	})
}

// ImageURL returns the preview image of rawURL, or "" on any failure.
func (s *Service) ImageURL(ctx context.Context, rawURL string) string {
	p, err := s.Get(ctx, rawURL)
	if err != nil {
		logger.FromContextOr(ctx, s.logger).Debug("Preview image unavailable",
			zap.String("url", rawURL), zap.Error(err))
		return ""
	}
	return p.ImageURL
}

func (s *Service) build(ctx context.Context, u *url.URL) (Preview, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	page, err := s.fetcher.Fetch(ctx, u.String())
	if err != nil {
		s.inc("error")
		if errors.Is(err, domain.ErrInvalidInput) {
			return Preview{}, err
		}
		return Preview{}, fmt.Errorf("%w: fetch preview: %w", domain.ErrUpstreamUnavailable, err)
	}

	base := page.URL
	if base == nil {
		base = u
	}
	p := Preview{URL: u.String(), ImageURL: ExtractImage(page.Body, base)}

	if article, rerr := readability.FromReader(bytes.NewReader(page.Body), base); rerr == nil {
		p.Title = strings.TrimSpace(article.Title)
		p.Excerpt = truncate(strings.TrimSpace(article.Excerpt), maxExcerpt)
		p.SiteName = strings.TrimSpace(article.SiteName)
		if p.ImageURL == "" && article.Image != "" {
			p.ImageURL = resolve(article.Image, base)
		}
	}

	if p.ImageURL == "" {
		s.inc("missing")
	} else {
		s.inc("found")
	}
	return p, nil
}

func (s *Service) inc(outcome string) {
	if s.outcomes != nil {
		s.outcomes.WithLabelValues(outcome).Inc()
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
