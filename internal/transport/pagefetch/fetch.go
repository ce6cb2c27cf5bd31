// Package pagefetch retrieves remote pages and images: a plain HTTP client
// with a headless browser fallback for pages that block or require scripts.
package pagefetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/kailas-cloud/reformhub/internal/domain"
)

// Defaults for outbound fetches.
const (
	DefaultTimeout   = 10 * time.Second
	DefaultMaxBytes  = 10 << 20
	DefaultUserAgent = "Mozilla/5.0 (compatible; reformhub-preview/1.0; +https://reformhub.org)"
)

// ErrBlocked signals a response that a browser might get past (403, 429, 503).
var ErrBlocked = errors.New("fetch blocked")

// Page is a fetched document.
type Page struct {
	// URL is the final URL after redirects.
	URL         *url.URL
	Status      int
	ContentType string
	Body        []byte
}

// Fetcher retrieves a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// HTTPConfig tunes the plain HTTP fetcher.
type HTTPConfig struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
	// RatePerSecond limits outbound requests across all callers; 0 disables limiting.
	RatePerSecond float64
	Burst         int
}

// HTTPFetcher fetches with net/http under a shared rate limit.
type HTTPFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	maxBytes  int64
	userAgent string
}

// NewHTTPFetcher creates a plain fetcher.
func NewHTTPFetcher(cfg HTTPConfig) *HTTPFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		burst := max(cfg.Burst, 1)
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   limiter,
		maxBytes:  cfg.MaxBytes,
		userAgent: cfg.UserAgent,
	}
}

// Fetch GETs rawURL. Non-2xx responses are errors; 403/429/503 wrap ErrBlocked.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return Page{}, err
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return Page{}, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return Page{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,image/*;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("%w: get %s: %w", domain.ErrUpstreamUnavailable, u.Host, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusServiceUnavailable:
		return Page{}, fmt.Errorf("%w: %s returned %d", ErrBlocked, u.Host, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Page{}, fmt.Errorf("%w: %s returned %d", domain.ErrUpstreamUnavailable, u.Host, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Page{}, fmt.Errorf("%w: read %s: %w", domain.ErrUpstreamUnavailable, u.Host, err)
	}
	if int64(len(body)) > f.maxBytes {
		return Page{}, fmt.Errorf("%w: response exceeds %d bytes", domain.ErrInvalidInput, f.maxBytes)
	}

	return Page{
		URL:         resp.Request.URL,
		Status:      resp.StatusCode,
		ContentType: mediaType(resp.Header.Get("Content-Type")),
		Body:        body,
	}, nil
}

// ParseURL accepts only absolute http(s) URLs with a host.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, domain.NewFieldError("url", "malformed URL")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, domain.NewFieldError("url", "must be an absolute http or https URL")
	}
	return u, nil
}

func mediaType(header string) string {
	if header == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return mt
}
