package pagefetch

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/kailas-cloud/reformhub/internal/domain"
)

// BrowserFetcher renders pages in a remote headless Chrome reached over the
// DevTools websocket, e.g. a browserless container.
type BrowserFetcher struct {
	wsURL   string
	timeout time.Duration
}

// NewBrowserFetcher creates a fetcher for the DevTools endpoint wsURL.
func NewBrowserFetcher(wsURL string, timeout time.Duration) *BrowserFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &BrowserFetcher{wsURL: wsURL, timeout: timeout}
}

// Fetch navigates to rawURL and returns the rendered document.
func (b *BrowserFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return Page{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, b.wsURL)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	var html, final string
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(u.String()),
		chromedp.WaitReady("head", chromedp.ByQuery),
		chromedp.Location(&final),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return Page{}, fmt.Errorf("%w: render %s: %w", domain.ErrUpstreamUnavailable, u.Host, err)
	}

	finalURL := u
	if parsed, perr := url.Parse(final); perr == nil && parsed.Host != "" {
		finalURL = parsed
	}
	return Page{URL: finalURL, Status: 200, ContentType: "text/html", Body: []byte(html)}, nil
}
