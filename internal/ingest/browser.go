package ingest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	apperrors "github.com/fortuna/hermes/internal/errors"
)

const (
	// UserAgent for browser sessions
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// renderSettle gives client-side scripts time to populate the stats
	// table after it becomes visible.
	renderSettle = 1 * time.Second
)

// BrowserFetcher retrieves origin pages through a headless Chrome
// session so script-rendered content is present in the returned HTML.
type BrowserFetcher struct {
	baseURL string
	timeout time.Duration
	logger  *logrus.Logger

	allocCtx context.Context
	cancel   context.CancelFunc
}

var _ Fetcher = (*BrowserFetcher)(nil)

// NewBrowserFetcher creates a headless browser fetcher. The allocator is
// shared; each Fetch gets its own browser context.
func NewBrowserFetcher(baseURL string, timeout time.Duration, logger *logrus.Logger) (*BrowserFetcher, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserFetcher{
		baseURL:  baseURL,
		timeout:  timeout,
		logger:   logger,
		allocCtx: allocCtx,
		cancel:   cancel,
	}, nil
}

// Fetch navigates to the page for query, waits for the stats table to
// render and returns the full document HTML.
func (f *BrowserFetcher) Fetch(ctx context.Context, query SourceQuery) (*RawPage, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	browserCtx, cancelBrowser := chromedp.NewContext(f.allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, f.timeout)
	defer cancelTimeout()

	url := query.URL(f.baseURL)
	f.logger.WithFields(logrus.Fields{"query": query.String(), "url": url}).Debug("Fetching origin page via browser")

	done := make(chan struct{})
	var htmlContent string
	var runErr error

	go func() {
		defer close(done)
		runErr = chromedp.Run(browserCtx,
			chromedp.Navigate(url),
			chromedp.WaitVisible(`table`, chromedp.ByQuery),
			chromedp.Sleep(renderSettle),
			chromedp.OuterHTML(`html`, &htmlContent, chromedp.ByQuery),
		)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: fetch %s timed out: %v", apperrors.ErrSourceUnavailable, query.String(), ctx.Err())
	case <-done:
	}

	if runErr != nil {
		return nil, fmt.Errorf("%w: chromedp error for %s: %v", apperrors.ErrSourceUnavailable, query.String(), runErr)
	}
	if htmlContent == "" {
		return nil, fmt.Errorf("%w: empty HTML content for %s", apperrors.ErrSourceUnavailable, query.String())
	}

	return &RawPage{URL: url, HTML: htmlContent, FetchedAt: time.Now()}, nil
}

// Probe checks origin reachability with a plain HEAD request; spinning
// up a browser session is too heavy for a liveness signal.
func (f *BrowserFetcher) Probe(ctx context.Context) error {
	return probeOrigin(ctx, f.baseURL)
}

// Close releases the browser allocator.
func (f *BrowserFetcher) Close() error {
	if f.cancel != nil {
		f.cancel()
	}
	return nil
}

func probeOrigin(ctx context.Context, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, baseURL, nil)
	if err != nil {
		return fmt.Errorf("%w: building probe request: %v", apperrors.ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: origin probe failed: %v", apperrors.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: origin probe returned %d", apperrors.ErrSourceUnavailable, resp.StatusCode)
	}
	return nil
}
