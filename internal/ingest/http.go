package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/fortuna/hermes/internal/errors"
)

// HTTPFetcher retrieves origin pages with a plain GET. It works against
// origins that serve server-rendered HTML and avoids the cost of a
// browser session.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a plain-HTTP fetcher with the given request
// timeout.
func NewHTTPFetcher(baseURL string, timeout time.Duration, logger *logrus.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Fetch issues a GET for the page described by query.
func (f *HTTPFetcher) Fetch(ctx context.Context, query SourceQuery) (*RawPage, error) {
	url := query.URL(f.baseURL)
	f.logger.WithFields(logrus.Fields{"query": query.String(), "url": url}).Debug("Fetching origin page via HTTP")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request for %s: %v", apperrors.ErrSourceUnavailable, query.String(), err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", apperrors.ErrSourceUnavailable, query.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: origin returned %d for %s", apperrors.ErrSourceUnavailable, resp.StatusCode, query.String())
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body for %s: %v", apperrors.ErrSourceUnavailable, query.String(), err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body for %s", apperrors.ErrSourceUnavailable, query.String())
	}

	return &RawPage{URL: url, HTML: string(body), FetchedAt: time.Now()}, nil
}

// Probe checks origin reachability with a HEAD request.
func (f *HTTPFetcher) Probe(ctx context.Context) error {
	return probeOrigin(ctx, f.baseURL)
}

// Close is a no-op for the HTTP fetcher.
func (f *HTTPFetcher) Close() error {
	return nil
}
