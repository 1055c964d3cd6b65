package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fortuna/hermes/internal/model"
)

// SourceQuery describes one origin page to retrieve: either a single
// team's stats page or the league-wide stats page for a stat type.
type SourceQuery struct {
	Team     string // empty for the league-wide page
	StatType model.StatType
}

// URL builds the origin URL for this query against baseURL.
func (q SourceQuery) URL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if q.Team == "" {
		return fmt.Sprintf("%s/stats/%s", base, q.StatType)
	}
	return fmt.Sprintf("%s/stats/%s/team/%s", base, q.StatType, strings.ToLower(q.Team))
}

// String is used in logs and breaker/limiter bookkeeping.
func (q SourceQuery) String() string {
	if q.Team == "" {
		return fmt.Sprintf("league/%s", q.StatType)
	}
	return fmt.Sprintf("team/%s/%s", q.Team, q.StatType)
}

// RawPage is the rendered HTML of one origin page.
type RawPage struct {
	URL       string
	HTML      string
	FetchedAt time.Time
}

// Fetcher retrieves one origin page. Implementations enforce a request
// timeout and report transport failures as ErrSourceUnavailable; they
// never return partial content.
//
// Two variants exist: BrowserFetcher drives a headless browser so
// script-rendered tables are present, HTTPFetcher issues a plain GET for
// origins that serve server-rendered HTML. Selection is a configuration
// concern; callers depend only on this interface.
type Fetcher interface {
	Fetch(ctx context.Context, query SourceQuery) (*RawPage, error)
	Probe(ctx context.Context) error
	Close() error
}
