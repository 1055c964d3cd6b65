package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/fortuna/hermes/internal/errors"
	"github.com/fortuna/hermes/internal/model"
)

// scriptedFetcher fails a fixed number of times before succeeding.
type scriptedFetcher struct {
	mu       sync.Mutex
	calls    int
	failures int
}

func (f *scriptedFetcher) Fetch(ctx context.Context, query SourceQuery) (*RawPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, fmt.Errorf("%w: scripted failure %d", apperrors.ErrSourceUnavailable, f.calls)
	}
	return &RawPage{URL: query.URL("https://origin.test"), HTML: "<table></table>", FetchedAt: time.Now()}, nil
}

func (f *scriptedFetcher) Probe(ctx context.Context) error { return nil }
func (f *scriptedFetcher) Close() error                    { return nil }

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fastPolicy(maxRetries int) PolicyConfig {
	return PolicyConfig{
		MaxRetries:   maxRetries,
		RetryBackoff: time.Millisecond,
		RateLimitRPS: 1000,
		RateBurst:    1000,
	}
}

func TestPolicyFetcher_RetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{failures: 2}
	fetcher := NewPolicyFetcher(inner, fastPolicy(3), quietLogger())

	page, err := fetcher.Fetch(context.Background(), SourceQuery{Team: "NYY", StatType: model.StatTypeHitting})
	require.NoError(t, err)
	assert.NotEmpty(t, page.HTML)
	assert.Equal(t, 3, inner.callCount())
}

func TestPolicyFetcher_ExhaustedRetries(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{failures: 10}
	fetcher := NewPolicyFetcher(inner, fastPolicy(2), quietLogger())

	_, err := fetcher.Fetch(context.Background(), SourceQuery{StatType: model.StatTypeHitting})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSourceUnavailable))
	assert.Equal(t, 2, inner.callCount())
}

func TestPolicyFetcher_BreakerOpensOnRepeatedFailure(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{failures: 1000}
	fetcher := NewPolicyFetcher(inner, fastPolicy(1), quietLogger())
	query := SourceQuery{Team: "BOS", StatType: model.StatTypeHitting}

	for i := 0; i < 3; i++ {
		_, err := fetcher.Fetch(context.Background(), query)
		require.Error(t, err)
	}
	callsWhenTripped := inner.callCount()

	_, err := fetcher.Fetch(context.Background(), query)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSourceUnavailable))
	assert.Equal(t, callsWhenTripped, inner.callCount(), "an open breaker fails fast without touching the origin")
}

func TestSourceQueryURL(t *testing.T) {
	t.Parallel()

	team := SourceQuery{Team: "NYY", StatType: model.StatTypeHitting}
	assert.Equal(t, "https://origin.test/stats/hitting/team/nyy", team.URL("https://origin.test/"))

	league := SourceQuery{StatType: model.StatTypePitching}
	assert.Equal(t, "https://origin.test/stats/pitching", league.URL("https://origin.test"))
}
