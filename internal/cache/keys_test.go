package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fortuna/hermes/internal/model"
)

func TestLogicalKeysNormalizeParameters(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "team:NYY:hitting", TeamKey("nyy", model.StatTypeHitting))
	assert.Equal(t, "league:pitching", LeagueKey(model.StatTypePitching))
	assert.Equal(t, "search:judge:hitting", SearchKey("  Judge ", model.StatTypeHitting))
	assert.Equal(t, "position:SS:hitting", PositionKey(" ss", model.StatTypeHitting))
}

func TestEquivalentQueriesShareAKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TeamKey("NYY", model.StatTypeHitting), TeamKey("nyy", model.StatTypeHitting))
	assert.Equal(t, SearchKey("JUDGE", model.StatTypeHitting), SearchKey("judge", model.StatTypeHitting))
	assert.NotEqual(t, TeamKey("NYY", model.StatTypeHitting), TeamKey("NYY", model.StatTypePitching))
}
