package ingest

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/hermes/internal/model"
)

const rosterFixture = `<html><body>
<table class="stats-table">
<thead><tr><th>Player</th><th>Team</th><th>Pos</th><th>AVG</th><th>HR</th><th>RBI</th></tr></thead>
<tbody>
<tr><td><a href="/player/aaron-judge-592450">Aaron Judge</a></td><td>New York Yankees</td><td>RF</td><td>.311</td><td>58</td><td>144</td></tr>
<tr><td><a href="/player/juan-soto-665742">Juan Soto</a></td><td>NYY</td><td>Outfield</td><td>.288</td><td>41</td><td>109</td></tr>
<tr><td>Anthony Volpe</td><td></td><td>ss</td><td>.243</td><td>n/a</td><td>60</td></tr>
</tbody>
</table>
</body></html>`

const corruptRowFixture = `<html><body>
<table class="stats-table">
<thead><tr><th>Player</th><th>Team</th><th>Pos</th><th>HR</th></tr></thead>
<tbody>
<tr><td><a href="/player/aaron-judge-592450">Aaron Judge</a></td><td>NYY</td><td>RF</td><td>58</td></tr>
<tr><td></td><td></td><td></td><td>99</td></tr>
<tr><td><a href="/player/gerrit-cole-543037">Gerrit Cole</a></td><td>NYY</td><td>SP</td><td>0</td></tr>
</tbody>
</table>
</body></html>`

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func fixturePage(html string) *RawPage {
	return &RawPage{URL: "https://origin.test/stats/hitting", HTML: html, FetchedAt: time.Now()}
}

func TestParsePlayers(t *testing.T) {
	t.Parallel()

	parser := NewParser(quietLogger())
	players, err := parser.ParsePlayers(fixturePage(rosterFixture), model.StatTypeHitting)
	require.NoError(t, err)
	require.Len(t, players, 3)

	judge := players[0]
	assert.Equal(t, "aaron-judge-592450", judge.PlayerID)
	assert.Equal(t, "Aaron Judge", judge.Name)
	assert.Equal(t, "NYY", judge.Team)
	assert.Equal(t, "RF", judge.Position)
	assert.Equal(t, model.StatTypeHitting, judge.StatType)
	assert.Equal(t, 0.311, judge.Stats["AVG"])
	assert.Equal(t, 58, judge.Stats["HR"])
	assert.Equal(t, 144, judge.Stats["RBI"])

	soto := players[1]
	assert.Equal(t, "NYY", soto.Team)
	assert.Equal(t, "OF", soto.Position, "origin position names normalize to the canonical set")

	volpe := players[2]
	assert.Equal(t, "anthony-volpe-unk", volpe.PlayerID, "rows without a profile link derive a stable slug id")
	assert.Equal(t, TeamPlaceholder, volpe.Team, "missing team degrades to a placeholder, not an error")
	assert.Equal(t, "SS", volpe.Position)
	assert.Equal(t, 0, volpe.Stats["HR"], "unreadable numeric text coerces to 0")
}

func TestParsePlayers_Idempotent(t *testing.T) {
	t.Parallel()

	parser := NewParser(quietLogger())
	page := fixturePage(rosterFixture)

	first, err := parser.ParsePlayers(page, model.StatTypeHitting)
	require.NoError(t, err)
	second, err := parser.ParsePlayers(page, model.StatTypeHitting)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParsePlayers_CorruptRowDoesNotFailBatch(t *testing.T) {
	t.Parallel()

	parser := NewParser(quietLogger())
	players, err := parser.ParsePlayers(fixturePage(corruptRowFixture), model.StatTypeHitting)
	require.NoError(t, err)

	require.Len(t, players, 2, "the identityless row is dropped, the rest of the batch survives")
	assert.Equal(t, "aaron-judge-592450", players[0].PlayerID)
	assert.Equal(t, "gerrit-cole-543037", players[1].PlayerID)
	assert.Equal(t, "P", players[1].Position)
}

func TestParsePlayers_DuplicateIDsKeepFirst(t *testing.T) {
	t.Parallel()

	const dupFixture = `<table class="stats-table">
<thead><tr><th>Player</th><th>Team</th><th>Pos</th><th>HR</th></tr></thead>
<tbody>
<tr><td><a href="/player/p1">Aaron Judge</a></td><td>NYY</td><td>RF</td><td>58</td></tr>
<tr><td><a href="/player/p1">Aaron Judge</a></td><td>NYY</td><td>RF</td><td>59</td></tr>
</tbody>
</table>`

	parser := NewParser(quietLogger())
	players, err := parser.ParsePlayers(fixturePage(dupFixture), model.StatTypeHitting)
	require.NoError(t, err)

	require.Len(t, players, 1)
	assert.Equal(t, 58, players[0].Stats["HR"])
}

func TestParsePlayers_BareTableFallback(t *testing.T) {
	t.Parallel()

	const bareFixture = `<table>
<tbody>
<tr><td><a href="/player/p9">Shohei Ohtani</a></td><td>LAD</td><td>DH</td><td>54</td></tr>
</tbody>
</table>`

	parser := NewParser(quietLogger())
	players, err := parser.ParsePlayers(fixturePage(bareFixture), model.StatTypeHitting)
	require.NoError(t, err)

	require.Len(t, players, 1)
	assert.Equal(t, "Shohei Ohtani", players[0].Name)
	assert.Equal(t, "DH", players[0].Position)
	assert.Equal(t, 54, players[0].Stats["stat_3"], "columns without headers get positional stat names")
}

func TestParsePlayers_NoTableIsAnError(t *testing.T) {
	t.Parallel()

	parser := NewParser(quietLogger())
	_, err := parser.ParsePlayers(fixturePage("<html><body><p>redesigned page</p></body></html>"), model.StatTypeHitting)
	assert.Error(t, err, "a page without any table means origin layout drift")
}

func TestCoerceStat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 58, coerceStat("58"))
	assert.Equal(t, 0.311, coerceStat(".311"))
	assert.Equal(t, 2.85, coerceStat(" 2.85 "))
	assert.Equal(t, 45.5, coerceStat("45.5%"))
	assert.Equal(t, 0, coerceStat(""))
	assert.Equal(t, 0, coerceStat("-"))
	assert.Equal(t, 0, coerceStat("n/a"))
}
