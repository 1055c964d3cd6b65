package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/hermes/internal/model"
)

// TeamPlaceholder is assigned when a row's team cell is missing or
// unreadable.
const TeamPlaceholder = "UNK"

// Parser normalizes raw origin pages into canonical player records.
// Parsing is idempotent and row-tolerant: a malformed row degrades to
// placeholder values with a warning, it never fails the batch.
type Parser struct {
	logger *logrus.Logger
}

// NewParser creates a parser.
func NewParser(logger *logrus.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParsePlayers extracts player records from a raw page. It returns an
// error only when no stats table exists at all, which indicates origin
// layout drift rather than a bad row.
func (p *Parser) ParsePlayers(page *RawPage, statType model.StatType) ([]model.Player, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML from %s: %w", page.URL, err)
	}

	// The origin has shipped both a classed stats table and a bare one.
	table := doc.Find("table.stats-table").First()
	if table.Length() == 0 {
		table = doc.Find("table").First()
	}
	if table.Length() == 0 {
		return nil, fmt.Errorf("no stats table found in %s", page.URL)
	}

	headers := parseHeaders(table)

	var players []model.Player
	seen := make(map[string]bool)

	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		player, ok := p.parseRow(row, headers, statType, page)
		if !ok {
			return
		}
		if seen[player.PlayerID] {
			p.logger.WithFields(logrus.Fields{"player_id": player.PlayerID, "url": page.URL}).
				Warn("Duplicate player id in roster snapshot, keeping first")
			return
		}
		seen[player.PlayerID] = true
		players = append(players, *player)
	})

	p.logger.WithFields(logrus.Fields{"players": len(players), "url": page.URL}).
		Debug("Parsed player records from origin page")

	return players, nil
}

// parseHeaders reads the column names from the table head. The first
// columns are the identity fields, the rest are stat names.
func parseHeaders(table *goquery.Selection) []string {
	var headers []string
	table.Find("thead th").Each(func(i int, th *goquery.Selection) {
		headers = append(headers, strings.TrimSpace(th.Text()))
	})
	return headers
}

// parseRow normalizes a single table row. Returns false only when the
// row carries no usable identity at all.
func (p *Parser) parseRow(row *goquery.Selection, headers []string, statType model.StatType, page *RawPage) (*model.Player, bool) {
	cells := row.Find("td")
	if cells.Length() == 0 {
		return nil, false
	}

	nameIdx, teamIdx, posIdx := identityColumns(headers)

	name := strings.TrimSpace(cells.Eq(nameIdx).Text())
	playerID := playerIDFromCell(cells.Eq(nameIdx))

	if name == "" && playerID == "" {
		p.logger.WithFields(logrus.Fields{"url": page.URL, "row": row.Text()}).
			Warn("Skipping roster row with no player identity")
		return nil, false
	}

	team := TeamPlaceholder
	if teamIdx < cells.Length() {
		if raw := strings.TrimSpace(cells.Eq(teamIdx).Text()); raw != "" {
			team = model.TeamNameToCode(raw)
		}
	}
	if team == TeamPlaceholder {
		p.logger.WithFields(logrus.Fields{"player": name, "url": page.URL}).
			Warn("Roster row missing team, using placeholder")
	}

	position := model.PositionUnknown
	if posIdx < cells.Length() {
		position = model.NormalizePosition(cells.Eq(posIdx).Text())
	}

	if playerID == "" {
		playerID = slugify(name) + "-" + strings.ToLower(team)
	}
	if name == "" {
		name = playerID
	}

	stats := make(map[string]interface{})
	cells.Each(func(i int, cell *goquery.Selection) {
		if i == nameIdx || i == teamIdx || i == posIdx {
			return
		}
		statName := statColumnName(headers, i)
		stats[statName] = coerceStat(cell.Text())
	})

	return &model.Player{
		PlayerID:  playerID,
		Name:      name,
		Team:      team,
		Position:  position,
		StatType:  statType,
		Stats:     stats,
		FetchedAt: page.FetchedAt,
	}, true
}

// identityColumns locates the player/team/position columns by header
// name, falling back to the conventional 0/1/2 layout.
func identityColumns(headers []string) (nameIdx, teamIdx, posIdx int) {
	nameIdx, teamIdx, posIdx = 0, 1, 2
	for i, h := range headers {
		switch strings.ToLower(h) {
		case "player", "name":
			nameIdx = i
		case "team":
			teamIdx = i
		case "pos", "position":
			posIdx = i
		}
	}
	return nameIdx, teamIdx, posIdx
}

func statColumnName(headers []string, idx int) string {
	if idx < len(headers) && strings.TrimSpace(headers[idx]) != "" {
		return strings.TrimSpace(headers[idx])
	}
	return fmt.Sprintf("stat_%d", idx)
}

// playerIDFromCell extracts a stable id from the player cell: an
// explicit data attribute or the trailing segment of a profile link.
func playerIDFromCell(cell *goquery.Selection) string {
	if id, ok := cell.Attr("data-player-id"); ok && strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}

	link := cell.Find("a").First()
	if id, ok := link.Attr("data-player-id"); ok && strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}

	href, ok := link.Attr("href")
	if !ok {
		return ""
	}
	href = strings.TrimRight(strings.TrimSpace(href), "/")
	if href == "" {
		return ""
	}
	parts := strings.Split(href, "/")
	return parts[len(parts)-1]
}

// coerceStat applies tolerant numeric coercion: ints stay ints, decimals
// become float64, anything unreadable becomes 0.
func coerceStat(raw string) interface{} {
	text := strings.TrimSpace(raw)
	text = strings.TrimSuffix(text, "%")
	if text == "" || text == "-" || text == "--" {
		return 0
	}

	if i, err := strconv.Atoi(text); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}
	return 0
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, ".", "")
	slug = strings.ReplaceAll(slug, "'", "")
	return strings.ReplaceAll(slug, " ", "-")
}
