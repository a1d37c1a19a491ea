package oddsapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(v float64) *float64 { return &v }

func TestSelectSports(t *testing.T) {
	sports := []Sport{
		{Key: "soccer_epl"},
		{Key: "golf_masters_tournament_winner"},
		{Key: "baseball_mlb"},
		{Key: "icehockey_nhl"},
	}

	keys := SelectSports(sports, []string{"baseball_mlb", "soccer_epl", "golf_masters_tournament_winner"})
	assert.Equal(t, []string{"soccer_epl", "baseball_mlb"}, keys)
	assert.Empty(t, SelectSports(sports, nil))
}

func TestNormalizePayload(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	events := []Event{{
		ID:           "e1",
		SportKey:     "basketball_nba",
		SportTitle:   "NBA",
		CommenceTime: "2026-03-15T00:30:00Z",
		HomeTeam:     "Lakers",
		AwayTeam:     "Celtics",
		Bookmakers: []Bookmaker{
			{
				Key:        "fanduel",
				Title:      "FanDuel",
				LastUpdate: "2026-03-14T12:00:00Z",
				Markets: []Market{
					{Key: "H2H", Outcomes: []Outcome{
						{Name: "Lakers", Price: 2.5},
						{Name: "Celtics", Price: 1.5},
					}},
					{Key: "spreads", Outcomes: []Outcome{
						{Name: "Lakers", Price: 1.91, Point: point(4.5)},
						{Name: "Celtics", Price: 1.91, Point: point(-4.5)},
					}},
					{Key: "h2h_lay", Outcomes: []Outcome{{Name: "Lakers", Price: 2.6}}},
				},
			},
			{
				Key:     "betfair_ex_us",
				Title:   "Betfair",
				Markets: []Market{{Key: "h2h", Outcomes: []Outcome{{Name: "Lakers", Price: 2.7}}}},
			},
			{
				Key:   "draftkings",
				Title: "DraftKings",
				Markets: []Market{{Key: "totals", Outcomes: []Outcome{
					{Name: "Over", Price: 1.0, Point: point(221)},
					{Name: "Under", Price: 1.95, Point: point(221)},
				}}},
			},
		},
	}}

	rows := NormalizePayload(events, []string{"FanDuel", "DraftKings"}, now)
	require.Len(t, rows, 5)

	first := rows[0]
	assert.Equal(t, "FanDuel", first.Sportsbook)
	assert.Equal(t, "nba", first.League)
	assert.Equal(t, "Lakers vs Celtics", first.Event)
	assert.Equal(t, "h2h", first.Market)
	assert.Equal(t, "Lakers", first.Outcome)
	assert.Nil(t, first.Line)
	assert.Equal(t, 2.5, first.OddsDecimal)
	assert.Equal(t, "+150", first.OddsAmerican)
	require.NotNil(t, first.CommenceTime)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 30, 0, 0, time.UTC), *first.CommenceTime)
	require.NotNil(t, first.EventDate)
	assert.Equal(t, "2026-03-15", *first.EventDate)
	assert.Equal(t, time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), first.LastUpdated)

	assert.Equal(t, "-200", rows[1].OddsAmerican)

	spread := rows[3]
	assert.Equal(t, "spreads", spread.Market)
	require.NotNil(t, spread.Line)
	assert.Equal(t, "-4.5", *spread.Line)

	total := rows[4]
	assert.Equal(t, "DraftKings", total.Sportsbook)
	assert.Equal(t, "Under", total.Outcome, "price of 1.0 is dropped")
	assert.Equal(t, "221", *total.Line)
	assert.Equal(t, now, total.LastUpdated)
}

func TestNormalizePayload_NoAllowlistAndMissingTime(t *testing.T) {
	events := []Event{{
		SportKey: "soccer_epl",
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		Bookmakers: []Bookmaker{{
			Key:     "pinnacle",
			Markets: []Market{{Key: "h2h", Outcomes: []Outcome{{Name: "Draw", Price: 3.4}}}},
		}},
	}}

	rows := NormalizePayload(events, nil, time.Now())
	require.Len(t, rows, 1)
	assert.Equal(t, "pinnacle", rows[0].Sportsbook)
	assert.Equal(t, "soccer_epl", rows[0].League)
	assert.Nil(t, rows[0].CommenceTime)
	assert.Nil(t, rows[0].EventDate)
}
