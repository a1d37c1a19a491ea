package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/celebrum-odds/internal/models"
)

var (
	testNow      = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	testCommence = testNow.Add(48 * time.Hour)
)

func strPtr(s string) *string { return &s }

// oddsRow builds a stored row for an NBA game two days out.
func oddsRow(book, event, market, outcome string, line *string, price float64) models.OddsRecord {
	commence := testCommence
	return models.OddsRecord{
		Sportsbook:   book,
		League:       "NBA",
		Event:        event,
		Market:       market,
		Outcome:      outcome,
		Line:         line,
		OddsDecimal:  price,
		CommenceTime: &commence,
		LastUpdated:  testNow.Add(-time.Minute),
	}
}

func TestRowFilter_Apply(t *testing.T) {
	soon := testNow.Add(30 * time.Minute)

	fresh := oddsRow("FanDuel", "Lakers vs Celtics", "h2h", "Lakers", nil, 2.1)
	otherBook := oddsRow("DraftKings", "Lakers vs Celtics", "h2h", "Celtics", nil, 2.05)
	noStart := oddsRow("FanDuel", "TBD", "h2h", "Lakers", nil, 2.1)
	noStart.CommenceTime = nil
	startsSoon := oddsRow("FanDuel", "Soon", "h2h", "Lakers", nil, 2.1)
	startsSoon.CommenceTime = &soon
	stale := oddsRow("FanDuel", "Stale", "h2h", "Lakers", nil, 2.1)
	stale.LastUpdated = testNow.Add(-2 * time.Hour)
	nfl := oddsRow("FanDuel", "Jets vs Bills", "h2h", "Jets", nil, 2.1)
	nfl.League = "NFL"
	totals := oddsRow("FanDuel", "Lakers vs Celtics", "Totals", "Over", strPtr("220.5"), 1.9)

	rows := []models.OddsRecord{fresh, otherBook, noStart, startsSoon, stale, nfl, totals}

	t.Run("time window and age", func(t *testing.T) {
		got := RowFilter{MinHoursAhead: 1, MaxQuoteAge: time.Hour, Now: testNow}.Apply(rows)
		assert.Equal(t, []models.OddsRecord{fresh, otherBook, nfl, totals}, got)
	})

	t.Run("no age limit keeps stale rows", func(t *testing.T) {
		got := RowFilter{Now: testNow}.Apply(rows)
		assert.Len(t, got, 6)
		assert.Contains(t, got, stale)
		assert.Contains(t, got, startsSoon)
	})

	t.Run("leagues and markets ignore case", func(t *testing.T) {
		got := RowFilter{Leagues: []string{" nba "}, Markets: []string{"TOTALS"}, Now: testNow}.Apply(rows)
		assert.Equal(t, []models.OddsRecord{totals}, got)
	})

	t.Run("sportsbooks match exactly", func(t *testing.T) {
		got := RowFilter{Sportsbooks: []string{"DraftKings"}, Now: testNow}.Apply(rows)
		assert.Equal(t, []models.OddsRecord{otherBook}, got)

		got = RowFilter{Sportsbooks: []string{"draftkings"}, Now: testNow}.Apply(rows)
		assert.Empty(t, got)
	})

	t.Run("blank filter values match everything", func(t *testing.T) {
		got := RowFilter{Leagues: []string{"", " "}, Now: testNow}.Apply(rows)
		assert.Len(t, got, 6)
	})
}

func TestBuildSnapshots_H2H(t *testing.T) {
	rows := []models.OddsRecord{
		oddsRow("FanDuel", "Lakers vs Celtics", "h2h", "Lakers", nil, 2.10),
		oddsRow("FanDuel", "Lakers vs Celtics", "h2h", "Celtics", nil, 1.80),
		oddsRow("DraftKings", "Lakers vs Celtics", "H2H", "Celtics", nil, 2.05),
		oddsRow("DraftKings", "Lakers vs Celtics", "h2h", "Lakers", nil, 1.85),
	}

	snapshots := BuildSnapshots(rows)
	require.Len(t, snapshots, 1)

	s := snapshots[0]
	assert.Equal(t, "Lakers vs Celtics", s.Event.ID)
	assert.Equal(t, "Lakers vs Celtics", s.Event.Name)
	assert.Equal(t, "nba", s.Event.League)
	assert.Equal(t, testCommence, *s.Event.CommenceTime)
	assert.Equal(t, models.MarketH2H, s.Market)
	assert.Nil(t, s.LineKey)
	require.Len(t, s.Outcomes, 2)
	assert.Equal(t, "Lakers", s.Outcomes[0].Outcome)
	assert.Equal(t, "Celtics", s.Outcomes[1].Outcome)
	assert.Len(t, s.Outcomes[0].Quotes, 2)
	assert.Len(t, s.Outcomes[1].Quotes, 2)
	assert.Equal(t, testNow.Add(-time.Minute), s.Outcomes[0].Quotes[0].ObservedAt)
}

func TestBuildSnapshots_SpreadsPairOppositeSides(t *testing.T) {
	rows := []models.OddsRecord{
		oddsRow("FanDuel", "Lakers vs Celtics", "spreads", "Lakers", strPtr("-2.5"), 1.95),
		oddsRow("DraftKings", "Lakers vs Celtics", "spreads", "Celtics", strPtr("+2.5"), 2.08),
		oddsRow("FanDuel", "Lakers vs Celtics", "spreads", "Lakers", strPtr("-3.5"), 2.05),
		oddsRow("BetMGM", "Lakers vs Celtics", "spreads", "Celtics", strPtr("3.50"), 1.90),
	}

	snapshots := BuildSnapshots(rows)
	require.Len(t, snapshots, 2)

	first := snapshots[0]
	require.NotNil(t, first.LineKey)
	assert.Equal(t, "2.5", *first.LineKey)
	require.Len(t, first.Outcomes, 2)
	assert.Equal(t, SpreadSideMinus, first.Outcomes[0].Outcome)
	assert.Equal(t, "Lakers", first.Outcomes[0].Quotes[0].OutcomeName)
	assert.Equal(t, -2.5, *first.Outcomes[0].Quotes[0].Line)
	assert.Equal(t, SpreadSidePlus, first.Outcomes[1].Outcome)
	assert.Equal(t, "Celtics", first.Outcomes[1].Quotes[0].OutcomeName)

	second := snapshots[1]
	require.NotNil(t, second.LineKey)
	assert.Equal(t, "3.5", *second.LineKey)
	assert.Len(t, second.Outcomes, 2)
}

func TestBuildSnapshots_TotalsKeepLineAsStored(t *testing.T) {
	rows := []models.OddsRecord{
		oddsRow("FanDuel", "Lakers vs Celtics", "totals", "Over", strPtr("220.5"), 1.95),
		oddsRow("DraftKings", "Lakers vs Celtics", "totals", "Under", strPtr(" 220.5 "), 1.95),
		oddsRow("DraftKings", "Lakers vs Celtics", "totals", "Under", strPtr("221"), 1.90),
		oddsRow("DraftKings", "Lakers vs Celtics", "totals", "Over", strPtr(""), 1.90),
	}

	snapshots := BuildSnapshots(rows)
	require.Len(t, snapshots, 3)
	assert.Equal(t, "220.5", *snapshots[0].LineKey)
	assert.Len(t, snapshots[0].Outcomes, 2)
	assert.Equal(t, "221", *snapshots[1].LineKey)
	assert.Nil(t, snapshots[2].LineKey)

	// Totals outcomes are not collapsed to a side.
	assert.Equal(t, "Over", snapshots[0].Outcomes[0].Outcome)
	assert.Empty(t, snapshots[0].Outcomes[0].Quotes[0].OutcomeName)
}

func TestBuildSnapshots_SkipsUnpriceableRows(t *testing.T) {
	rows := []models.OddsRecord{
		oddsRow("FanDuel", "Lakers vs Celtics", "h2h", "Lakers", nil, 1.0),
		oddsRow("FanDuel", "Lakers vs Celtics", "h2h", "Celtics", nil, 0),
	}
	assert.Empty(t, BuildSnapshots(rows))
	assert.NotNil(t, BuildSnapshots(nil))
}

func TestSnapshotLineKey(t *testing.T) {
	tests := []struct {
		market string
		line   *string
		want   *string
	}{
		{models.MarketH2H, strPtr("1.5"), nil},
		{models.MarketSpreads, nil, nil},
		{models.MarketSpreads, strPtr("-7"), strPtr("7")},
		{models.MarketSpreads, strPtr("+0.0"), strPtr("0")},
		{models.MarketSpreads, strPtr("-1.2504"), strPtr("1.25")},
		{models.MarketSpreads, strPtr("pk"), strPtr("pk")},
		{models.MarketTotals, strPtr(" 44.5"), strPtr("44.5")},
		{models.MarketTotals, strPtr("  "), nil},
	}
	for _, tt := range tests {
		got := snapshotLineKey(tt.market, tt.line)
		if tt.want == nil {
			assert.Nil(t, got, "%s %v", tt.market, tt.line)
			continue
		}
		require.NotNil(t, got, "%s %v", tt.market, *tt.line)
		assert.Equal(t, *tt.want, *got)
	}
}
