package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/celebrum-odds/internal/models"
)

func TestNewMiddleDetector_Defaults(t *testing.T) {
	d := NewMiddleDetector(0, -1)
	assert.Equal(t, DefaultMiddleMinWidth, d.MinWidth)
	assert.Equal(t, DefaultMiddleMinPrice, d.MinPrice)

	d = NewMiddleDetector(1.5, 1.95)
	assert.Equal(t, 1.5, d.MinWidth)
	assert.Equal(t, 1.95, d.MinPrice)
}

func TestMiddleDetector_Detect(t *testing.T) {
	over := oddsRow("FanDuel", "Lakers vs Celtics", "totals", "Over", strPtr("220.5"), 1.95)
	over.OddsAmerican = "-105"
	under := oddsRow("DraftKings", "Lakers vs Celtics", "totals", "Under", strPtr("222"), 1.91)
	under.OddsAmerican = "-110"

	rows := []models.OddsRecord{
		over,
		under,
		// Worse over at the same line is ignored.
		oddsRow("BetMGM", "Lakers vs Celtics", "totals", "Over", strPtr("220.5"), 1.88),
		// Under below the over line can never middle.
		oddsRow("BetMGM", "Lakers vs Celtics", "totals", "Under", strPtr("219.5"), 2.00),
		// Not totals.
		oddsRow("FanDuel", "Lakers vs Celtics", "spreads", "Over", strPtr("1"), 2.00),
	}

	got := NewMiddleDetector(0, 0).Detect(rows)
	require.Len(t, got, 1)

	c := got[0]
	assert.Equal(t, "Lakers vs Celtics", c.Event)
	assert.Equal(t, models.MarketTotals, c.Market)
	assert.Equal(t, models.MiddleSide{Sportsbook: "FanDuel", Line: "220.5", OddsDecimal: 1.95, OddsAmerican: "-105"}, c.Over)
	assert.Equal(t, models.MiddleSide{Sportsbook: "DraftKings", Line: "222", OddsDecimal: 1.91, OddsAmerican: "-110"}, c.Under)
	assert.InDelta(t, 1.5, c.MiddleWidth, 1e-9)
	assert.Equal(t, testCommence, *c.CommenceTime)
	assert.Equal(t, "Totals middle candidate (not guaranteed profit).", c.Note)
}

func TestMiddleDetector_Thresholds(t *testing.T) {
	rows := []models.OddsRecord{
		oddsRow("FanDuel", "Game", "totals", "Over", strPtr("44.5"), 1.95),
		oddsRow("DraftKings", "Game", "totals", "Under", strPtr("45"), 1.95),
		oddsRow("DraftKings", "Game", "totals", "Under", strPtr("46"), 1.80),
	}

	// 45 is only half a point wide and 46 is priced too short.
	assert.Empty(t, NewMiddleDetector(1, 1.87).Detect(rows))

	got := NewMiddleDetector(0.5, 1.87).Detect(rows)
	require.Len(t, got, 1)
	assert.Equal(t, "45", got[0].Under.Line)

	got = NewMiddleDetector(0.5, 1.75).Detect(rows)
	require.Len(t, got, 2)
	assert.Equal(t, "46", got[0].Under.Line)
	assert.Equal(t, "45", got[1].Under.Line)
}

func TestMiddleDetector_SortsByWidthThenLatestStart(t *testing.T) {
	early := oddsRow("FanDuel", "Early", "totals", "Over", strPtr("200"), 1.95)
	earlyUnder := oddsRow("FanDuel", "Early", "totals", "Under", strPtr("201"), 1.95)
	late := oddsRow("FanDuel", "Late", "totals", "Over", strPtr("200"), 1.95)
	lateUnder := oddsRow("FanDuel", "Late", "totals", "Under", strPtr("201"), 1.95)
	lateStart := testCommence.Add(24 * time.Hour)
	late.CommenceTime, lateUnder.CommenceTime = &lateStart, &lateStart
	undated := oddsRow("FanDuel", "Undated", "totals", "Over", strPtr("200"), 1.95)
	undatedUnder := oddsRow("FanDuel", "Undated", "totals", "Under", strPtr("201"), 1.95)
	undated.CommenceTime, undatedUnder.CommenceTime = nil, nil
	wide := oddsRow("FanDuel", "Wide", "totals", "Over", strPtr("200"), 1.95)
	wideUnder := oddsRow("FanDuel", "Wide", "totals", "Under", strPtr("203"), 1.95)

	got := NewMiddleDetector(0, 0).Detect([]models.OddsRecord{
		undated, undatedUnder, early, earlyUnder, late, lateUnder, wide, wideUnder,
	})
	require.Len(t, got, 4)

	events := make([]string, len(got))
	for i, c := range got {
		events[i] = c.Event
	}
	assert.Equal(t, []string{"Wide", "Late", "Early", "Undated"}, events)
}

func TestMiddleDetector_NoTotals(t *testing.T) {
	got := NewMiddleDetector(0, 0).Detect([]models.OddsRecord{
		oddsRow("FanDuel", "Game", "h2h", "Home", nil, 2.0),
	})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
