package arbitrage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/irfndi/celebrum-odds/internal/models"
)

func rankedOpp(id string, margin float64, commence *time.Time) models.ArbitrageOpportunity {
	return models.ArbitrageOpportunity{
		ID:                  id,
		Event:               models.Event{ID: id, CommenceTime: commence},
		Market:              models.MarketH2H,
		ProfitMarginPercent: margin,
	}
}

func TestRankOpportunities(t *testing.T) {
	early := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	late := early.Add(3 * time.Hour)

	input := []models.ArbitrageOpportunity{
		rankedOpp("low", 1.2, &early),
		rankedOpp("tie-unknown", 3.0, nil),
		rankedOpp("tie-late", 3.0, &late),
		rankedOpp("high", 5.26, &late),
		rankedOpp("tie-early", 3.0, &early),
	}
	original := make([]models.ArbitrageOpportunity, len(input))
	copy(original, input)

	ranked := RankOpportunities(input)

	ids := make([]string, len(ranked))
	for i, o := range ranked {
		ids[i] = o.ID
	}
	assert.Equal(t, []string{"high", "tie-early", "tie-late", "tie-unknown", "low"}, ids)
	assert.Equal(t, original, input, "input must not be reordered")
}

func TestRankOpportunities_StableOnFullTie(t *testing.T) {
	kick := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	spreadLine := "3.5"
	totalLine := "210.5"

	a := rankedOpp("evt-2", 2.0, &kick)
	b := rankedOpp("evt-1", 2.0, &kick)
	c := rankedOpp("evt-1", 2.0, &kick)
	c.Market = models.MarketTotals
	c.LineKey = &totalLine
	d := rankedOpp("evt-1", 2.0, &kick)
	d.Market = models.MarketSpreads
	d.LineKey = &spreadLine

	ranked := RankOpportunities([]models.ArbitrageOpportunity{a, c, d, b})
	assert.Equal(t, "evt-1", ranked[0].Event.ID)
	assert.Equal(t, models.MarketH2H, ranked[0].Market)
	assert.Equal(t, models.MarketSpreads, ranked[1].Market)
	assert.Equal(t, models.MarketTotals, ranked[2].Market)
	assert.Equal(t, "evt-2", ranked[3].Event.ID)
}

func TestRankPlanned(t *testing.T) {
	kick := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	planned := []models.PlannedOpportunity{
		{Opportunity: rankedOpp("b", 1.0, &kick)},
		{Opportunity: rankedOpp("a", 4.0, &kick)},
	}

	ranked := RankPlanned(planned)
	assert.Equal(t, "a", ranked[0].Opportunity.ID)
	assert.Equal(t, "b", ranked[1].Opportunity.ID)
	assert.Equal(t, "b", planned[0].Opportunity.ID)
}

func TestRankOpportunities_Empty(t *testing.T) {
	assert.Empty(t, RankOpportunities(nil))
}
