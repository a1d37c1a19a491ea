package arbitrage

import (
	"sort"

	"github.com/irfndi/celebrum-odds/internal/models"
)

// RankOpportunities returns a new slice ordered by profit margin, best first.
// Ties go to the event starting soonest; events without a start time sort
// after those with one. The input is not modified.
func RankOpportunities(opps []models.ArbitrageOpportunity) []models.ArbitrageOpportunity {
	ranked := make([]models.ArbitrageOpportunity, len(opps))
	copy(ranked, opps)
	sort.SliceStable(ranked, func(i, j int) bool {
		return rankLess(&ranked[i], &ranked[j])
	})
	return ranked
}

// RankPlanned orders planned opportunities the same way as RankOpportunities.
func RankPlanned(planned []models.PlannedOpportunity) []models.PlannedOpportunity {
	ranked := make([]models.PlannedOpportunity, len(planned))
	copy(ranked, planned)
	sort.SliceStable(ranked, func(i, j int) bool {
		return rankLess(&ranked[i].Opportunity, &ranked[j].Opportunity)
	})
	return ranked
}

func rankLess(a, b *models.ArbitrageOpportunity) bool {
	if a.ProfitMarginPercent != b.ProfitMarginPercent {
		return a.ProfitMarginPercent > b.ProfitMarginPercent
	}

	at, bt := a.Event.CommenceTime, b.Event.CommenceTime
	switch {
	case at != nil && bt == nil:
		return true
	case at == nil && bt != nil:
		return false
	case at != nil && bt != nil && !at.Equal(*bt):
		return at.Before(*bt)
	}

	if a.Event.ID != b.Event.ID {
		return a.Event.ID < b.Event.ID
	}
	if a.Market != b.Market {
		return a.Market < b.Market
	}
	return lineKey(a.LineKey) < lineKey(b.LineKey)
}

func lineKey(k *string) string {
	if k == nil {
		return ""
	}
	return *k
}
