package arbitrage

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/irfndi/celebrum-odds/internal/models"
)

// Epsilon guards probability comparisons at the 1.0 boundary.
const Epsilon = 1e-9

// opportunityNamespace seeds deterministic opportunity IDs.
var opportunityNamespace = uuid.MustParse("7b0f3c56-93d4-4c1e-9a0e-5d0c2f6b8a41")

// DetectArbitrage evaluates a best price set. It returns false when the
// summed implied probability does not fall below 1 - Epsilon.
func DetectArbitrage(set models.BestPriceSet) (*models.ArbitrageOpportunity, bool) {
	if len(set.Prices) < 2 {
		return nil, false
	}

	legs := make([]models.ArbitrageLeg, 0, len(set.Prices))
	total := 0.0
	quotedAt := set.Prices[0].ObservedAt

	for _, p := range set.Prices {
		if ValidateDecimal(p.DecimalOdds) != nil {
			return nil, false
		}
		implied := 1 / p.DecimalOdds
		total += implied
		if p.ObservedAt.After(quotedAt) {
			quotedAt = p.ObservedAt
		}
		legs = append(legs, models.ArbitrageLeg{
			Outcome:            p.Outcome,
			OutcomeName:        p.OutcomeName,
			Line:               p.Line,
			Bookmaker:          p.Bookmaker,
			DecimalOdds:        p.DecimalOdds,
			ImpliedProbability: implied,
		})
	}

	if total >= 1-Epsilon {
		return nil, false
	}

	return &models.ArbitrageOpportunity{
		ID:                      opportunityID(set, legs),
		Event:                   set.Event,
		Market:                  set.Market,
		LineKey:                 set.LineKey,
		Legs:                    legs,
		TotalImpliedProbability: total,
		ProfitMarginPercent:     ProfitMarginPercent(total),
		QuotedAt:                quotedAt,
	}, true
}

// DetectOpportunity selects the best price per outcome and checks it for
// arbitrage. A snapshot without arbitrage returns (nil, false, nil).
func DetectOpportunity(snapshot models.MarketSnapshot) (*models.ArbitrageOpportunity, bool, error) {
	set, err := SelectBestPrices(snapshot)
	if err != nil {
		return nil, false, err
	}
	opp, ok := DetectArbitrage(set)
	return opp, ok, nil
}

// ProfitMarginPercent converts a total implied probability into the return on
// the total stake, in percent.
func ProfitMarginPercent(totalImplied float64) float64 {
	if totalImplied <= 0 {
		return 0
	}
	return (1 - totalImplied) / totalImplied * 100
}

func opportunityID(set models.BestPriceSet, legs []models.ArbitrageLeg) string {
	var b strings.Builder
	b.WriteString(set.Event.ID)
	b.WriteByte('|')
	b.WriteString(set.Market)
	b.WriteByte('|')
	if set.LineKey != nil {
		b.WriteString(*set.LineKey)
	}
	for _, leg := range legs {
		b.WriteByte('|')
		b.WriteString(leg.Outcome)
		b.WriteByte(':')
		b.WriteString(leg.Bookmaker)
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(leg.DecimalOdds, 'g', -1, 64))
	}
	return uuid.NewSHA1(opportunityNamespace, []byte(b.String())).String()
}
