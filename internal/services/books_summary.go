package services

import (
	"strings"

	"github.com/irfndi/celebrum-odds/internal/models"
)

type priceKey struct {
	event   string
	market  string
	line    string
	hasLine bool
	outcome string
}

// SummarizeBooks reports, per sportsbook, how often it holds the best price
// for an (event, market, line, outcome) and the average decimal it offers.
// The first row wins ties on price.
func SummarizeBooks(rows []models.OddsRecord) map[string]models.BookSummary {
	best := make(map[priceKey]models.OddsRecord)
	var order []priceKey

	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, r := range rows {
		key := priceKey{event: r.Event, market: strings.ToLower(r.Market), outcome: r.Outcome}
		if l := coerceLine(r.Line); l != nil {
			key.line, key.hasLine = *l, true
		}
		if prev, ok := best[key]; !ok {
			order = append(order, key)
			best[key] = r
		} else if r.OddsDecimal > prev.OddsDecimal {
			best[key] = r
		}

		if r.Sportsbook != "" {
			sums[r.Sportsbook] += r.OddsDecimal
			counts[r.Sportsbook]++
		}
	}

	summary := make(map[string]models.BookSummary)
	for _, key := range order {
		book := best[key].Sportsbook
		if book == "" {
			continue
		}
		s := summary[book]
		s.BestPriceCount++
		summary[book] = s
	}
	for book, n := range counts {
		avg := sums[book] / float64(n)
		s := summary[book]
		s.AvgOfferedDecimal = &avg
		summary[book] = s
	}
	return summary
}
