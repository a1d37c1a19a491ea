package arbitrage

import (
	"time"

	"github.com/irfndi/celebrum-odds/internal/models"
)

var testObservedAt = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func quote(book, outcome string, odds float64) models.OddsQuote {
	return models.OddsQuote{
		Bookmaker:   book,
		Outcome:     outcome,
		OutcomeName: outcome,
		DecimalOdds: odds,
		ObservedAt:  testObservedAt,
	}
}

func snapshot(eventID string, quotes ...models.OddsQuote) models.MarketSnapshot {
	commence := testObservedAt.Add(24 * time.Hour)
	event := models.Event{
		ID:           eventID,
		Name:         "Lakers vs Celtics",
		League:       "nba",
		CommenceTime: &commence,
	}
	return models.NewMarketSnapshot(event, models.MarketH2H, nil, quotes)
}
