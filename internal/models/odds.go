package models

import (
	"time"
)

// Market keys used by the odds provider.
const (
	MarketH2H     = "h2h"
	MarketSpreads = "spreads"
	MarketTotals  = "totals"
)

// OddsRecord is one persisted bookmaker price, as stored in the odds table.
type OddsRecord struct {
	ID           int64      `json:"id" db:"id"`
	Sportsbook   string     `json:"sportsbook" db:"sportsbook"`
	League       string     `json:"league" db:"league"`
	Event        string     `json:"event" db:"event"`
	Market       string     `json:"market" db:"market"`
	Outcome      string     `json:"outcome" db:"outcome"`
	Line         *string    `json:"line,omitempty" db:"line"`
	OddsDecimal  float64    `json:"odds_decimal" db:"odds_decimal"`
	OddsAmerican string     `json:"odds_american" db:"odds_american"`
	CommenceTime *time.Time `json:"commence_time,omitempty" db:"commence_time"`
	EventDate    *string    `json:"event_date,omitempty" db:"event_date"`
	LastUpdated  time.Time  `json:"last_updated" db:"last_updated"`
}

// Event identifies the sporting event a snapshot belongs to. It is owned by
// the caller and treated as an opaque reference by the engine.
type Event struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	League       string     `json:"league"`
	CommenceTime *time.Time `json:"commence_time,omitempty"`
}

// OddsQuote is one bookmaker's price for one outcome of one market.
type OddsQuote struct {
	Bookmaker   string    `json:"bookmaker"`
	Outcome     string    `json:"outcome"`
	OutcomeName string    `json:"outcome_name,omitempty"`
	Line        *float64  `json:"line,omitempty"`
	DecimalOdds float64   `json:"decimal_odds"`
	ObservedAt  time.Time `json:"observed_at"`
}

// OutcomeQuotes holds every quote backing a single outcome.
type OutcomeQuotes struct {
	Outcome string      `json:"outcome"`
	Quotes  []OddsQuote `json:"quotes"`
}

// MarketSnapshot is the set of quotes for one market of one event, grouped by
// outcome in declaration order.
type MarketSnapshot struct {
	Event    Event           `json:"event"`
	Market   string          `json:"market"`
	LineKey  *string         `json:"line_key,omitempty"`
	Outcomes []OutcomeQuotes `json:"outcomes"`
}

// NewMarketSnapshot groups quotes by outcome. Outcomes appear in the order
// they are first seen in quotes.
func NewMarketSnapshot(event Event, market string, lineKey *string, quotes []OddsQuote) MarketSnapshot {
	index := make(map[string]int)
	outcomes := make([]OutcomeQuotes, 0)

	for _, q := range quotes {
		i, ok := index[q.Outcome]
		if !ok {
			i = len(outcomes)
			index[q.Outcome] = i
			outcomes = append(outcomes, OutcomeQuotes{Outcome: q.Outcome})
		}
		outcomes[i].Quotes = append(outcomes[i].Quotes, q)
	}

	return MarketSnapshot{
		Event:    event,
		Market:   market,
		LineKey:  lineKey,
		Outcomes: outcomes,
	}
}

// BestPrice is the most favourable quote found for one outcome.
type BestPrice struct {
	Outcome     string    `json:"outcome"`
	OutcomeName string    `json:"outcome_name,omitempty"`
	Line        *float64  `json:"line,omitempty"`
	Bookmaker   string    `json:"bookmaker"`
	DecimalOdds float64   `json:"decimal_odds"`
	ObservedAt  time.Time `json:"observed_at"`
}

// BestPriceSet carries exactly one best price per outcome of a snapshot.
type BestPriceSet struct {
	Event   Event       `json:"event"`
	Market  string      `json:"market"`
	LineKey *string     `json:"line_key,omitempty"`
	Prices  []BestPrice `json:"prices"`
}

// MiddleSide is one leg of a totals middle candidate.
type MiddleSide struct {
	Sportsbook   string  `json:"sportsbook"`
	Line         string  `json:"line"`
	OddsDecimal  float64 `json:"odds_decimal"`
	OddsAmerican string  `json:"odds_american"`
}

// MiddleCandidate is a totals gap where both an Over and an Under could win.
// It is not a guaranteed profit.
type MiddleCandidate struct {
	Event        string     `json:"event"`
	Market       string     `json:"market"`
	Over         MiddleSide `json:"over"`
	Under        MiddleSide `json:"under"`
	MiddleWidth  float64    `json:"middle_width"`
	CommenceTime *time.Time `json:"commence_time,omitempty"`
	EventDate    *string    `json:"event_date,omitempty"`
	Note         string     `json:"note"`
}

// BookSummary describes how competitive a sportsbook's prices are.
type BookSummary struct {
	BestPriceCount    int      `json:"best_price_count"`
	AvgOfferedDecimal *float64 `json:"avg_offered_decimal"`
}
