package arbitrage

import (
	"fmt"

	"github.com/irfndi/celebrum-odds/internal/models"
)

// SelectBestPrices picks, for each outcome of the snapshot, the quote with the
// highest decimal odds. Equal prices resolve to the lexicographically smallest
// bookmaker so identical input always yields identical output.
//
// Each outcome group must be distinct and hold only quotes for its own
// outcome. Fewer than two distinct outcomes is an InsufficientOutcomesError.
func SelectBestPrices(snapshot models.MarketSnapshot) (models.BestPriceSet, error) {
	distinct := make(map[string]struct{}, len(snapshot.Outcomes))
	for _, outcome := range snapshot.Outcomes {
		distinct[outcome.Outcome] = struct{}{}
	}
	if len(distinct) < 2 {
		return models.BestPriceSet{}, &InsufficientOutcomesError{Outcomes: len(distinct)}
	}

	seen := make(map[string]struct{}, len(snapshot.Outcomes))
	prices := make([]models.BestPrice, 0, len(snapshot.Outcomes))
	for _, outcome := range snapshot.Outcomes {
		if outcome.Outcome == "" {
			return models.BestPriceSet{}, &InvalidQuoteError{Field: "outcome"}
		}
		if _, dup := seen[outcome.Outcome]; dup {
			return models.BestPriceSet{}, &InvalidQuoteError{
				Field:   "outcome",
				Outcome: outcome.Outcome,
				Reason:  "outcome listed more than once",
			}
		}
		seen[outcome.Outcome] = struct{}{}

		if len(outcome.Quotes) == 0 {
			return models.BestPriceSet{}, &InsufficientOutcomesError{
				Outcomes:     len(snapshot.Outcomes),
				EmptyOutcome: outcome.Outcome,
			}
		}

		var best *models.OddsQuote
		for i := range outcome.Quotes {
			q := &outcome.Quotes[i]
			if err := validateQuote(*q); err != nil {
				return models.BestPriceSet{}, err
			}
			if q.Outcome != outcome.Outcome {
				return models.BestPriceSet{}, &InvalidQuoteError{
					Field:   "outcome",
					Outcome: outcome.Outcome,
					Reason:  fmt.Sprintf("quote from %s is for %q", q.Bookmaker, q.Outcome),
				}
			}
			if best == nil ||
				q.DecimalOdds > best.DecimalOdds ||
				(q.DecimalOdds == best.DecimalOdds && q.Bookmaker < best.Bookmaker) {
				best = q
			}
		}

		prices = append(prices, models.BestPrice{
			Outcome:     outcome.Outcome,
			OutcomeName: best.OutcomeName,
			Line:        best.Line,
			Bookmaker:   best.Bookmaker,
			DecimalOdds: best.DecimalOdds,
			ObservedAt:  best.ObservedAt,
		})
	}

	return models.BestPriceSet{
		Event:   snapshot.Event,
		Market:  snapshot.Market,
		LineKey: snapshot.LineKey,
		Prices:  prices,
	}, nil
}

func validateQuote(q models.OddsQuote) error {
	if q.Bookmaker == "" {
		return &InvalidQuoteError{Field: "bookmaker"}
	}
	if q.Outcome == "" {
		return &InvalidQuoteError{Field: "outcome"}
	}
	return ValidateDecimal(q.DecimalOdds)
}
