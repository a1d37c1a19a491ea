package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ArbitrageLeg is one bet of an arbitrage opportunity.
type ArbitrageLeg struct {
	Outcome            string   `json:"outcome"`
	OutcomeName        string   `json:"outcome_name,omitempty"`
	Line               *float64 `json:"line,omitempty"`
	Bookmaker          string   `json:"bookmaker"`
	DecimalOdds        float64  `json:"decimal_odds"`
	ImpliedProbability float64  `json:"implied_probability"`
}

// ArbitrageOpportunity represents a detected combination of best prices whose
// implied probabilities sum to less than one.
type ArbitrageOpportunity struct {
	ID                      string         `json:"id"`
	Event                   Event          `json:"event"`
	Market                  string         `json:"market"`
	LineKey                 *string        `json:"line_key,omitempty"`
	Legs                    []ArbitrageLeg `json:"legs"`
	TotalImpliedProbability float64        `json:"total_implied_probability"`
	ProfitMarginPercent     float64        `json:"profit_margin_percent"`
	QuotedAt                time.Time      `json:"quoted_at"`
}

// LegStake is the amount to place on a single leg.
type LegStake struct {
	Outcome     string          `json:"outcome"`
	Bookmaker   string          `json:"bookmaker"`
	DecimalOdds float64         `json:"decimal_odds"`
	RawStake    decimal.Decimal `json:"raw_stake"`
	Stake       decimal.Decimal `json:"stake"`
	Payout      decimal.Decimal `json:"payout"`
}

// StakePlan splits a total stake across the legs of an opportunity so that the
// payout is the same whichever outcome wins, up to rounding.
type StakePlan struct {
	TotalStake         decimal.Decimal `json:"total_stake"`
	LegStakes          []LegStake      `json:"leg_stakes"`
	GuaranteedPayout   decimal.Decimal `json:"guaranteed_payout"`
	GuaranteedProfit   decimal.Decimal `json:"guaranteed_profit"`
	TheoreticalPayout  decimal.Decimal `json:"theoretical_payout"`
	MaxPayoutDeviation decimal.Decimal `json:"max_payout_deviation"`
	RoundingUnit       decimal.Decimal `json:"rounding_unit"`
}

// PlannedOpportunity pairs an opportunity with an optional stake plan.
type PlannedOpportunity struct {
	Opportunity ArbitrageOpportunity `json:"opportunity"`
	Plan        *StakePlan           `json:"stake_plan,omitempty"`
}

// ArbitragePass is the result of one full detection run.
type ArbitragePass struct {
	Opportunities []PlannedOpportunity `json:"opportunities"`
	Snapshots     int                  `json:"snapshots"`
	Rejected      int                  `json:"rejected"`
	GeneratedAt   time.Time            `json:"generated_at"`
}
