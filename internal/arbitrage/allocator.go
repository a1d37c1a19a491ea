package arbitrage

import (
	"github.com/shopspring/decimal"

	"github.com/irfndi/celebrum-odds/internal/models"
)

// DefaultRoundingPlaces rounds stakes to cents.
const DefaultRoundingPlaces int32 = 2

// StakeAllocator splits a budget across the legs of an opportunity.
// Places is the number of decimal places of the smallest currency unit.
type StakeAllocator struct {
	Places int32
}

// NewStakeAllocator creates an allocator rounding to the given number of places.
func NewStakeAllocator(places int32) *StakeAllocator {
	return &StakeAllocator{Places: places}
}

// AllocateStakes allocates totalStake with the default cent rounding.
func AllocateStakes(opp models.ArbitrageOpportunity, totalStake decimal.Decimal) (models.StakePlan, error) {
	return NewStakeAllocator(DefaultRoundingPlaces).Allocate(opp, totalStake)
}

// Allocate computes the stake for every leg so that each winning leg pays the
// same amount. Stakes are rounded down to the unit and the leftover is placed
// on the leg with the largest raw stake, so the stakes always sum to
// totalStake. The resulting payout spread is reported in MaxPayoutDeviation.
//
// A totalStake below one rounding unit per leg leaves the smaller legs at
// zero, so GuaranteedPayout is 0 and GuaranteedProfit equals -totalStake.
// Callers should check GuaranteedProfit before using such a plan.
func (a *StakeAllocator) Allocate(opp models.ArbitrageOpportunity, totalStake decimal.Decimal) (models.StakePlan, error) {
	if !totalStake.IsPositive() {
		return models.StakePlan{}, &InvalidBudgetError{TotalStake: totalStake}
	}
	if len(opp.Legs) < 2 {
		return models.StakePlan{}, &InsufficientOutcomesError{Outcomes: len(opp.Legs)}
	}

	// Implied probabilities are recomputed from the leg prices so a plan never
	// trusts a stale total.
	probs := make([]decimal.Decimal, len(opp.Legs))
	totalFloat := 0.0
	for i, leg := range opp.Legs {
		if err := ValidateDecimal(leg.DecimalOdds); err != nil {
			return models.StakePlan{}, err
		}
		probs[i] = decimal.NewFromInt(1).Div(decimal.NewFromFloat(leg.DecimalOdds))
		totalFloat += 1 / leg.DecimalOdds
	}
	if totalFloat >= 1-Epsilon {
		return models.StakePlan{}, &InvalidOddsError{
			Value:  totalFloat,
			Format: OddsDecimal,
			Reason: "legs carry no arbitrage (total implied probability >= 1)",
		}
	}

	total := decimal.Sum(probs[0], probs[1:]...)

	legs := make([]models.LegStake, len(opp.Legs))
	allocated := decimal.Zero
	largest := 0
	for i, leg := range opp.Legs {
		raw := totalStake.Mul(probs[i]).Div(total)
		rounded := raw.RoundFloor(a.Places)
		legs[i] = models.LegStake{
			Outcome:     leg.Outcome,
			Bookmaker:   leg.Bookmaker,
			DecimalOdds: leg.DecimalOdds,
			RawStake:    raw,
			Stake:       rounded,
		}
		allocated = allocated.Add(rounded)
		if raw.GreaterThan(legs[largest].RawStake) {
			largest = i
		}
	}

	residual := totalStake.Sub(allocated)
	legs[largest].Stake = legs[largest].Stake.Add(residual)

	minPayout, maxPayout := decimal.Zero, decimal.Zero
	for i := range legs {
		payout := legs[i].Stake.Mul(decimal.NewFromFloat(legs[i].DecimalOdds))
		legs[i].Payout = payout
		if i == 0 || payout.LessThan(minPayout) {
			minPayout = payout
		}
		if i == 0 || payout.GreaterThan(maxPayout) {
			maxPayout = payout
		}
	}

	return models.StakePlan{
		TotalStake:         totalStake,
		LegStakes:          legs,
		GuaranteedPayout:   minPayout,
		GuaranteedProfit:   minPayout.Sub(totalStake),
		TheoreticalPayout:  totalStake.Div(total),
		MaxPayoutDeviation: maxPayout.Sub(minPayout),
		RoundingUnit:       decimal.New(1, -a.Places),
	}, nil
}
