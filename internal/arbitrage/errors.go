package arbitrage

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors for errors.Is checks.
var (
	ErrInvalidOdds          = errors.New("invalid odds")
	ErrInsufficientOutcomes = errors.New("insufficient outcomes")
	ErrInvalidBudget        = errors.New("invalid budget")
	ErrInvalidQuote         = errors.New("invalid quote")
)

// InvalidOddsError reports an odds value outside the valid domain.
type InvalidOddsError struct {
	Value  float64
	Format OddsFormat
	Reason string
}

// Error returns the error message string.
func (e *InvalidOddsError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s odds %v: %s", e.Format, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s odds %v", e.Format, e.Value)
}

// Is matches ErrInvalidOdds.
func (e *InvalidOddsError) Is(target error) bool {
	return target == ErrInvalidOdds
}

// InsufficientOutcomesError reports a market snapshot that cannot be evaluated.
type InsufficientOutcomesError struct {
	Outcomes     int
	EmptyOutcome string
}

// Error returns the error message string.
func (e *InsufficientOutcomesError) Error() string {
	if e.EmptyOutcome != "" {
		return fmt.Sprintf("outcome %q has no quotes", e.EmptyOutcome)
	}
	return fmt.Sprintf("market needs at least 2 outcomes, got %d", e.Outcomes)
}

// Is matches ErrInsufficientOutcomes.
func (e *InsufficientOutcomesError) Is(target error) bool {
	return target == ErrInsufficientOutcomes
}

// InvalidBudgetError reports a non-positive stake budget.
type InvalidBudgetError struct {
	TotalStake decimal.Decimal
}

// Error returns the error message string.
func (e *InvalidBudgetError) Error() string {
	return fmt.Sprintf("total stake must be positive, got %s", e.TotalStake.String())
}

// Is matches ErrInvalidBudget.
func (e *InvalidBudgetError) Is(target error) bool {
	return target == ErrInvalidBudget
}

// InvalidQuoteError reports a quote missing its bookmaker or outcome, or a
// quote that does not belong to the outcome group holding it.
type InvalidQuoteError struct {
	Field   string
	Outcome string
	Reason  string
}

// Error returns the error message string.
func (e *InvalidQuoteError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid quote for outcome %q: %s", e.Outcome, e.Reason)
	}
	return fmt.Sprintf("quote is missing %s", e.Field)
}

// Is matches ErrInvalidQuote.
func (e *InvalidQuoteError) Is(target error) bool {
	return target == ErrInvalidQuote
}
