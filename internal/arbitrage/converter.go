package arbitrage

import (
	"fmt"
	"math"
	"strings"
)

// OddsFormat names an odds representation.
type OddsFormat string

const (
	OddsAmerican OddsFormat = "american"
	OddsDecimal  OddsFormat = "decimal"
)

// ParseOddsFormat accepts "american" or "decimal" in any case.
func ParseOddsFormat(s string) (OddsFormat, error) {
	switch OddsFormat(strings.ToLower(strings.TrimSpace(s))) {
	case OddsAmerican:
		return OddsAmerican, nil
	case OddsDecimal:
		return OddsDecimal, nil
	default:
		return "", &InvalidOddsError{Format: OddsFormat(s), Reason: "unknown odds format"}
	}
}

// ToDecimal converts American odds to decimal odds. American prices have a
// magnitude of at least 100; -100 and +100 both mean even money (2.0).
func ToDecimal(american float64) (float64, error) {
	if math.IsNaN(american) || math.IsInf(american, 0) {
		return 0, &InvalidOddsError{Value: american, Format: OddsAmerican, Reason: "not a finite number"}
	}
	if math.Abs(american) < 100 {
		return 0, &InvalidOddsError{Value: american, Format: OddsAmerican, Reason: "magnitude must be at least 100"}
	}
	if american > 0 {
		return 1 + american/100, nil
	}
	return 1 + 100/math.Abs(american), nil
}

// ToAmerican converts decimal odds to American odds. Prices at or above 2.0
// are positive, shorter prices negative.
func ToAmerican(decimalOdds float64) (float64, error) {
	if err := ValidateDecimal(decimalOdds); err != nil {
		return 0, err
	}
	if decimalOdds >= 2 {
		return (decimalOdds - 1) * 100, nil
	}
	return -100 / (decimalOdds - 1), nil
}

// ConvertOdds converts value from the given format into the other one.
func ConvertOdds(value float64, from OddsFormat) (float64, error) {
	switch from {
	case OddsAmerican:
		return ToDecimal(value)
	case OddsDecimal:
		return ToAmerican(value)
	default:
		return 0, &InvalidOddsError{Value: value, Format: from, Reason: "unknown odds format"}
	}
}

// FormatAmerican renders decimal odds as a signed American price, e.g. "+150".
func FormatAmerican(decimalOdds float64) (string, error) {
	american, err := ToAmerican(decimalOdds)
	if err != nil {
		return "", err
	}
	rounded := math.Round(american)
	if rounded > 0 {
		return fmt.Sprintf("+%d", int64(rounded)), nil
	}
	return fmt.Sprintf("%d", int64(rounded)), nil
}

// ImpliedProbability returns 1/decimalOdds.
func ImpliedProbability(decimalOdds float64) (float64, error) {
	if err := ValidateDecimal(decimalOdds); err != nil {
		return 0, err
	}
	return 1 / decimalOdds, nil
}

// ValidateDecimal rejects decimal odds that are not finite or not above 1.0.
func ValidateDecimal(decimalOdds float64) error {
	if math.IsNaN(decimalOdds) || math.IsInf(decimalOdds, 0) {
		return &InvalidOddsError{Value: decimalOdds, Format: OddsDecimal, Reason: "not a finite number"}
	}
	if decimalOdds <= 1 {
		return &InvalidOddsError{Value: decimalOdds, Format: OddsDecimal, Reason: "must be greater than 1.0"}
	}
	return nil
}
