package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/irfndi/celebrum-odds/internal/arbitrage"
	"github.com/irfndi/celebrum-odds/internal/utils"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", utils.NewFieldError("limit", "too big"), http.StatusBadRequest},
		{"invalid odds", &arbitrage.InvalidOddsError{Value: 1, Format: arbitrage.OddsDecimal}, http.StatusBadRequest},
		{"invalid quote", &arbitrage.InvalidQuoteError{Field: "bookmaker"}, http.StatusBadRequest},
		{"invalid budget", &arbitrage.InvalidBudgetError{TotalStake: decimal.Zero}, http.StatusBadRequest},
		{"insufficient outcomes", fmt.Errorf("wrapped: %w", &arbitrage.InsufficientOutcomesError{Outcomes: 1}), http.StatusUnprocessableEntity},
		{"other", errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
