package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/celebrum-odds/internal/arbitrage"
	"github.com/irfndi/celebrum-odds/internal/middleware"
	"github.com/irfndi/celebrum-odds/internal/utils"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps engine and validation errors to HTTP status codes.
func statusFor(err error) int {
	if _, ok := utils.AsValidationError(err); ok {
		return http.StatusBadRequest
	}
	switch {
	case errors.Is(err, arbitrage.ErrInsufficientOutcomes):
		return http.StatusUnprocessableEntity
	case errors.Is(err, arbitrage.ErrInvalidOdds),
		errors.Is(err, arbitrage.ErrInvalidQuote),
		errors.Is(err, arbitrage.ErrInvalidBudget):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Server errors are
// recorded on the span and reported with fallback instead of the raw error.
func respondError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error(), RequestID: middleware.GetRequestID(c)}
	if ve, ok := utils.AsValidationError(err); ok {
		resp.Error = ve.Message
		resp.Field = ve.Field
	}
	if status >= http.StatusInternalServerError {
		middleware.RecordError(c, err, fallback)
		resp.Error = fallback
	}
	c.JSON(status, resp)
}
