package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/celebrum-odds/internal/arbitrage"
	"github.com/irfndi/celebrum-odds/internal/utils"
)

// ConvertResponse is the body of GET /odds/convert.
type ConvertResponse struct {
	Value              float64 `json:"value"`
	From               string  `json:"from"`
	To                 string  `json:"to"`
	Converted          float64 `json:"converted"`
	DecimalOdds        float64 `json:"decimal_odds"`
	AmericanOdds       string  `json:"american_odds"`
	ImpliedProbability float64 `json:"implied_probability"`
}

// ConvertOdds handles GET /odds/convert?value=&from=. from defaults to
// american.
func ConvertOdds(c *gin.Context) {
	raw := c.Query("value")
	if raw == "" {
		respondError(c, utils.NewFieldError("value", "is required"), "Invalid query")
		return
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		respondError(c, utils.NewFieldError("value", "must be a number"), "Invalid query")
		return
	}
	from, err := arbitrage.ParseOddsFormat(c.DefaultQuery("from", string(arbitrage.OddsAmerican)))
	if err != nil {
		respondError(c, utils.NewFieldError("from", "must be american or decimal"), "Invalid query")
		return
	}

	converted, err := arbitrage.ConvertOdds(value, from)
	if err != nil {
		respondError(c, err, "Conversion failed")
		return
	}

	resp := ConvertResponse{Value: value, From: string(from), Converted: converted}
	if from == arbitrage.OddsAmerican {
		resp.To = string(arbitrage.OddsDecimal)
		resp.DecimalOdds = converted
	} else {
		resp.To = string(arbitrage.OddsAmerican)
		resp.DecimalOdds = value
	}
	if resp.AmericanOdds, err = arbitrage.FormatAmerican(resp.DecimalOdds); err != nil {
		respondError(c, err, "Conversion failed")
		return
	}
	if resp.ImpliedProbability, err = arbitrage.ImpliedProbability(resp.DecimalOdds); err != nil {
		respondError(c, err, "Conversion failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}
