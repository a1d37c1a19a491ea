package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/irfndi/celebrum-odds/internal/arbitrage"
	"github.com/irfndi/celebrum-odds/internal/middleware"
	"github.com/irfndi/celebrum-odds/internal/models"
	"github.com/irfndi/celebrum-odds/internal/services"
	"github.com/irfndi/celebrum-odds/internal/utils"
)

// ArbitrageHandler serves opportunity search, detection and stake planning.
type ArbitrageHandler struct {
	finder    OpportunitySearcher
	passes    PassProvider
	allocator *arbitrage.StakeAllocator
}

// DetectResponse is the body of POST /arbitrage/detect. Opportunity is null
// when the snapshot holds no arbitrage.
type DetectResponse struct {
	Opportunity *models.ArbitrageOpportunity `json:"opportunity"`
	Plan        *models.StakePlan            `json:"stake_plan,omitempty"`
}

// StakeRequest is the body of POST /arbitrage/stakes.
type StakeRequest struct {
	Opportunity models.ArbitrageOpportunity `json:"opportunity"`
	TotalStake  decimal.Decimal             `json:"total_stake"`
}

// NewArbitrageHandler creates an arbitrage handler. A nil allocator rounds
// stakes to cents.
func NewArbitrageHandler(finder OpportunitySearcher, passes PassProvider, allocator *arbitrage.StakeAllocator) *ArbitrageHandler {
	if allocator == nil {
		allocator = arbitrage.NewStakeAllocator(arbitrage.DefaultRoundingPlaces)
	}
	return &ArbitrageHandler{finder: finder, passes: passes, allocator: allocator}
}

// GetOpportunities handles GET /arbitrage.
func (h *ArbitrageHandler) GetOpportunities(c *gin.Context) {
	q, err := parseFinderQuery(c)
	if err != nil {
		respondError(c, err, "Invalid query")
		return
	}

	result, err := h.finder.Find(c.Request.Context(), q)
	if err != nil {
		respondError(c, err, "Failed to find arbitrage opportunities")
		return
	}

	middleware.AddSpanAttribute(c, "arbitrage.total", result.Total)
	c.JSON(http.StatusOK, result)
}

// GetLatest handles GET /arbitrage/latest.
func (h *ArbitrageHandler) GetLatest(c *gin.Context) {
	pass := h.passes.LatestPass(c.Request.Context())
	if pass == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:     "No detection pass has completed yet",
			RequestID: middleware.GetRequestID(c),
		})
		return
	}
	c.JSON(http.StatusOK, pass)
}

// Detect handles POST /arbitrage/detect. The body is a market snapshot; an
// optional stake query parameter attaches a stake plan.
func (h *ArbitrageHandler) Detect(c *gin.Context) {
	var snapshot models.MarketSnapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		respondError(c, utils.NewValidationErrorf("invalid snapshot body: %v", err), "Invalid request")
		return
	}
	stake, err := parseDecimalParam(c, "stake")
	if err != nil {
		respondError(c, err, "Invalid query")
		return
	}

	opp, ok, err := arbitrage.DetectOpportunity(snapshot)
	if err != nil {
		respondError(c, err, "Detection failed")
		return
	}
	resp := DetectResponse{}
	if ok {
		resp.Opportunity = opp
		if stake != nil {
			plan, err := h.allocator.Allocate(*opp, *stake)
			if err != nil {
				respondError(c, err, "Stake allocation failed")
				return
			}
			resp.Plan = &plan
		}
	}
	c.JSON(http.StatusOK, resp)
}

// AllocateStakes handles POST /arbitrage/stakes.
func (h *ArbitrageHandler) AllocateStakes(c *gin.Context) {
	var req StakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.NewValidationErrorf("invalid stake request body: %v", err), "Invalid request")
		return
	}

	plan, err := h.allocator.Allocate(req.Opportunity, req.TotalStake)
	if err != nil {
		respondError(c, err, "Stake allocation failed")
		return
	}
	c.JSON(http.StatusOK, plan)
}

func parseFinderQuery(c *gin.Context) (services.FinderQuery, error) {
	q := services.FinderQuery{
		Leagues:     utils.SplitCSV(c.Query("leagues")),
		Markets:     utils.SplitCSV(c.Query("markets")),
		Sportsbooks: utils.SplitCSV(c.Query("sportsbooks")),
		SortBy:      c.Query("sort_by"),
		SortDir:     c.Query("sort_dir"),
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"min_margin", &q.MinMarginPercent},
		{"time", &q.MinHoursAhead},
		{"middle_min_width", &q.MiddleMinWidth},
		{"middle_min_price", &q.MiddleMinPrice},
	}
	for _, f := range floats {
		raw := c.Query(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, utils.NewFieldError(f.name, "must be a number")
		}
		*f.dst = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"page", &q.Page},
		{"limit", &q.Limit},
	}
	for _, f := range ints {
		raw := c.Query(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return q, utils.NewFieldError(f.name, "must be an integer")
		}
		*f.dst = v
	}

	if raw := c.Query("show_middles"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return q, utils.NewFieldError("show_middles", "must be true or false")
		}
		q.ShowMiddles = v
	}

	stake, err := parseDecimalParam(c, "stake")
	if err != nil {
		return q, err
	}
	q.Stake = stake
	return q, nil
}

func parseDecimalParam(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, utils.NewFieldError(name, "must be a decimal amount")
	}
	return &d, nil
}
