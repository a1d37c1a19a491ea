package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/celebrum-odds/internal/arbitrage"
	"github.com/irfndi/celebrum-odds/internal/database"
	"github.com/irfndi/celebrum-odds/internal/models"
	"github.com/irfndi/celebrum-odds/internal/utils"
)

// Sort keys accepted by FinderQuery.SortBy.
const (
	SortByProfit = "profit"
	SortByDate   = "date"
	SortByLeague = "league"
	SortByEvent  = "event"

	SortAsc  = "asc"
	SortDesc = "desc"

	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// FinderQuery is a request-time search for arbitrage opportunities.
type FinderQuery struct {
	Leagues          []string
	Markets          []string
	Sportsbooks      []string
	MinMarginPercent float64
	MinHoursAhead    float64
	ShowMiddles      bool
	MiddleMinWidth   float64
	MiddleMinPrice   float64
	SortBy           string
	SortDir          string
	Page             int
	Limit            int
	// Stake, when set, attaches a stake plan to every opportunity.
	Stake *decimal.Decimal
}

// Normalize fills defaults and validates the query.
func (q *FinderQuery) Normalize() error {
	q.SortBy = strings.ToLower(strings.TrimSpace(q.SortBy))
	q.SortDir = strings.ToLower(strings.TrimSpace(q.SortDir))
	if q.SortBy == "" {
		q.SortBy = SortByProfit
	}
	if q.SortDir == "" {
		q.SortDir = SortDesc
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = DefaultPageLimit
	}
	if q.MiddleMinWidth == 0 {
		q.MiddleMinWidth = DefaultMiddleMinWidth
	}
	if q.MiddleMinPrice == 0 {
		q.MiddleMinPrice = DefaultMiddleMinPrice
	}

	switch q.SortBy {
	case SortByProfit, SortByDate, SortByLeague, SortByEvent:
	default:
		return utils.NewFieldError("sort_by", "must be one of profit, date, league, event")
	}
	if q.SortDir != SortAsc && q.SortDir != SortDesc {
		return utils.NewFieldError("sort_dir", "must be asc or desc")
	}
	if q.Page < 1 {
		return utils.NewFieldError("page", "must be at least 1")
	}
	if q.Limit < 1 || q.Limit > MaxPageLimit {
		return utils.NewFieldError("limit", "must be between 1 and %d", MaxPageLimit)
	}
	if q.MinMarginPercent < 0 {
		return utils.NewFieldError("min_margin", "must not be negative")
	}
	if q.MinHoursAhead < 0 {
		return utils.NewFieldError("time", "must not be negative")
	}
	if q.MiddleMinWidth < 0 || q.MiddleMinPrice < 0 {
		return utils.NewFieldError("middle", "thresholds must not be negative")
	}
	if q.Stake != nil && !q.Stake.IsPositive() {
		return utils.NewFieldError("stake", "must be positive")
	}
	return nil
}

// FinderResult is one page of opportunities plus the side reports.
type FinderResult struct {
	Total         int                           `json:"total"`
	Page          int                           `json:"page"`
	Limit         int                           `json:"limit"`
	Opportunities []models.PlannedOpportunity   `json:"opportunities"`
	Middles       []models.MiddleCandidate      `json:"middles"`
	BooksSummary  map[string]models.BookSummary `json:"books_summary"`
	Snapshots     int                           `json:"snapshots"`
	Rejected      int                           `json:"rejected"`
	GeneratedAt   time.Time                     `json:"generated_at"`
}

// Evaluation is the outcome of running the engine over a set of rows.
type Evaluation struct {
	Opportunities []models.PlannedOpportunity
	Snapshots     int
	Rejected      int
}

// OpportunityFinder runs stored odds through the arbitrage engine.
type OpportunityFinder struct {
	store       OddsStore
	allocator   *arbitrage.StakeAllocator
	workers     int
	maxQuoteAge time.Duration
	logger      *logrus.Logger
	now         func() time.Time
}

// NewOpportunityFinder creates a finder. workers <= 0 uses GOMAXPROCS.
func NewOpportunityFinder(store OddsStore, allocator *arbitrage.StakeAllocator, workers int, maxQuoteAge time.Duration, logger *logrus.Logger) *OpportunityFinder {
	if allocator == nil {
		allocator = arbitrage.NewStakeAllocator(arbitrage.DefaultRoundingPlaces)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &OpportunityFinder{
		store:       store,
		allocator:   allocator,
		workers:     workers,
		maxQuoteAge: maxQuoteAge,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// LoadRows fetches upcoming rows from the store and applies the row filter.
func (f *OpportunityFinder) LoadRows(ctx context.Context, filter RowFilter) ([]models.OddsRecord, error) {
	if filter.Now.IsZero() {
		filter.Now = f.now()
	}
	if filter.MaxQuoteAge == 0 {
		filter.MaxQuoteAge = f.maxQuoteAge
	}
	now := filter.Now

	rows, err := f.store.ListOdds(ctx, database.OddsFilter{
		Leagues:       filter.Leagues,
		Markets:       filter.Markets,
		Sportsbooks:   filter.Sportsbooks,
		CommenceAfter: &now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load odds: %w", err)
	}
	return filter.Apply(rows), nil
}

// Evaluate groups rows into snapshots, detects arbitrage in parallel and
// keeps opportunities whose margin is at least minMargin. A non-nil stake
// attaches a plan to each. The result is ranked.
func (f *OpportunityFinder) Evaluate(ctx context.Context, rows []models.OddsRecord, minMargin float64, stake *decimal.Decimal) (Evaluation, error) {
	snapshots := BuildSnapshots(rows)
	results, err := arbitrage.DetectBatch(ctx, snapshots, f.workers)
	if err != nil {
		return Evaluation{}, err
	}

	eval := Evaluation{Snapshots: len(snapshots)}
	for _, r := range results {
		if r.Err != nil {
			eval.Rejected++
			if !errors.Is(r.Err, arbitrage.ErrInsufficientOutcomes) {
				f.logger.WithFields(logrus.Fields{
					"event":  r.Snapshot.Event.ID,
					"market": r.Snapshot.Market,
				}).WithError(r.Err).Debug("Snapshot rejected")
			}
			continue
		}
		if r.Opportunity == nil || r.Opportunity.ProfitMarginPercent < minMargin {
			continue
		}

		planned := models.PlannedOpportunity{Opportunity: *r.Opportunity}
		if stake != nil {
			plan, err := f.allocator.Allocate(*r.Opportunity, *stake)
			if err != nil {
				f.logger.WithField("opportunity_id", r.Opportunity.ID).WithError(err).Warn("Failed to allocate stakes")
			} else {
				planned.Plan = &plan
			}
		}
		eval.Opportunities = append(eval.Opportunities, planned)
	}

	eval.Opportunities = arbitrage.RankPlanned(eval.Opportunities)
	return eval, nil
}

// Find answers a request-time query.
func (f *OpportunityFinder) Find(ctx context.Context, q FinderQuery) (*FinderResult, error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}

	rows, err := f.LoadRows(ctx, RowFilter{
		Leagues:       q.Leagues,
		Markets:       q.Markets,
		Sportsbooks:   q.Sportsbooks,
		MinHoursAhead: q.MinHoursAhead,
	})
	if err != nil {
		return nil, err
	}

	eval, err := f.Evaluate(ctx, rows, q.MinMarginPercent, q.Stake)
	if err != nil {
		return nil, err
	}

	opps := SortPlanned(eval.Opportunities, q.SortBy, q.SortDir)

	result := &FinderResult{
		Total:         len(opps),
		Page:          q.Page,
		Limit:         q.Limit,
		Opportunities: paginate(opps, q.Page, q.Limit),
		Middles:       []models.MiddleCandidate{},
		BooksSummary:  SummarizeBooks(rows),
		Snapshots:     eval.Snapshots,
		Rejected:      eval.Rejected,
		GeneratedAt:   f.now(),
	}
	if q.ShowMiddles {
		result.Middles = NewMiddleDetector(q.MiddleMinWidth, q.MiddleMinPrice).Detect(rows)
	}
	return result, nil
}

// SortPlanned orders ranked opportunities by the requested key. Ties keep
// the ranked order. Opportunities without a commence time sort last for
// date in either direction.
func SortPlanned(planned []models.PlannedOpportunity, by, dir string) []models.PlannedOpportunity {
	out := arbitrage.RankPlanned(planned)
	if by == SortByProfit && dir != SortAsc {
		return out
	}

	desc := dir == SortDesc
	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i].Opportunity, &out[j].Opportunity
		switch by {
		case SortByDate:
			at, bt := a.Event.CommenceTime, b.Event.CommenceTime
			switch {
			case at == nil || bt == nil:
				return at != nil && bt == nil
			case at.Equal(*bt):
				return false
			case desc:
				return at.After(*bt)
			default:
				return at.Before(*bt)
			}
		case SortByLeague:
			return compareStrings(a.Event.League, b.Event.League, desc)
		case SortByEvent:
			return compareStrings(a.Event.Name, b.Event.Name, desc)
		default:
			if a.ProfitMarginPercent == b.ProfitMarginPercent {
				return false
			}
			return (a.ProfitMarginPercent < b.ProfitMarginPercent) != desc
		}
	})
	return out
}

func compareStrings(a, b string, desc bool) bool {
	if a == b {
		return false
	}
	return (a < b) != desc
}

func paginate(items []models.PlannedOpportunity, page, limit int) []models.PlannedOpportunity {
	start := (page - 1) * limit
	if start >= len(items) {
		return []models.PlannedOpportunity{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
