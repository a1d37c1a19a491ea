package services

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/irfndi/celebrum-odds/internal/arbitrage"
	"github.com/irfndi/celebrum-odds/internal/models"
)

// Spread outcomes are collapsed to the side of the line so that +2.5 on one
// team and -2.5 on the other land in the same snapshot.
const (
	SpreadSidePlus  = "plus"
	SpreadSideMinus = "minus"
)

// RowFilter selects stored odds rows before they are grouped. Empty sets
// match everything.
type RowFilter struct {
	Leagues       []string
	Markets       []string
	Sportsbooks   []string
	MinHoursAhead float64
	// MaxQuoteAge drops rows refreshed longer ago than this. Zero disables it.
	MaxQuoteAge time.Duration
	Now         time.Time
}

// Apply returns the rows that pass the filter, in their original order.
// Rows without a commence time or starting before Now+MinHoursAhead are
// dropped.
func (f RowFilter) Apply(rows []models.OddsRecord) []models.OddsRecord {
	now := f.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	cutoff := now.Add(time.Duration(f.MinHoursAhead * float64(time.Hour)))

	leagues := toSet(f.Leagues, true)
	markets := toSet(f.Markets, true)
	books := toSet(f.Sportsbooks, false)

	out := make([]models.OddsRecord, 0, len(rows))
	for _, r := range rows {
		if r.CommenceTime == nil || !r.CommenceTime.After(cutoff) {
			continue
		}
		if f.MaxQuoteAge > 0 && now.Sub(r.LastUpdated) > f.MaxQuoteAge {
			continue
		}
		if leagues != nil && !leagues[strings.ToLower(r.League)] {
			continue
		}
		if markets != nil && !markets[strings.ToLower(r.Market)] {
			continue
		}
		if books != nil && !books[r.Sportsbook] {
			continue
		}
		out = append(out, r)
	}
	return out
}

func toSet(values []string, lower bool) map[string]bool {
	var set map[string]bool
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if lower {
			v = strings.ToLower(v)
		}
		if set == nil {
			set = make(map[string]bool, len(values))
		}
		set[v] = true
	}
	return set
}

type snapshotKey struct {
	event   string
	market  string
	lineKey string
	hasLine bool
}

// BuildSnapshots groups rows into market snapshots keyed by event, market
// and line. Spreads are keyed by the absolute line and totals by the line as
// stored; h2h has no line. Snapshots and their outcomes appear in first-seen
// order. Rows with odds the engine cannot price are skipped.
func BuildSnapshots(rows []models.OddsRecord) []models.MarketSnapshot {
	index := make(map[snapshotKey]int)
	type bucket struct {
		event   models.Event
		market  string
		lineKey *string
		quotes  []models.OddsQuote
	}
	var buckets []*bucket

	for _, r := range rows {
		if arbitrage.ValidateDecimal(r.OddsDecimal) != nil {
			continue
		}
		market := strings.ToLower(r.Market)
		lineKey := snapshotLineKey(market, r.Line)

		key := snapshotKey{event: r.Event, market: market}
		if lineKey != nil {
			key.lineKey, key.hasLine = *lineKey, true
		}

		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, &bucket{
				event: models.Event{
					ID:           r.Event,
					Name:         r.Event,
					League:       strings.ToLower(r.League),
					CommenceTime: r.CommenceTime,
				},
				market:  market,
				lineKey: lineKey,
			})
		}
		buckets[i].quotes = append(buckets[i].quotes, quoteFromRecord(market, r))
	}

	snapshots := make([]models.MarketSnapshot, 0, len(buckets))
	for _, b := range buckets {
		snapshots = append(snapshots, models.NewMarketSnapshot(b.event, b.market, b.lineKey, b.quotes))
	}
	return snapshots
}

func snapshotLineKey(market string, line *string) *string {
	switch market {
	case models.MarketSpreads:
		if line == nil {
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(*line), 64)
		if err != nil {
			return coerceLine(line)
		}
		key := strconv.FormatFloat(math.Round(math.Abs(v)*1000)/1000, 'g', -1, 64)
		return &key
	case models.MarketTotals:
		return coerceLine(line)
	default:
		return nil
	}
}

func coerceLine(line *string) *string {
	if line == nil {
		return nil
	}
	s := strings.TrimSpace(*line)
	if s == "" {
		return nil
	}
	return &s
}

func parseLine(line *string) *float64 {
	if line == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*line), 64)
	if err != nil {
		return nil
	}
	return &v
}

func quoteFromRecord(market string, r models.OddsRecord) models.OddsQuote {
	q := models.OddsQuote{
		Bookmaker:   r.Sportsbook,
		Outcome:     r.Outcome,
		Line:        parseLine(r.Line),
		DecimalOdds: r.OddsDecimal,
		ObservedAt:  r.LastUpdated,
	}
	if market == models.MarketSpreads && q.Line != nil {
		q.OutcomeName = r.Outcome
		if *q.Line >= 0 {
			q.Outcome = SpreadSidePlus
		} else {
			q.Outcome = SpreadSideMinus
		}
	}
	return q
}
