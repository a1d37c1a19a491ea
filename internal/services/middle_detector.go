package services

import (
	"sort"
	"strconv"
	"strings"

	"github.com/irfndi/celebrum-odds/internal/models"
)

const (
	DefaultMiddleMinWidth = 0.5
	DefaultMiddleMinPrice = 1.87 // about -115 American

	middleNote = "Totals middle candidate (not guaranteed profit)."
)

// MiddleDetector finds totals lines where an Over at a low total and an Under
// at a higher total can both win.
type MiddleDetector struct {
	MinWidth float64
	MinPrice float64
}

// NewMiddleDetector returns a detector. Non-positive thresholds fall back to
// the defaults.
func NewMiddleDetector(minWidth, minPrice float64) *MiddleDetector {
	if minWidth <= 0 {
		minWidth = DefaultMiddleMinWidth
	}
	if minPrice <= 0 {
		minPrice = DefaultMiddleMinPrice
	}
	return &MiddleDetector{MinWidth: minWidth, MinPrice: minPrice}
}

// Detect returns middle candidates sorted by width, widest first, then by
// commence time, latest first.
func (d *MiddleDetector) Detect(rows []models.OddsRecord) []models.MiddleCandidate {
	var (
		events  []string
		byEvent = make(map[string][]models.OddsRecord)
	)
	for _, r := range rows {
		if strings.ToLower(r.Market) != models.MarketTotals {
			continue
		}
		if _, ok := byEvent[r.Event]; !ok {
			events = append(events, r.Event)
		}
		byEvent[r.Event] = append(byEvent[r.Event], r)
	}

	candidates := []models.MiddleCandidate{}
	for _, event := range events {
		overs := bestByLine(byEvent[event], "over")
		unders := bestByLine(byEvent[event], "under")
		if len(overs) == 0 || len(unders) == 0 {
			continue
		}

		for _, lo := range sortedLines(overs) {
			over := overs[lo]
			if over.OddsDecimal < d.MinPrice {
				continue
			}
			for _, lu := range sortedLines(unders) {
				if lu <= lo {
					continue
				}
				under := unders[lu]
				if under.OddsDecimal < d.MinPrice {
					continue
				}
				width := lu - lo
				if width < d.MinWidth {
					continue
				}

				c := models.MiddleCandidate{
					Event:        event,
					Market:       models.MarketTotals,
					Over:         middleSide(over, lo),
					Under:        middleSide(under, lu),
					MiddleWidth:  width,
					CommenceTime: over.CommenceTime,
					EventDate:    over.EventDate,
					Note:         middleNote,
				}
				if c.CommenceTime == nil {
					c.CommenceTime = under.CommenceTime
				}
				if c.EventDate == nil {
					c.EventDate = under.EventDate
				}
				candidates = append(candidates, c)
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.MiddleWidth != b.MiddleWidth {
			return a.MiddleWidth > b.MiddleWidth
		}
		switch {
		case a.CommenceTime == nil:
			return false
		case b.CommenceTime == nil:
			return true
		default:
			return a.CommenceTime.After(*b.CommenceTime)
		}
	})
	return candidates
}

func bestByLine(rows []models.OddsRecord, side string) map[float64]models.OddsRecord {
	best := make(map[float64]models.OddsRecord)
	for _, r := range rows {
		if !strings.HasPrefix(strings.ToLower(r.Outcome), side) {
			continue
		}
		line := parseLine(r.Line)
		if line == nil {
			continue
		}
		if prev, ok := best[*line]; !ok || r.OddsDecimal > prev.OddsDecimal {
			best[*line] = r
		}
	}
	return best
}

func sortedLines(m map[float64]models.OddsRecord) []float64 {
	lines := make([]float64, 0, len(m))
	for l := range m {
		lines = append(lines, l)
	}
	sort.Float64s(lines)
	return lines
}

func middleSide(r models.OddsRecord, line float64) models.MiddleSide {
	return models.MiddleSide{
		Sportsbook:   r.Sportsbook,
		Line:         strconv.FormatFloat(line, 'f', -1, 64),
		OddsDecimal:  r.OddsDecimal,
		OddsAmerican: r.OddsAmerican,
	}
}
