package oddsapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/irfndi/celebrum-odds/internal/arbitrage"
	"github.com/irfndi/celebrum-odds/internal/models"
)

// SelectSports returns the keys of interested sports offered by the provider,
// in provider order. Outright-only competitions are never selected.
func SelectSports(sports []Sport, interested []string) []string {
	want := make(map[string]struct{}, len(interested))
	for _, key := range interested {
		want[key] = struct{}{}
	}

	var keys []string
	for _, s := range sports {
		if _, ok := want[s.Key]; !ok {
			continue
		}
		if strings.Contains(s.Key, "_winner") {
			continue
		}
		keys = append(keys, s.Key)
	}
	return keys
}

// NormalizePayload flattens provider events into odds rows. Books outside
// allowedBooks, lay markets and prices that are not valid decimal odds are
// dropped. An empty allowedBooks accepts every book. now stamps rows whose
// bookmaker has no parseable last_update.
func NormalizePayload(events []Event, allowedBooks []string, now time.Time) []models.OddsRecord {
	allowed := make(map[string]struct{}, len(allowedBooks))
	for _, b := range allowedBooks {
		allowed[b] = struct{}{}
	}

	var rows []models.OddsRecord
	for _, event := range events {
		league := event.SportTitle
		if league == "" {
			league = event.SportKey
		}
		league = strings.ToLower(league)
		title := event.HomeTeam + " vs " + event.AwayTeam

		var commence *time.Time
		var eventDate *string
		if ct, err := time.Parse(time.RFC3339, event.CommenceTime); err == nil {
			ct = ct.UTC()
			date := ct.Format(time.DateOnly)
			commence = &ct
			eventDate = &date
		}

		for _, book := range event.Bookmakers {
			sportsbook := book.Title
			if sportsbook == "" {
				sportsbook = book.Key
			}
			if len(allowed) > 0 {
				if _, ok := allowed[sportsbook]; !ok {
					continue
				}
			}

			updated := now.UTC()
			if lu, err := time.Parse(time.RFC3339, book.LastUpdate); err == nil {
				updated = lu.UTC()
			}

			for _, m := range book.Markets {
				marketKey := strings.ToLower(m.Key)
				if marketKey == "" {
					marketKey = models.MarketH2H
				}
				if strings.Contains(marketKey, "lay") {
					continue
				}

				for _, o := range m.Outcomes {
					american, err := arbitrage.FormatAmerican(o.Price)
					if err != nil {
						continue
					}

					var line *string
					if o.Point != nil {
						s := strconv.FormatFloat(*o.Point, 'f', -1, 64)
						line = &s
					}

					rows = append(rows, models.OddsRecord{
						Sportsbook:   sportsbook,
						League:       league,
						Event:        title,
						Market:       marketKey,
						Outcome:      o.Name,
						Line:         line,
						OddsDecimal:  o.Price,
						OddsAmerican: american,
						CommenceTime: commence,
						EventDate:    eventDate,
						LastUpdated:  updated,
					})
				}
			}
		}
	}
	return rows
}
