package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/celebrum-odds/internal/middleware"
	"github.com/irfndi/celebrum-odds/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testObservedAt = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func newRouter() *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	return router
}

func doRequest(router http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func quote(book, outcome string, odds float64) models.OddsQuote {
	return models.OddsQuote{Bookmaker: book, Outcome: outcome, OutcomeName: outcome, DecimalOdds: odds, ObservedAt: testObservedAt}
}

// lakersSnapshot is a two-way market with a 3.735% arbitrage across
// FanDuel and DraftKings.
func lakersSnapshot() models.MarketSnapshot {
	commence := testObservedAt.Add(48 * time.Hour)
	return models.NewMarketSnapshot(
		models.Event{ID: "evt-lal-bos", Name: "Lakers vs Celtics", League: "nba", CommenceTime: &commence},
		models.MarketH2H, nil,
		[]models.OddsQuote{
			quote("FanDuel", "Lakers", 2.10),
			quote("DraftKings", "Lakers", 1.95),
			quote("FanDuel", "Celtics", 1.90),
			quote("DraftKings", "Celtics", 2.05),
		},
	)
}
