package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/celebrum-odds/internal/api/handlers/testmocks"
	"github.com/irfndi/celebrum-odds/internal/config"
	"github.com/irfndi/celebrum-odds/internal/middleware"
	"github.com/irfndi/celebrum-odds/internal/models"
	"github.com/irfndi/celebrum-odds/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type routeMocks struct {
	db        *testmocks.MockHealthChecker
	catalog   *testmocks.MockCatalog
	finder    *testmocks.MockFinder
	passes    *testmocks.MockPassService
	collector *testmocks.MockCollector
	cleaner   *testmocks.MockCleaner
	auth      *middleware.AuthMiddleware
}

func newTestRouter() (*gin.Engine, *routeMocks) {
	m := &routeMocks{
		db:        new(testmocks.MockHealthChecker),
		catalog:   new(testmocks.MockCatalog),
		finder:    new(testmocks.MockFinder),
		passes:    new(testmocks.MockPassService),
		collector: new(testmocks.MockCollector),
		cleaner:   new(testmocks.MockCleaner),
		auth:      middleware.NewAuthMiddleware(config.SecurityConfig{JWTSecret: "route-test-secret", JWTIssuer: "celebrum-odds"}),
	}
	router := NewRouter("celebrum-odds-test", []string{"http://localhost:3000"}, Dependencies{
		DB:        m.db,
		Redis:     m.db,
		Catalog:   m.catalog,
		Finder:    m.finder,
		Passes:    m.passes,
		Collector: m.collector,
		Cleaner:   m.cleaner,
		Auth:      m.auth,
		Version:   "test",
	})
	return router, m
}

func serve(router http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSetupRoutes_PublicEndpoints(t *testing.T) {
	router, m := newTestRouter()
	m.db.On("HealthCheck", mock.Anything).Return(nil)
	m.collector.On("IsRunning").Return(false)
	m.collector.On("BreakerStats").Return(services.CircuitBreakerStats{State: "closed"})
	m.collector.On("LastSummary").Return(nil, time.Time{})
	m.catalog.On("DistinctLeagues", mock.Anything).Return([]string{"nba"}, nil)
	m.catalog.On("DistinctMarkets", mock.Anything).Return([]string{"h2h"}, nil)
	m.catalog.On("DistinctSportsbooks", mock.Anything).Return([]string{"FanDuel"}, nil)
	m.finder.On("Find", mock.Anything, mock.Anything).Return(&services.FinderResult{Opportunities: []models.PlannedOpportunity{}}, nil)
	m.passes.On("LatestPass", mock.Anything).Return(&models.ArbitragePass{})

	for _, target := range []string{
		"/health", "/ready", "/live",
		"/api/v1/leagues", "/api/v1/markets", "/api/v1/books",
		"/api/v1/arbitrage", "/api/v1/arbitrage/latest",
		"/api/v1/odds/convert?value=150",
	} {
		w := serve(router, http.MethodGet, target, "")
		assert.Equal(t, http.StatusOK, w.Code, target)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader), target)
	}
}

func TestSetupRoutes_AdminRequiresAdminToken(t *testing.T) {
	router, m := newTestRouter()
	m.cleaner.On("RunCleanup", mock.Anything).Return(services.CleanupResult{Deleted: 2}, nil)

	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodPost, "/api/v1/admin/cleanup", "").Code)

	viewer, err := m.auth.GenerateToken("viewer", "viewer", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodPost, "/api/v1/admin/cleanup", viewer).Code)

	admin, err := m.auth.GenerateToken("ops", middleware.RoleAdmin, time.Hour)
	require.NoError(t, err)
	w := serve(router, http.MethodPost, "/api/v1/admin/cleanup", admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":2`)
	m.cleaner.AssertNumberOfCalls(t, "RunCleanup", 1)
}

func TestSetupRoutes_UnknownRoute(t *testing.T) {
	router, _ := newTestRouter()
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/api/v1/exchanges", "").Code)
}
