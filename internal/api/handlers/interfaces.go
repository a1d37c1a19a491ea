package handlers

import (
	"context"
	"time"

	"github.com/irfndi/celebrum-odds/internal/models"
	"github.com/irfndi/celebrum-odds/internal/services"
)

// HealthChecker is implemented by the Postgres and Redis connections.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// BreakerReporter exposes the state of the registered circuit breakers.
type BreakerReporter interface {
	GetAllStats() map[string]services.CircuitBreakerStats
}

// OpportunitySearcher answers request-time arbitrage queries.
type OpportunitySearcher interface {
	Find(ctx context.Context, q services.FinderQuery) (*services.FinderResult, error)
}

// PassProvider exposes the most recent detection pass.
type PassProvider interface {
	LatestPass(ctx context.Context) *models.ArbitragePass
}

// PassRunner runs a detection pass on demand.
type PassRunner interface {
	RunPass(ctx context.Context) (*models.ArbitragePass, error)
}

// Catalog lists the values present in the odds store.
type Catalog interface {
	DistinctLeagues(ctx context.Context) ([]string, error)
	DistinctMarkets(ctx context.Context) ([]string, error)
	DistinctSportsbooks(ctx context.Context) ([]string, error)
}

// Collector triggers and reports odds collection.
type Collector interface {
	CollectOnce(ctx context.Context) (*services.CollectionSummary, error)
	LastSummary() (*services.CollectionSummary, time.Time)
	BreakerStats() services.CircuitBreakerStats
	IsRunning() bool
}

// Cleaner removes stale odds.
type Cleaner interface {
	RunCleanup(ctx context.Context) (services.CleanupResult, error)
}

// SystemInfoProvider reports host resources.
type SystemInfoProvider interface {
	GetSystemInfo() map[string]interface{}
}
