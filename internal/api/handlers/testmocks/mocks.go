// Package testmocks holds testify mocks for the handler dependencies.
package testmocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/irfndi/celebrum-odds/internal/models"
	"github.com/irfndi/celebrum-odds/internal/services"
)

// MockHealthChecker mocks a database or Redis connection.
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockFinder mocks the request-time opportunity search.
type MockFinder struct {
	mock.Mock
}

func (m *MockFinder) Find(ctx context.Context, q services.FinderQuery) (*services.FinderResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.FinderResult), args.Error(1)
}

// MockPassService mocks the arbitrage service's pass accessors.
type MockPassService struct {
	mock.Mock
}

func (m *MockPassService) LatestPass(ctx context.Context) *models.ArbitragePass {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.ArbitragePass)
}

func (m *MockPassService) RunPass(ctx context.Context) (*models.ArbitragePass, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ArbitragePass), args.Error(1)
}

// MockCatalog mocks the distinct-value queries of the odds repository.
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) DistinctLeagues(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return stringsArg(args, 0), args.Error(1)
}

func (m *MockCatalog) DistinctMarkets(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return stringsArg(args, 0), args.Error(1)
}

func (m *MockCatalog) DistinctSportsbooks(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return stringsArg(args, 0), args.Error(1)
}

func stringsArg(args mock.Arguments, i int) []string {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).([]string)
}

// MockCollector mocks the odds collector.
type MockCollector struct {
	mock.Mock
}

func (m *MockCollector) CollectOnce(ctx context.Context) (*services.CollectionSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CollectionSummary), args.Error(1)
}

func (m *MockCollector) LastSummary() (*services.CollectionSummary, time.Time) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Get(1).(time.Time)
	}
	return args.Get(0).(*services.CollectionSummary), args.Get(1).(time.Time)
}

func (m *MockCollector) BreakerStats() services.CircuitBreakerStats {
	return m.Called().Get(0).(services.CircuitBreakerStats)
}

func (m *MockCollector) IsRunning() bool {
	return m.Called().Bool(0)
}

// MockCleaner mocks the cleanup service.
type MockCleaner struct {
	mock.Mock
}

func (m *MockCleaner) RunCleanup(ctx context.Context) (services.CleanupResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(services.CleanupResult), args.Error(1)
}
