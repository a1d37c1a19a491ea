package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/irfndi/celebrum-odds/internal/database"
	"github.com/irfndi/celebrum-odds/internal/models"
	"github.com/irfndi/celebrum-odds/pkg/oddsapi"
)

// MockOddsStore implements OddsStore for tests in this and dependent packages.
type MockOddsStore struct {
	mock.Mock
}

func (m *MockOddsStore) UpsertOdds(ctx context.Context, rows []models.OddsRecord) (int, error) {
	args := m.Called(ctx, rows)
	return args.Int(0), args.Error(1)
}

func (m *MockOddsStore) ListOdds(ctx context.Context, filter database.OddsFilter) ([]models.OddsRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OddsRecord), args.Error(1)
}

func (m *MockOddsStore) DeleteStale(ctx context.Context, startedBefore, updatedBefore time.Time) (int64, error) {
	args := m.Called(ctx, startedBefore, updatedBefore)
	return args.Get(0).(int64), args.Error(1)
}

// MockOpportunityStore implements OpportunityStore.
type MockOpportunityStore struct {
	mock.Mock
}

func (m *MockOpportunityStore) StoreLatest(ctx context.Context, pass models.ArbitragePass) error {
	return m.Called(ctx, pass).Error(0)
}

func (m *MockOpportunityStore) Latest(ctx context.Context) (*models.ArbitragePass, bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.ArbitragePass), args.Bool(1), args.Error(2)
}

func (m *MockOpportunityStore) MarkNotified(ctx context.Context, opportunityID string, cooldown time.Duration) (bool, error) {
	args := m.Called(ctx, opportunityID, cooldown)
	return args.Bool(0), args.Error(1)
}

// MockNotifier implements OpportunityNotifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyOpportunities(ctx context.Context, opportunities []models.PlannedOpportunity) (int, error) {
	args := m.Called(ctx, opportunities)
	return args.Int(0), args.Error(1)
}

// MockOddsClient implements oddsapi.OddsClient.
type MockOddsClient struct {
	mock.Mock
}

func (m *MockOddsClient) GetSports(ctx context.Context) ([]oddsapi.Sport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]oddsapi.Sport), args.Error(1)
}

func (m *MockOddsClient) GetOdds(ctx context.Context, sportKey string) ([]oddsapi.Event, error) {
	args := m.Called(ctx, sportKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]oddsapi.Event), args.Error(1)
}

func (m *MockOddsClient) Quota() oddsapi.Quota {
	args := m.Called()
	return args.Get(0).(oddsapi.Quota)
}

func (m *MockOddsClient) Close() error {
	return m.Called().Error(0)
}

var (
	_ OddsStore           = (*MockOddsStore)(nil)
	_ OpportunityStore    = (*MockOpportunityStore)(nil)
	_ OpportunityNotifier = (*MockNotifier)(nil)
	_ oddsapi.OddsClient  = (*MockOddsClient)(nil)
)
