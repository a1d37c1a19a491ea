package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/celebrum-odds/internal/models"
	"github.com/irfndi/celebrum-odds/internal/testutil"
)

func samplePass() models.ArbitragePass {
	generated := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	plan := models.StakePlan{
		TotalStake:   decimal.NewFromInt(100),
		RoundingUnit: decimal.RequireFromString("0.01"),
		LegStakes: []models.LegStake{
			{Outcome: "Home", Bookmaker: "FanDuel", DecimalOdds: 2.1, Stake: decimal.RequireFromString("49.39")},
			{Outcome: "Away", Bookmaker: "BetMGM", DecimalOdds: 2.05, Stake: decimal.RequireFromString("50.61")},
		},
	}
	return models.ArbitragePass{
		Opportunities: []models.PlannedOpportunity{{
			Opportunity: models.ArbitrageOpportunity{
				ID:                  "opp-1",
				Event:               models.Event{ID: "Lakers vs Celtics", League: "nba"},
				Market:              models.MarketH2H,
				ProfitMarginPercent: 3.73,
				QuotedAt:            generated,
			},
			Plan: &plan,
		}},
		Snapshots:   12,
		Rejected:    1,
		GeneratedAt: generated,
	}
}

func TestNewOpportunityCache(t *testing.T) {
	client, _ := testutil.NewMiniredis(t)

	cache := NewOpportunityCache(client, 5*time.Minute)
	assert.NotNil(t, cache)
	assert.Equal(t, 5*time.Minute, cache.ttl)
	assert.Equal(t, "arbitrage:", cache.prefix)
}

func TestOpportunityCache_StoreAndLatest(t *testing.T) {
	client, s := testutil.NewMiniredis(t)
	cache := NewOpportunityCache(client, 5*time.Minute)
	ctx := context.Background()

	_, found, err := cache.Latest(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	pass := samplePass()
	require.NoError(t, cache.StoreLatest(ctx, pass))
	assert.Equal(t, 5*time.Minute, s.TTL("arbitrage:latest"))

	got, found, err := cache.Latest(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 12, got.Snapshots)
	require.Len(t, got.Opportunities, 1)
	assert.Equal(t, "opp-1", got.Opportunities[0].Opportunity.ID)
	require.NotNil(t, got.Opportunities[0].Plan)
	assert.True(t, decimal.RequireFromString("50.61").Equal(got.Opportunities[0].Plan.LegStakes[1].Stake))
	assert.True(t, pass.GeneratedAt.Equal(got.GeneratedAt))

	stats := cache.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
}

func TestOpportunityCache_Expiry(t *testing.T) {
	client, s := testutil.NewMiniredis(t)
	cache := NewOpportunityCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.StoreLatest(ctx, samplePass()))
	s.FastForward(2 * time.Minute)

	_, found, err := cache.Latest(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestOpportunityCache_CorruptEntry(t *testing.T) {
	client, s := testutil.NewMiniredis(t)
	cache := NewOpportunityCache(client, time.Minute)

	require.NoError(t, s.Set("arbitrage:latest", "{not json"))

	_, found, err := cache.Latest(context.Background())
	require.Error(t, err)
	assert.False(t, found)
}

func TestOpportunityCache_MarkNotified(t *testing.T) {
	client, s := testutil.NewMiniredis(t)
	cache := NewOpportunityCache(client, time.Minute)
	ctx := context.Background()

	first, err := cache.MarkNotified(ctx, "opp-1", 30*time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := cache.MarkNotified(ctx, "opp-1", 30*time.Minute)
	require.NoError(t, err)
	assert.False(t, again)

	other, err := cache.MarkNotified(ctx, "opp-2", 30*time.Minute)
	require.NoError(t, err)
	assert.True(t, other)

	s.FastForward(31 * time.Minute)
	afterCooldown, err := cache.MarkNotified(ctx, "opp-1", 30*time.Minute)
	require.NoError(t, err)
	assert.True(t, afterCooldown)
}

func TestOpportunityCache_RedisDown(t *testing.T) {
	client, s := testutil.NewMiniredis(t)
	cache := NewOpportunityCache(client, time.Minute)
	s.Close()

	err := cache.StoreLatest(context.Background(), samplePass())
	assert.Error(t, err)

	_, err = cache.MarkNotified(context.Background(), "opp-1", time.Minute)
	assert.Error(t, err)
}
