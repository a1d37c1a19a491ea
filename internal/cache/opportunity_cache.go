package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/celebrum-odds/internal/models"
	"github.com/irfndi/celebrum-odds/internal/telemetry"
)

// OpportunityCacheStats tracks cache performance metrics
type OpportunityCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	mu     sync.RWMutex
}

// OpportunityCache keeps the latest detection pass and alert markers in Redis
type OpportunityCache struct {
	redis  *redis.Client
	ttl    time.Duration
	stats  *OpportunityCacheStats
	prefix string
	tracer trace.Tracer
}

// NewOpportunityCache creates a new Redis-based opportunity cache
func NewOpportunityCache(redisClient *redis.Client, ttl time.Duration) *OpportunityCache {
	return &OpportunityCache{
		redis:  redisClient,
		ttl:    ttl,
		stats:  &OpportunityCacheStats{},
		prefix: "arbitrage:",
		tracer: telemetry.GetCacheTracer(),
	}
}

func (c *OpportunityCache) latestKey() string {
	return c.prefix + "latest"
}

func (c *OpportunityCache) notifiedKey(opportunityID string) string {
	return c.prefix + "notified:" + opportunityID
}

// StoreLatest replaces the cached detection pass
func (c *OpportunityCache) StoreLatest(ctx context.Context, pass models.ArbitragePass) error {
	ctx, span := c.tracer.Start(ctx, "cache.store_latest")
	defer span.End()
	span.SetAttributes(telemetry.Int64Attribute("arbitrage.opportunities", int64(len(pass.Opportunities))))

	data, err := json.Marshal(pass)
	if err != nil {
		return fmt.Errorf("failed to serialize arbitrage pass: %w", err)
	}

	if err := c.redis.Set(ctx, c.latestKey(), data, c.ttl).Err(); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to cache arbitrage pass: %w", err)
	}

	c.stats.mu.Lock()
	c.stats.Sets++
	c.stats.mu.Unlock()
	return nil
}

// Latest returns the cached detection pass. A miss is (nil, false, nil).
func (c *OpportunityCache) Latest(ctx context.Context) (*models.ArbitragePass, bool, error) {
	ctx, span := c.tracer.Start(ctx, "cache.latest")
	defer span.End()

	data, err := c.redis.Get(ctx, c.latestKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(telemetry.BoolAttribute("cache.hit", false))
		c.recordMiss()
		return nil, false, nil
	}
	if err != nil {
		telemetry.RecordError(span, err)
		c.recordMiss()
		return nil, false, fmt.Errorf("failed to read cached arbitrage pass: %w", err)
	}

	var pass models.ArbitragePass
	if err := json.Unmarshal(data, &pass); err != nil {
		c.recordMiss()
		return nil, false, fmt.Errorf("failed to deserialize cached arbitrage pass: %w", err)
	}

	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	span.SetAttributes(telemetry.BoolAttribute("cache.hit", true))
	return &pass, true, nil
}

// MarkNotified records that an alert went out for opportunityID. It returns
// false when the opportunity was already marked within cooldown.
func (c *OpportunityCache) MarkNotified(ctx context.Context, opportunityID string, cooldown time.Duration) (bool, error) {
	ok, err := c.redis.SetNX(ctx, c.notifiedKey(opportunityID), time.Now().UTC().Format(time.RFC3339), cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark opportunity %s as notified: %w", opportunityID, err)
	}
	return ok, nil
}

// GetStats returns a snapshot of the cache statistics
func (c *OpportunityCache) GetStats() OpportunityCacheStats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return OpportunityCacheStats{
		Hits:   c.stats.Hits,
		Misses: c.stats.Misses,
		Sets:   c.stats.Sets,
	}
}

func (c *OpportunityCache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}
