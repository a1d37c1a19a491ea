package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/celebrum-odds/internal/config"
	"github.com/irfndi/celebrum-odds/internal/telemetry"
	"github.com/irfndi/celebrum-odds/pkg/oddsapi"
)

// CollectionSummary reports what one collection run fetched and stored.
type CollectionSummary struct {
	Sports         []string      `json:"sports"`
	Events         int           `json:"events"`
	Rows           int           `json:"rows"`
	FailedSports   []string      `json:"failed_sports"`
	QuotaRemaining int           `json:"quota_remaining"`
	Duration       time.Duration `json:"duration"`
}

// CollectorService periodically pulls odds for the configured sports and
// upserts them into the store.
type CollectorService struct {
	client  oddsapi.OddsClient
	store   OddsStore
	breaker *CircuitBreaker
	retrier *Retrier
	config  config.OddsAPIConfig
	tracer  *telemetry.BusinessTracer
	logger  *logrus.Logger
	now     func() time.Time

	runMu       sync.Mutex
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	isRunning   bool
	lastUpdate  time.Time
	lastSummary *CollectionSummary
}

// NewCollectorService creates a new odds collector service
func NewCollectorService(client oddsapi.OddsClient, store OddsStore, breaker *CircuitBreaker, cfg config.OddsAPIConfig, logger *logrus.Logger) *CollectorService {
	ctx, cancel := context.WithCancel(context.Background())
	if logger == nil {
		logger = logrus.New()
	}
	if breaker == nil {
		breaker = NewCircuitBreaker("oddsapi", CircuitBreakerConfig{}, logger)
	}
	return &CollectorService{
		client:  client,
		store:   store,
		breaker: breaker,
		retrier: NewRetrier(DefaultRetryPolicies()["api_call"], IsRetryableAPIError, logger),
		config:  cfg,
		tracer:  telemetry.NewBusinessTracer(),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the collection loop
func (c *CollectorService) Start() error {
	if !c.config.Enabled {
		c.logger.Info("Odds collector is disabled in configuration")
		return nil
	}

	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return fmt.Errorf("collector service is already running")
	}
	c.isRunning = true
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"interval": c.config.GetCollectionInterval().String(),
		"sports":   len(c.config.Sports),
		"regions":  c.config.Regions,
	}).Info("Starting odds collector service")

	c.wg.Add(1)
	go c.run()
	return nil
}

// Stop gracefully stops the collection loop
func (c *CollectorService) Stop() {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return
	}
	c.isRunning = false
	c.mu.Unlock()

	c.logger.Info("Stopping odds collector service")
	c.cancel()
	c.wg.Wait()
	c.logger.Info("Odds collector service stopped")
}

// IsRunning reports whether the loop is active
func (c *CollectorService) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isRunning
}

// LastSummary returns the result of the most recent run, if any
func (c *CollectorService) LastSummary() (*CollectionSummary, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSummary, c.lastUpdate
}

// BreakerStats exposes the provider circuit breaker state
func (c *CollectorService) BreakerStats() CircuitBreakerStats {
	return c.breaker.GetStats()
}

func (c *CollectorService) run() {
	defer c.wg.Done()

	c.collectAndLog()

	ticker := time.NewTicker(c.config.GetCollectionInterval())
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.collectAndLog()
		}
	}
}

func (c *CollectorService) collectAndLog() {
	if _, err := c.CollectOnce(c.ctx); err != nil && c.ctx.Err() == nil {
		c.logger.WithError(err).Error("Odds collection failed")
	}
}

// CollectOnce fetches every selected sport and stores the normalized rows.
// Failures of single sports are reported in the summary; an error is
// returned only when nothing could be collected. Concurrent calls run one at
// a time.
func (c *CollectorService) CollectOnce(ctx context.Context) (*CollectionSummary, error) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	start := time.Now()
	summary := &CollectionSummary{Sports: []string{}, FailedSports: []string{}}

	sports, err := c.selectSports(ctx)
	if err != nil {
		return nil, err
	}
	summary.Sports = sports

	for i, sport := range sports {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		events, rows, err := c.collectSport(ctx, sport)
		if err != nil {
			c.logger.WithField("sport", sport).WithError(err).Warn("Failed to collect odds")
			if errors.Is(err, ErrCircuitOpen) {
				summary.FailedSports = append(summary.FailedSports, sports[i:]...)
				break
			}
			summary.FailedSports = append(summary.FailedSports, sport)
			continue
		}
		summary.Events += events
		summary.Rows += rows
	}

	summary.QuotaRemaining = c.client.Quota().Remaining
	summary.Duration = time.Since(start)

	c.mu.Lock()
	c.lastSummary = summary
	c.lastUpdate = c.now()
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"sports":          len(summary.Sports),
		"failed":          len(summary.FailedSports),
		"events":          summary.Events,
		"rows":            summary.Rows,
		"quota_remaining": summary.QuotaRemaining,
		"duration_ms":     summary.Duration.Milliseconds(),
	}).Info("Odds collection completed")

	if len(sports) > 0 && len(summary.FailedSports) == len(sports) {
		return summary, fmt.Errorf("all %d sports failed to collect", len(sports))
	}
	return summary, nil
}

// selectSports intersects the configured sports with what the provider
// currently offers.
func (c *CollectorService) selectSports(ctx context.Context) ([]string, error) {
	var offered []oddsapi.Sport
	err := c.call(ctx, "oddsapi.get_sports", func(ctx context.Context) error {
		var err error
		offered, err = c.client.GetSports(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sports: %w", err)
	}

	selected := oddsapi.SelectSports(offered, c.config.Sports)
	if selected == nil {
		selected = []string{}
	}
	return selected, nil
}

// call runs a provider request behind the circuit breaker, retrying
// transient failures.
func (c *CollectorService) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	return c.retrier.Do(ctx, operation, func(ctx context.Context) error {
		return c.breaker.Execute(ctx, fn)
	})
}

func (c *CollectorService) collectSport(ctx context.Context, sport string) (int, int, error) {
	ctx, span := c.tracer.TraceOddsCollection(ctx, sport)
	defer span.End()
	start := time.Now()

	var events []oddsapi.Event
	err := c.call(ctx, "oddsapi.get_odds", func(ctx context.Context) error {
		var err error
		events, err = c.client.GetOdds(ctx, sport)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, 0, err
	}

	rows := oddsapi.NormalizePayload(events, c.config.AllowedBooks, c.now())
	stored, err := c.store.UpsertOdds(ctx, rows)
	if err != nil {
		telemetry.RecordError(span, err)
		return len(events), 0, fmt.Errorf("failed to store odds for %s: %w", sport, err)
	}

	c.tracer.RecordCollectionMetrics(span, telemetry.CollectionMetrics{
		Events:         len(events),
		Rows:           stored,
		QuotaRemaining: c.client.Quota().Remaining,
		Duration:       time.Since(start),
	})
	return len(events), stored, nil
}
