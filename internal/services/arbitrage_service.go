package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/celebrum-odds/internal/config"
	"github.com/irfndi/celebrum-odds/internal/models"
	"github.com/irfndi/celebrum-odds/internal/telemetry"
)

// ArbitrageService runs the detection pass on a timer, caches the result and
// raises alerts for the best opportunities.
type ArbitrageService struct {
	finder   *OpportunityFinder
	cache    OpportunityStore
	notifier OpportunityNotifier
	config   config.ArbitrageConfig
	tracer   *telemetry.BusinessTracer

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.RWMutex
	logger    *logrus.Logger

	lastCalculation    time.Time
	opportunitiesFound int
	lastPass           *models.ArbitragePass
}

// NewArbitrageService creates a new arbitrage service instance. cache and
// notifier may be nil.
func NewArbitrageService(finder *OpportunityFinder, cache OpportunityStore, notifier OpportunityNotifier, cfg config.ArbitrageConfig, logger *logrus.Logger) *ArbitrageService {
	ctx, cancel := context.WithCancel(context.Background())
	if logger == nil {
		logger = logrus.New()
	}

	return &ArbitrageService{
		finder:   finder,
		cache:    cache,
		notifier: notifier,
		config:   cfg,
		tracer:   telemetry.NewBusinessTracer(),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
	}
}

// Start begins the periodic arbitrage calculation
func (s *ArbitrageService) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Arbitrage service is disabled in configuration")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("arbitrage service is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"interval":        s.config.GetCheckInterval().String(),
		"min_margin":      s.config.MinMarginPercent,
		"alert_margin":    s.config.AlertMarginPercent,
		"default_stake":   s.config.DefaultStake,
		"min_hours_ahead": s.config.MinHoursAhead,
		"workers":         s.config.Workers,
	}).Info("Starting arbitrage service")

	s.wg.Add(1)
	go s.calculationLoop()

	return nil
}

// Stop gracefully shuts down the arbitrage service
func (s *ArbitrageService) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	s.logger.Info("Stopping arbitrage service")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("Arbitrage service stopped")
}

// IsRunning returns true if the service is currently running
func (s *ArbitrageService) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns whether the loop is running, when the last pass finished
// and how many opportunities it found.
func (s *ArbitrageService) GetStatus() (bool, time.Time, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning, s.lastCalculation, s.opportunitiesFound
}

func (s *ArbitrageService) calculationLoop() {
	defer s.wg.Done()

	if _, err := s.RunPass(s.ctx); err != nil && s.ctx.Err() == nil {
		s.logger.WithError(err).Error("Initial arbitrage calculation failed")
	}

	ticker := time.NewTicker(s.config.GetCheckInterval())
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunPass(s.ctx); err != nil && s.ctx.Err() == nil {
				s.logger.WithError(err).Error("Arbitrage calculation failed")
			}
		}
	}
}

// RunPass evaluates all upcoming stored odds once, caches the ranked result
// and sends alerts for opportunities at or above the alert margin.
func (s *ArbitrageService) RunPass(ctx context.Context) (*models.ArbitragePass, error) {
	start := time.Now()
	ctx, span := s.tracer.TraceDetectionPass(ctx, nil, nil)
	defer span.End()

	rows, err := s.finder.LoadRows(ctx, RowFilter{
		MinHoursAhead: s.config.MinHoursAhead,
		MaxQuoteAge:   s.config.GetMaxQuoteAge(),
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var stake *decimal.Decimal
	if s.config.DefaultStake > 0 {
		d := decimal.NewFromFloat(s.config.DefaultStake)
		stake = &d
	}

	eval, err := s.finder.Evaluate(ctx, rows, s.config.MinMarginPercent, stake)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("arbitrage detection pass: %w", err)
	}

	pass := &models.ArbitragePass{
		Opportunities: eval.Opportunities,
		Snapshots:     eval.Snapshots,
		Rejected:      eval.Rejected,
		GeneratedAt:   time.Now().UTC(),
	}

	metrics := telemetry.DetectionMetrics{
		Rows:          len(rows),
		Snapshots:     pass.Snapshots,
		Opportunities: len(pass.Opportunities),
		Rejected:      pass.Rejected,
		Duration:      time.Since(start),
	}
	if len(pass.Opportunities) > 0 {
		metrics.BestMarginPercent = pass.Opportunities[0].Opportunity.ProfitMarginPercent
	}
	s.tracer.RecordDetectionPass(span, metrics)

	s.mu.Lock()
	s.lastCalculation = pass.GeneratedAt
	s.opportunitiesFound = len(pass.Opportunities)
	s.lastPass = pass
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.StoreLatest(ctx, *pass); err != nil {
			s.logger.WithError(err).Warn("Failed to cache arbitrage pass")
		}
	}

	s.alert(ctx, pass.Opportunities)

	s.logger.WithFields(logrus.Fields{
		"duration_ms":   metrics.Duration.Milliseconds(),
		"rows":          metrics.Rows,
		"snapshots":     pass.Snapshots,
		"rejected":      pass.Rejected,
		"opportunities": len(pass.Opportunities),
	}).Info("Arbitrage calculation completed")

	return pass, nil
}

func (s *ArbitrageService) alert(ctx context.Context, opps []models.PlannedOpportunity) {
	if s.notifier == nil {
		return
	}
	var alerts []models.PlannedOpportunity
	for _, o := range opps {
		if o.Opportunity.ProfitMarginPercent >= s.config.AlertMarginPercent {
			alerts = append(alerts, o)
		}
	}
	if len(alerts) == 0 {
		return
	}
	sent, err := s.notifier.NotifyOpportunities(ctx, alerts)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to send arbitrage alerts")
		return
	}
	if sent > 0 {
		s.logger.WithField("sent", sent).Info("Sent arbitrage alerts")
	}
}

// LatestPass returns the cached pass, falling back to the last pass run by
// this process. It returns nil when no pass has run yet.
func (s *ArbitrageService) LatestPass(ctx context.Context) *models.ArbitragePass {
	if s.cache != nil {
		pass, found, err := s.cache.Latest(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to read cached arbitrage pass")
		} else if found {
			return pass
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPass
}
