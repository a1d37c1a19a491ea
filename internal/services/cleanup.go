package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/celebrum-odds/internal/config"
)

// CleanupResult reports one cleanup run.
type CleanupResult struct {
	Deleted       int64     `json:"deleted"`
	StartedBefore time.Time `json:"started_before"`
	UpdatedBefore time.Time `json:"updated_before"`
}

// CleanupService handles automatic cleanup of old odds
type CleanupService struct {
	store  OddsStore
	config config.CleanupConfig
	logger *logrus.Logger
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(store OddsStore, cfg config.CleanupConfig, logger *logrus.Logger) *CleanupService {
	ctx, cancel := context.WithCancel(context.Background())
	if logger == nil {
		logger = logrus.New()
	}
	return &CleanupService{
		store:  store,
		config: cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *CleanupService) retention() time.Duration {
	if c.config.OddsRetentionHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.config.OddsRetentionHours) * time.Hour
}

func (c *CleanupService) interval() time.Duration {
	if c.config.CleanupIntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.config.CleanupIntervalMinutes) * time.Minute
}

// Start begins the cleanup service with periodic cleanup
func (c *CleanupService) Start() {
	c.logger.WithFields(logrus.Fields{
		"retention": c.retention().String(),
		"interval":  c.interval().String(),
	}).Info("Starting cleanup service")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		c.runAndLog()

		ticker := time.NewTicker(c.interval())
		defer ticker.Stop()
		for {
			select {
			case <-c.ctx.Done():
				return
			case <-ticker.C:
				c.runAndLog()
			}
		}
	}()
}

// Stop stops the cleanup service
func (c *CleanupService) Stop() {
	c.once.Do(func() {
		c.logger.Info("Stopping cleanup service")
		c.cancel()
		c.wg.Wait()
	})
}

func (c *CleanupService) runAndLog() {
	if _, err := c.RunCleanup(c.ctx); err != nil && c.ctx.Err() == nil {
		c.logger.WithError(err).Error("Cleanup failed")
	}
}

// RunCleanup deletes odds for events that already started and quotes older
// than the retention window.
func (c *CleanupService) RunCleanup(ctx context.Context) (CleanupResult, error) {
	now := c.now()
	result := CleanupResult{
		StartedBefore: now,
		UpdatedBefore: now.Add(-c.retention()),
	}

	deleted, err := c.store.DeleteStale(ctx, result.StartedBefore, result.UpdatedBefore)
	if err != nil {
		return result, err
	}
	result.Deleted = deleted

	if deleted > 0 {
		c.logger.WithField("deleted", deleted).Info("Cleaned up stale odds")
	} else {
		c.logger.Debug("No stale odds to clean up")
	}
	return result, nil
}
