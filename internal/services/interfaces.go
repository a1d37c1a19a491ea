package services

import (
	"context"
	"time"

	"github.com/irfndi/celebrum-odds/internal/database"
	"github.com/irfndi/celebrum-odds/internal/models"
)

// OddsStore is the persistence the services need. *database.OddsRepository
// satisfies it.
type OddsStore interface {
	UpsertOdds(ctx context.Context, rows []models.OddsRecord) (int, error)
	ListOdds(ctx context.Context, filter database.OddsFilter) ([]models.OddsRecord, error)
	DeleteStale(ctx context.Context, startedBefore, updatedBefore time.Time) (int64, error)
}

// OpportunityStore caches detection passes and alert markers.
// *cache.OpportunityCache satisfies it.
type OpportunityStore interface {
	StoreLatest(ctx context.Context, pass models.ArbitragePass) error
	Latest(ctx context.Context) (*models.ArbitragePass, bool, error)
	MarkNotified(ctx context.Context, opportunityID string, cooldown time.Duration) (bool, error)
}

// OpportunityNotifier delivers alerts and returns how many were sent.
type OpportunityNotifier interface {
	NotifyOpportunities(ctx context.Context, opportunities []models.PlannedOpportunity) (int, error)
}
