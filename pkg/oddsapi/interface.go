package oddsapi

import (
	"context"
)

// OddsClient defines the low-level provider operations
type OddsClient interface {
	GetSports(ctx context.Context) ([]Sport, error)
	GetOdds(ctx context.Context, sportKey string) ([]Event, error)
	Quota() Quota
	Close() error
}

// Ensure our implementation satisfies the interface
var _ OddsClient = (*Client)(nil)
