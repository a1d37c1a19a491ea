package database

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS odds (
		id BIGSERIAL PRIMARY KEY,
		sportsbook TEXT NOT NULL,
		league TEXT NOT NULL DEFAULT '',
		event TEXT NOT NULL,
		market TEXT NOT NULL,
		outcome TEXT NOT NULL,
		line TEXT,
		odds_decimal DOUBLE PRECISION NOT NULL,
		odds_american TEXT,
		event_date DATE,
		commence_time TIMESTAMPTZ,
		last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS odds_identity_idx
		ON odds (sportsbook, league, event, market, outcome, (COALESCE(line, '')))`,
	`CREATE INDEX IF NOT EXISTS odds_event_idx ON odds (event)`,
	`CREATE INDEX IF NOT EXISTS odds_sportsbook_idx ON odds (sportsbook)`,
	`CREATE INDEX IF NOT EXISTS odds_commence_time_idx ON odds (commence_time)`,
}

// EnsureSchema creates the odds table and its indexes when missing.
func EnsureSchema(ctx context.Context, pool DatabasePool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
