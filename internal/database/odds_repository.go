package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/irfndi/celebrum-odds/internal/models"
)

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	// Begin starts a transaction.
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OddsFilter narrows ListOdds. Empty slices match everything.
type OddsFilter struct {
	Leagues       []string
	Markets       []string
	Sportsbooks   []string
	CommenceAfter *time.Time
}

// OddsRepository handles database operations for bookmaker prices.
type OddsRepository struct {
	pool DatabasePool
}

// NewOddsRepository creates a new odds repository.
func NewOddsRepository(pool DatabasePool) *OddsRepository {
	return &OddsRepository{pool: pool}
}

const upsertOddsSQL = `
		INSERT INTO odds (sportsbook, league, event, market, outcome, line,
			odds_decimal, odds_american, commence_time, event_date, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::text::date, $11)
		ON CONFLICT (sportsbook, league, event, market, outcome, (COALESCE(line, '')))
		DO UPDATE SET
			odds_decimal = EXCLUDED.odds_decimal,
			odds_american = EXCLUDED.odds_american,
			commence_time = EXCLUDED.commence_time,
			event_date = EXCLUDED.event_date,
			last_updated = EXCLUDED.last_updated`

// UpsertOdds inserts or refreshes rows in a single transaction, keyed by
// sportsbook, league, event, market, outcome and line.
func (r *OddsRepository) UpsertOdds(ctx context.Context, rows []models.OddsRecord) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, row := range rows {
		updated := row.LastUpdated
		if updated.IsZero() {
			updated = time.Now().UTC()
		}
		_, err := tx.Exec(ctx, upsertOddsSQL,
			row.Sportsbook, row.League, row.Event, row.Market, row.Outcome, row.Line,
			row.OddsDecimal, row.OddsAmerican, row.CommenceTime, row.EventDate, updated,
		)
		if err != nil {
			_ = tx.Rollback(ctx)
			return 0, fmt.Errorf("failed to upsert odds for %s/%s/%s: %w", row.Sportsbook, row.Event, row.Outcome, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit odds upsert: %w", err)
	}
	return len(rows), nil
}

const selectOddsSQL = `
		SELECT id, sportsbook, league, event, market, outcome, line,
			odds_decimal, COALESCE(odds_american, ''), commence_time, event_date::text, last_updated
		FROM odds`

// ListOdds returns stored rows matching the filter, ordered by id so that
// grouping downstream is stable.
func (r *OddsRepository) ListOdds(ctx context.Context, filter OddsFilter) ([]models.OddsRecord, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if len(filter.Leagues) > 0 {
		add("lower(league) = ANY($%d)", lowerAll(filter.Leagues))
	}
	if len(filter.Markets) > 0 {
		add("lower(market) = ANY($%d)", lowerAll(filter.Markets))
	}
	if len(filter.Sportsbooks) > 0 {
		add("sportsbook = ANY($%d)", filter.Sportsbooks)
	}
	if filter.CommenceAfter != nil {
		add("commence_time > $%d", *filter.CommenceAfter)
	}

	query := selectOddsSQL
	if len(conds) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	query += "\n\t\tORDER BY id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query odds: %w", err)
	}
	defer rows.Close()

	var records []models.OddsRecord
	for rows.Next() {
		var rec models.OddsRecord
		if err := rows.Scan(
			&rec.ID, &rec.Sportsbook, &rec.League, &rec.Event, &rec.Market, &rec.Outcome, &rec.Line,
			&rec.OddsDecimal, &rec.OddsAmerican, &rec.CommenceTime, &rec.EventDate, &rec.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan odds row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate odds rows: %w", err)
	}
	return records, nil
}

// DistinctLeagues lists the lowercase league keys present.
func (r *OddsRepository) DistinctLeagues(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT lower(league) FROM odds WHERE league <> '' ORDER BY 1`)
}

// DistinctMarkets lists the lowercase market keys present.
func (r *OddsRepository) DistinctMarkets(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT lower(market) FROM odds WHERE market <> '' ORDER BY 1`)
}

// DistinctSportsbooks lists the sportsbook titles present.
func (r *OddsRepository) DistinctSportsbooks(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT sportsbook FROM odds WHERE sportsbook <> '' ORDER BY 1`)
}

func (r *OddsRepository) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct values: %w", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan distinct value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// DeleteStale removes rows whose event started at or before startedBefore or
// whose price was last refreshed before updatedBefore.
func (r *OddsRepository) DeleteStale(ctx context.Context, startedBefore, updatedBefore time.Time) (int64, error) {
	query := `
		DELETE FROM odds
		WHERE (commence_time IS NOT NULL AND commence_time <= $1)
			OR last_updated < $2`

	tag, err := r.pool.Exec(ctx, query, startedBefore, updatedBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale odds: %w", err)
	}
	return tag.RowsAffected(), nil
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}
