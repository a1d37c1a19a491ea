package arbitrage

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/irfndi/celebrum-odds/internal/models"
)

// BatchResult is the outcome of evaluating one snapshot of a batch.
// Opportunity is nil when the snapshot holds no arbitrage or failed.
type BatchResult struct {
	Index       int
	Snapshot    models.MarketSnapshot
	Opportunity *models.ArbitrageOpportunity
	Err         error
}

// DetectBatch runs DetectOpportunity over snapshots using at most workers
// goroutines. Results are returned in input order. Per-snapshot errors are
// stored on the result and do not stop the batch. When ctx is cancelled no
// further snapshots are scheduled and ctx.Err() is returned with the partial
// results.
func DetectBatch(ctx context.Context, snapshots []models.MarketSnapshot, workers int) ([]BatchResult, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]BatchResult, len(snapshots))
	evaluated := make([]bool, len(snapshots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range snapshots {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = BatchResult{Index: i, Snapshot: snapshots[i], Err: err}
				return nil
			}
			opp, _, err := DetectOpportunity(snapshots[i])
			results[i] = BatchResult{Index: i, Snapshot: snapshots[i], Opportunity: opp, Err: err}
			evaluated[i] = true
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		for i := range results {
			if !evaluated[i] && results[i].Err == nil {
				results[i] = BatchResult{Index: i, Snapshot: snapshots[i], Err: err}
			}
		}
		return results, err
	}
	return results, nil
}
