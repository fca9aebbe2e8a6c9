package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadlab/enrich-cli/internal/monitoring"
	"github.com/leadlab/enrich-cli/internal/store"
)

// Coordinator splits the queued companies into fixed-size batches and runs
// them sequentially, cooling down between batches to spread provider load.
type Coordinator struct {
	dispatcher *Dispatcher
	store      store.Store
	batchSize  int
	cooldown   time.Duration
}

// NewCoordinator creates a coordinator over the given dispatcher and store.
func NewCoordinator(d *Dispatcher, st store.Store, batchSize int, cooldown time.Duration) *Coordinator {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Coordinator{
		dispatcher: d,
		store:      st,
		batchSize:  batchSize,
		cooldown:   cooldown,
	}
}

// RunBatches lists companies matching the filter and dispatches them in
// batches. Returns aggregate stats across all batches.
func (c *Coordinator) RunBatches(ctx context.Context, filter store.Filter) (*Stats, error) {
	companies, err := c.store.ListCompanies(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "coordinator: list companies")
	}

	runID := uuid.NewString()
	log := zap.L().With(zap.String("run_id", runID))

	if len(companies) == 0 {
		log.Info("no companies to enrich")
		return &Stats{}, nil
	}

	batches := (len(companies) + c.batchSize - 1) / c.batchSize
	log.Info("starting batch run",
		zap.Int("companies", len(companies)),
		zap.Int("batches", batches),
		zap.Int("batch_size", c.batchSize),
	)

	progress := monitoring.NewProgress(len(companies))
	total := &Stats{}

	for i := 0; i < len(companies); i += c.batchSize {
		end := min(i+c.batchSize, len(companies))
		batchNum := i/c.batchSize + 1

		stats, err := c.dispatcher.Dispatch(ctx, companies[i:end], progress)
		total.merge(stats)
		if err != nil {
			return total, eris.Wrapf(err, "coordinator: batch %d/%d", batchNum, batches)
		}

		snap := progress.Snapshot()
		log.Info("batch complete",
			zap.Int("batch", batchNum),
			zap.Int("batches", batches),
			zap.Int("processed", snap.Processed),
			zap.Int("succeeded", snap.Succeeded),
			zap.Int("failed", snap.Failed),
			zap.Int("skipped", snap.Skipped),
			zap.Float64("rate_per_min", snap.RatePerMin),
			zap.Duration("eta", snap.ETA),
		)

		if end < len(companies) && c.cooldown > 0 {
			select {
			case <-ctx.Done():
				return total, eris.Wrap(ctx.Err(), "coordinator: cooldown interrupted")
			case <-time.After(c.cooldown):
			}
		}
	}

	log.Info("batch run complete",
		zap.Int("total", total.Total),
		zap.Int("succeeded", total.Succeeded),
		zap.Int("failed", total.Failed),
		zap.Int("skipped", total.Skipped),
	)
	return total, nil
}
