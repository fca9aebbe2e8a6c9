// Package dispatch fans companies out to the enrichment pipeline with bounded
// concurrency, idempotent skips, and per-company error containment.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/leadlab/enrich-cli/internal/model"
	"github.com/leadlab/enrich-cli/internal/monitoring"
	"github.com/leadlab/enrich-cli/internal/store"
)

// maxErrorDetails bounds the per-batch error sample kept in Stats.
const maxErrorDetails = 20

// Runner executes the enrichment pipeline for one company.
type Runner interface {
	Run(ctx context.Context, in model.CompanyInput) (*model.EnrichedRecord, error)
}

// Stats aggregates per-company outcomes for one dispatch.
type Stats struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`

	// ErrorDetails samples up to maxErrorDetails failed outcomes.
	ErrorDetails []model.Outcome `json:"error_details,omitempty"`
}

func (s *Stats) add(o model.Outcome) {
	s.Processed++
	switch o.Status {
	case model.StatusOK, model.StatusParseError:
		s.Succeeded++
	case model.StatusSkipped:
		s.Skipped++
	default:
		s.Failed++
		if len(s.ErrorDetails) < maxErrorDetails {
			s.ErrorDetails = append(s.ErrorDetails, o)
		}
	}
}

// merge folds another dispatch's stats into this one.
func (s *Stats) merge(other *Stats) {
	s.Total += other.Total
	s.Processed += other.Processed
	s.Succeeded += other.Succeeded
	s.Failed += other.Failed
	s.Skipped += other.Skipped
	for _, o := range other.ErrorDetails {
		if len(s.ErrorDetails) >= maxErrorDetails {
			break
		}
		s.ErrorDetails = append(s.ErrorDetails, o)
	}
}

// Dispatcher runs companies through the pipeline concurrently and persists
// every outcome.
type Dispatcher struct {
	runner      Runner
	store       store.Store
	concurrency int
	nowFunc     func() time.Time
}

// NewDispatcher creates a dispatcher with the given worker limit.
func NewDispatcher(runner Runner, st store.Store, concurrency int) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &Dispatcher{
		runner:      runner,
		store:       st,
		concurrency: concurrency,
		nowFunc:     time.Now,
	}
}

// Dispatch processes every company and returns aggregate stats. Individual
// failures never abort the batch; only context cancellation does.
func (d *Dispatcher) Dispatch(ctx context.Context, companies []model.CompanyInput, progress *monitoring.Progress) (*Stats, error) {
	stats := &Stats{Total: len(companies)}
	if len(companies) == 0 {
		return stats, nil
	}

	var mu sync.Mutex
	record := func(o model.Outcome) {
		mu.Lock()
		stats.add(o)
		mu.Unlock()
		if progress != nil {
			progress.Record(o.Status)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for _, company := range companies {
		g.Go(func() error {
			outcome, err := d.processOne(gctx, company)
			if err != nil {
				return err
			}
			record(outcome)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, eris.Wrap(err, "dispatch: batch aborted")
	}
	return stats, nil
}

// processOne enriches a single company. A stored ok record short-circuits the
// pipeline entirely so re-runs cost nothing. Only context cancellation is
// returned as an error.
func (d *Dispatcher) processOne(ctx context.Context, company model.CompanyInput) (outcome model.Outcome, err error) {
	log := zap.L().With(zap.String("website", company.Website))
	outcome.Website = company.Website

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panicked", zap.Any("panic", r), zap.Stack("stack"))
			outcome = d.containFailure(ctx, company, fmt.Errorf("panic: %v", r))
			err = nil
		}
	}()

	status, getErr := d.store.GetStatus(ctx, company.Website)
	if getErr != nil && !errors.Is(getErr, store.ErrNotFound) {
		log.Warn("status lookup failed, enriching anyway", zap.Error(getErr))
	}
	if getErr == nil && status == model.StatusOK {
		log.Info("already enriched, skipping")
		outcome.Status = model.StatusSkipped
		return outcome, nil
	}

	rec, runErr := d.runner.Run(ctx, company)
	if runErr != nil {
		if ctx.Err() != nil {
			return outcome, runErr
		}
		return d.containFailure(ctx, company, runErr), nil
	}

	if upErr := d.store.UpsertEnriched(ctx, rec); upErr != nil {
		log.Error("failed to persist record", zap.Error(upErr))
		outcome.Status = model.StatusFailed
		outcome.Error = upErr.Error()
		return outcome, nil
	}

	outcome.Status = rec.Status
	if detail, ok := rec.Signals["error"].(string); ok {
		outcome.Error = detail
	}
	log.Info("company enriched", zap.String("status", string(rec.Status)))
	return outcome, nil
}

// containFailure writes a failed record for a company the pipeline could not
// finish, so the batch keeps a persisted trace of the attempt.
func (d *Dispatcher) containFailure(ctx context.Context, company model.CompanyInput, cause error) model.Outcome {
	now := d.nowFunc().UTC()
	rec := &model.EnrichedRecord{
		Website:       company.Website,
		Name:          company.Name,
		Industry:      company.Industry,
		Status:        model.StatusFailed,
		LastCrawledAt: now,
		Signals: map[string]any{
			"error":                cause.Error(),
			"processing_timestamp": now.Format(time.RFC3339),
		},
	}
	if err := d.store.UpsertEnriched(ctx, rec); err != nil {
		zap.L().Error("failed to persist failure record",
			zap.String("website", company.Website),
			zap.Error(err),
		)
	}
	return model.Outcome{
		Website: company.Website,
		Status:  model.StatusFailed,
		Error:   cause.Error(),
	}
}
