// Package monitoring tracks batch progress and summarizes stored outcomes.
package monitoring

import (
	"sync"
	"time"

	"github.com/leadlab/enrich-cli/internal/model"
)

// ProgressSnapshot is a point-in-time view of a running batch.
type ProgressSnapshot struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`

	Elapsed    time.Duration `json:"elapsed"`
	RatePerMin float64       `json:"rate_per_min"`
	// ETA estimates time remaining at the current rate; zero when the rate
	// is still unknown.
	ETA time.Duration `json:"eta"`
}

// Progress counts per-company outcomes as a batch runs. Safe for concurrent
// use by dispatcher workers.
type Progress struct {
	mu        sync.Mutex
	total     int
	processed int
	succeeded int
	failed    int
	skipped   int
	startedAt time.Time
	nowFunc   func() time.Time
}

// NewProgress starts tracking a batch of the given size.
func NewProgress(total int) *Progress {
	return newProgressAt(total, time.Now)
}

func newProgressAt(total int, nowFunc func() time.Time) *Progress {
	return &Progress{
		total:     total,
		startedAt: nowFunc(),
		nowFunc:   nowFunc,
	}
}

// Record counts one finished company by its persisted status.
func (p *Progress) Record(status model.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	switch status {
	case model.StatusOK, model.StatusParseError:
		p.succeeded++
	case model.StatusSkipped:
		p.skipped++
	default:
		p.failed++
	}
}

// Snapshot returns current counts with rate and ETA derived from elapsed time.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := ProgressSnapshot{
		Total:     p.total,
		Processed: p.processed,
		Succeeded: p.succeeded,
		Failed:    p.failed,
		Skipped:   p.skipped,
		Elapsed:   p.nowFunc().Sub(p.startedAt),
	}
	if snap.Elapsed > 0 && snap.Processed > 0 {
		snap.RatePerMin = float64(snap.Processed) / snap.Elapsed.Minutes()
		remaining := snap.Total - snap.Processed
		if remaining > 0 {
			perItem := snap.Elapsed / time.Duration(snap.Processed)
			snap.ETA = perItem * time.Duration(remaining)
		}
	}
	return snap
}
