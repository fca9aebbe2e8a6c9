package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/leadlab/enrich-cli/internal/model"
	"github.com/leadlab/enrich-cli/internal/store"
)

// MetricsSnapshot summarizes every enriched record currently stored.
type MetricsSnapshot struct {
	Total      int `json:"total"`
	OK         int `json:"ok"`
	ParseError int `json:"parse_error"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`

	// FailRate is failed over total, ignoring skips.
	FailRate float64 `json:"fail_rate"`

	// RecentFailures samples the latest non-ok records with their error
	// detail, newest first.
	RecentFailures []model.Outcome `json:"recent_failures,omitempty"`

	CollectedAt time.Time `json:"collected_at"`
}

// Collector gathers stored enrichment outcomes into a snapshot.
type Collector struct {
	store store.Store
}

// NewCollector creates a metrics collector over the given store.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect builds a snapshot of stored statuses plus a failure sample of the
// given size.
func (c *Collector) Collect(ctx context.Context, failureSample int) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		CollectedAt: time.Now().UTC(),
	}

	counts, err := c.store.CountByStatus(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: count by status")
	}
	snap.OK = counts[model.StatusOK]
	snap.ParseError = counts[model.StatusParseError]
	snap.Failed = counts[model.StatusFailed]
	snap.Skipped = counts[model.StatusSkipped]
	snap.Total = snap.OK + snap.ParseError + snap.Failed + snap.Skipped

	attempted := snap.Total - snap.Skipped
	if attempted > 0 {
		snap.FailRate = float64(snap.Failed) / float64(attempted)
	}

	if failureSample > 0 {
		failures, err := c.store.RecentFailures(ctx, failureSample)
		if err != nil {
			return nil, eris.Wrap(err, "monitoring: recent failures")
		}
		snap.RecentFailures = failures
	}

	return snap, nil
}
