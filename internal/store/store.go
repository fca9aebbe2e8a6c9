// Package store persists company inputs and enriched records, keyed by
// website. Postgres backs production; SQLite backs local runs.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"github.com/leadlab/enrich-cli/internal/model"
)

// ErrNotFound is returned when no record exists for the requested website.
var ErrNotFound = eris.New("store: record not found")

// Filter specifies criteria for listing queued companies.
type Filter struct {
	// Industry restricts to one industry label when non-empty.
	Industry string `json:"industry,omitempty"`

	// Unenriched keeps only companies without a stored ok record.
	Unenriched bool `json:"unenriched,omitempty"`

	// Limit caps the result size; 0 means the default of 100.
	Limit int `json:"limit,omitempty"`
}

// Store defines the persistence interface for the enrichment pipeline.
type Store interface {
	// UpsertEnriched writes a full enriched record, replacing any prior
	// record for the same website in one atomic statement.
	UpsertEnriched(ctx context.Context, rec *model.EnrichedRecord) error

	// GetStatus returns the stored status for a website, or ErrNotFound.
	GetStatus(ctx context.Context, website string) (model.Status, error)

	// ListCompanies returns queued company inputs matching the filter.
	ListCompanies(ctx context.Context, filter Filter) ([]model.CompanyInput, error)

	// InsertCompanies adds company inputs to the queue, skipping websites
	// already present. Returns the number of new rows.
	InsertCompanies(ctx context.Context, companies []model.CompanyInput) (int, error)

	// CountByStatus returns enriched record counts grouped by status.
	CountByStatus(ctx context.Context) (map[model.Status]int, error)

	// RecentFailures samples the most recent non-ok records.
	RecentFailures(ctx context.Context, limit int) ([]model.Outcome, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Pool is the subset of pgxpool.Pool the Postgres store uses. pgxmock
// satisfies it for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}
