package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/leadlab/enrich-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	website         TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	industry        TEXT NOT NULL DEFAULT '',
	prefecture_hint TEXT NOT NULL DEFAULT '',
	inquiry_url     TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_companies_industry ON companies(industry);

CREATE TABLE IF NOT EXISTS enriched_companies (
	website                   TEXT PRIMARY KEY,
	name                      TEXT NOT NULL,
	name_legal                TEXT NOT NULL DEFAULT '',
	industry                  TEXT NOT NULL DEFAULT '',
	status                    TEXT NOT NULL,
	hq_address_raw            TEXT NOT NULL DEFAULT '',
	prefecture_name           TEXT NOT NULL DEFAULT '',
	overview_text             TEXT NOT NULL DEFAULT '',
	services_text             TEXT NOT NULL DEFAULT '',
	products_text             TEXT NOT NULL DEFAULT '',
	pain_hypotheses           JSONB NOT NULL DEFAULT '[]',
	personalization_notes     TEXT NOT NULL DEFAULT '',
	employee_count            INTEGER,
	employee_count_source_url TEXT NOT NULL DEFAULT '',
	last_crawled_at           TIMESTAMPTZ NOT NULL,
	signals                   JSONB
);

CREATE INDEX IF NOT EXISTS idx_enriched_status ON enriched_companies(status);
CREATE INDEX IF NOT EXISTS idx_enriched_prefecture ON enriched_companies(prefecture_name);
CREATE INDEX IF NOT EXISTS idx_enriched_last_crawled ON enriched_companies(last_crawled_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const upsertEnrichedSQL = `
INSERT INTO enriched_companies (
	website, name, name_legal, industry, status,
	hq_address_raw, prefecture_name,
	overview_text, services_text, products_text,
	pain_hypotheses, personalization_notes,
	employee_count, employee_count_source_url,
	last_crawled_at, signals
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (website) DO UPDATE SET
	name = EXCLUDED.name,
	name_legal = EXCLUDED.name_legal,
	industry = EXCLUDED.industry,
	status = EXCLUDED.status,
	hq_address_raw = EXCLUDED.hq_address_raw,
	prefecture_name = EXCLUDED.prefecture_name,
	overview_text = EXCLUDED.overview_text,
	services_text = EXCLUDED.services_text,
	products_text = EXCLUDED.products_text,
	pain_hypotheses = EXCLUDED.pain_hypotheses,
	personalization_notes = EXCLUDED.personalization_notes,
	employee_count = EXCLUDED.employee_count,
	employee_count_source_url = EXCLUDED.employee_count_source_url,
	last_crawled_at = EXCLUDED.last_crawled_at,
	signals = EXCLUDED.signals`

func (s *PostgresStore) UpsertEnriched(ctx context.Context, rec *model.EnrichedRecord) error {
	if rec.Website == "" {
		return eris.New("postgres: upsert: empty website key")
	}

	painsJSON, err := json.Marshal(rec.PainHypotheses)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal pain hypotheses")
	}
	var signalsJSON []byte
	if rec.Signals != nil {
		if signalsJSON, err = json.Marshal(rec.Signals); err != nil {
			return eris.Wrap(err, "postgres: marshal signals")
		}
	}

	_, err = s.pool.Exec(ctx, upsertEnrichedSQL,
		rec.Website, rec.Name, rec.NameLegal, rec.Industry, string(rec.Status),
		rec.HQAddressRaw, rec.PrefectureName,
		rec.OverviewText, rec.ServicesText, rec.ProductsText,
		painsJSON, rec.PersonalizationNotes,
		rec.EmployeeCount, rec.EmployeeCountSourceURL,
		rec.LastCrawledAt, signalsJSON,
	)
	return eris.Wrapf(err, "postgres: upsert enriched %s", rec.Website)
}

func (s *PostgresStore) GetStatus(ctx context.Context, website string) (model.Status, error) {
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM enriched_companies WHERE website = $1`,
		website,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", eris.Wrapf(err, "postgres: get status %s", website)
	}
	return model.Status(status), nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context, filter Filter) ([]model.CompanyInput, error) {
	query := `SELECT c.website, c.name, c.industry, c.prefecture_hint, c.inquiry_url
	          FROM companies c`
	args := []any{}
	argIdx := 1

	if filter.Unenriched {
		query += ` LEFT JOIN enriched_companies e ON e.website = c.website`
	}
	query += ` WHERE true`
	if filter.Unenriched {
		query += ` AND (e.status IS NULL OR e.status <> 'ok')`
	}
	if filter.Industry != "" {
		query += fmt.Sprintf(` AND c.industry = $%d`, argIdx)
		args = append(args, filter.Industry)
		argIdx++
	}
	query += ` ORDER BY c.created_at`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var companies []model.CompanyInput
	for rows.Next() {
		var c model.CompanyInput
		if err := rows.Scan(&c.Website, &c.Name, &c.Industry, &c.PrefectureHint, &c.InquiryURL); err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		companies = append(companies, c)
	}
	return companies, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}

func (s *PostgresStore) InsertCompanies(ctx context.Context, companies []model.CompanyInput) (int, error) {
	inserted := 0
	for _, c := range companies {
		if c.Website == "" {
			continue
		}
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO companies (website, name, industry, prefecture_hint, inquiry_url)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (website) DO NOTHING`,
			c.Website, c.Name, c.Industry, c.PrefectureHint, c.InquiryURL,
		)
		if err != nil {
			return inserted, eris.Wrapf(err, "postgres: insert company %s", c.Website)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM enriched_companies GROUP BY status`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count by status")
	}
	defer rows.Close()

	counts := make(map[model.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan status count")
		}
		counts[model.Status(status)] = count
	}
	return counts, eris.Wrap(rows.Err(), "postgres: count by status iterate")
}

func (s *PostgresStore) RecentFailures(ctx context.Context, limit int) ([]model.Outcome, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx,
		`SELECT website, status, COALESCE(signals->>'error', '')
		 FROM enriched_companies
		 WHERE status IN ('failed', 'parse_error')
		 ORDER BY last_crawled_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: recent failures")
	}
	defer rows.Close()

	var outcomes []model.Outcome
	for rows.Next() {
		var o model.Outcome
		var status string
		if err := rows.Scan(&o.Website, &status, &o.Error); err != nil {
			return nil, eris.Wrap(err, "postgres: scan failure")
		}
		o.Status = model.Status(status)
		outcomes = append(outcomes, o)
	}
	return outcomes, eris.Wrap(rows.Err(), "postgres: recent failures iterate")
}
