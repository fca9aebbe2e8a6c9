package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/leadlab/enrich-cli/internal/model"
)

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	website         TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	industry        TEXT NOT NULL DEFAULT '',
	prefecture_hint TEXT NOT NULL DEFAULT '',
	inquiry_url     TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
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
	pain_hypotheses           TEXT NOT NULL DEFAULT '[]',
	personalization_notes     TEXT NOT NULL DEFAULT '',
	employee_count            INTEGER,
	employee_count_source_url TEXT NOT NULL DEFAULT '',
	last_crawled_at           DATETIME NOT NULL,
	signals                   TEXT
);

CREATE INDEX IF NOT EXISTS idx_enriched_status ON enriched_companies(status);
CREATE INDEX IF NOT EXISTS idx_enriched_prefecture ON enriched_companies(prefecture_name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertEnriched(ctx context.Context, rec *model.EnrichedRecord) error {
	if rec.Website == "" {
		return eris.New("sqlite: upsert: empty website key")
	}

	painsJSON, err := json.Marshal(rec.PainHypotheses)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal pain hypotheses")
	}
	var signalsJSON []byte
	if rec.Signals != nil {
		if signalsJSON, err = json.Marshal(rec.Signals); err != nil {
			return eris.Wrap(err, "sqlite: marshal signals")
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO enriched_companies (
			website, name, name_legal, industry, status,
			hq_address_raw, prefecture_name,
			overview_text, services_text, products_text,
			pain_hypotheses, personalization_notes,
			employee_count, employee_count_source_url,
			last_crawled_at, signals
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (website) DO UPDATE SET
			name = excluded.name,
			name_legal = excluded.name_legal,
			industry = excluded.industry,
			status = excluded.status,
			hq_address_raw = excluded.hq_address_raw,
			prefecture_name = excluded.prefecture_name,
			overview_text = excluded.overview_text,
			services_text = excluded.services_text,
			products_text = excluded.products_text,
			pain_hypotheses = excluded.pain_hypotheses,
			personalization_notes = excluded.personalization_notes,
			employee_count = excluded.employee_count,
			employee_count_source_url = excluded.employee_count_source_url,
			last_crawled_at = excluded.last_crawled_at,
			signals = excluded.signals`,
		rec.Website, rec.Name, rec.NameLegal, rec.Industry, string(rec.Status),
		rec.HQAddressRaw, rec.PrefectureName,
		rec.OverviewText, rec.ServicesText, rec.ProductsText,
		string(painsJSON), rec.PersonalizationNotes,
		rec.EmployeeCount, rec.EmployeeCountSourceURL,
		rec.LastCrawledAt, nullableString(signalsJSON),
	)
	return eris.Wrapf(err, "sqlite: upsert enriched %s", rec.Website)
}

func nullableString(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

func (s *SQLiteStore) GetStatus(ctx context.Context, website string) (model.Status, error) {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM enriched_companies WHERE website = ?`,
		website,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", eris.Wrapf(err, "sqlite: get status %s", website)
	}
	return model.Status(status), nil
}

func (s *SQLiteStore) ListCompanies(ctx context.Context, filter Filter) ([]model.CompanyInput, error) {
	query := `SELECT c.website, c.name, c.industry, c.prefecture_hint, c.inquiry_url
	          FROM companies c`
	args := []any{}

	if filter.Unenriched {
		query += ` LEFT JOIN enriched_companies e ON e.website = c.website`
	}
	query += ` WHERE true`
	if filter.Unenriched {
		query += ` AND (e.status IS NULL OR e.status <> 'ok')`
	}
	if filter.Industry != "" {
		query += ` AND c.industry = ?`
		args = append(args, filter.Industry)
	}
	query += ` ORDER BY c.created_at`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var companies []model.CompanyInput
	for rows.Next() {
		var c model.CompanyInput
		if err := rows.Scan(&c.Website, &c.Name, &c.Industry, &c.PrefectureHint, &c.InquiryURL); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		companies = append(companies, c)
	}
	return companies, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

func (s *SQLiteStore) InsertCompanies(ctx context.Context, companies []model.CompanyInput) (int, error) {
	inserted := 0
	for _, c := range companies {
		if c.Website == "" {
			continue
		}
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO companies (website, name, industry, prefecture_hint, inquiry_url)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (website) DO NOTHING`,
			c.Website, c.Name, c.Industry, c.PrefectureHint, c.InquiryURL,
		)
		if err != nil {
			return inserted, eris.Wrapf(err, "sqlite: insert company %s", c.Website)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, eris.Wrap(err, "sqlite: rows affected")
		}
		inserted += int(n)
	}
	return inserted, nil
}

func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM enriched_companies GROUP BY status`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count by status")
	}
	defer rows.Close()

	counts := make(map[model.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan status count")
		}
		counts[model.Status(status)] = count
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: count by status iterate")
}

func (s *SQLiteStore) RecentFailures(ctx context.Context, limit int) ([]model.Outcome, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT website, status, COALESCE(json_extract(signals, '$.error'), '')
		 FROM enriched_companies
		 WHERE status IN ('failed', 'parse_error')
		 ORDER BY last_crawled_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: recent failures")
	}
	defer rows.Close()

	var outcomes []model.Outcome
	for rows.Next() {
		var o model.Outcome
		var status string
		if err := rows.Scan(&o.Website, &status, &o.Error); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan failure")
		}
		o.Status = model.Status(status)
		outcomes = append(outcomes, o)
	}
	return outcomes, eris.Wrap(rows.Err(), "sqlite: recent failures iterate")
}
