package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobhunt-ingest/internal/domain"
	"jobhunt-ingest/internal/fingerprint"
)

// PG is the Postgres-backed ingestion store.
type PG struct {
	Pool *pgxpool.Pool
}

var _ Store = (*PG)(nil)

func OpenPG(ctx context.Context, dsn string) (*PG, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 4
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, err
	}

	p := &PG{Pool: pool}
	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return p, nil
}

func (p *PG) Close() error {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
	return nil
}

func (p *PG) Migrate(ctx context.Context) error {
	_, err := p.Pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS applications (
  id BIGSERIAL PRIMARY KEY,
  external_id TEXT NOT NULL DEFAULT '',
  company TEXT NOT NULL,
  title TEXT NOT NULL,
  location TEXT NOT NULL,
  url TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL,
  date_posted TEXT NOT NULL DEFAULT '',
  date_scraped TIMESTAMPTZ NOT NULL,
  date_applied TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending',
  matched_skills TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  job_hash TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_job_hash ON applications(job_hash);
CREATE INDEX IF NOT EXISTS idx_applications_company ON applications(company);
CREATE TABLE IF NOT EXISTS source_failures (
  vendor TEXT NOT NULL,
  handle TEXT NOT NULL,
  count INTEGER NOT NULL DEFAULT 0,
  updated_at TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (vendor, handle)
);
`)
	return err
}

func (p *PG) InsertIfNew(ctx context.Context, source string, post domain.Posting) (bool, error) {
	hash := fingerprint.Of(post)

	var one int
	err := p.Pool.QueryRow(ctx, `SELECT 1 FROM applications WHERE job_hash = $1 LIMIT 1`, hash).Scan(&one)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return false, fmt.Errorf("lookup job: %w", err)
	}

	_, err = p.Pool.Exec(ctx, `
INSERT INTO applications (external_id, company, title, location, url, source, date_posted, date_scraped, status, job_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		strings.TrimSpace(post.ExternalID), post.Company, post.Title, post.Location, post.URL, source, post.DatePosted,
		time.Now().UTC(), domain.StatusPending, hash,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert job: %w", err)
	}
	return true, nil
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if err == nil || !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505"
}

func (p *PG) RecordSourceFailure(ctx context.Context, vendor, handle string) (int, error) {
	var n int
	err := p.Pool.QueryRow(ctx, `
INSERT INTO source_failures (vendor, handle, count, updated_at)
VALUES ($1, $2, 1, now())
ON CONFLICT (vendor, handle) DO UPDATE SET count = source_failures.count + 1, updated_at = now()
RETURNING count`, vendor, handle).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("record failure %s/%s: %w", vendor, handle, err)
	}
	return n, nil
}

func (p *PG) ResetSourceFailures(ctx context.Context, vendor, handle string) error {
	if _, err := p.Pool.Exec(ctx, `DELETE FROM source_failures WHERE vendor = $1 AND handle = $2`, vendor, handle); err != nil {
		return fmt.Errorf("reset failures %s/%s: %w", vendor, handle, err)
	}
	return nil
}

func (p *PG) ListJobs(ctx context.Context, opts ListJobsOpts) ([]domain.JobSummary, error) {
	query, args, err := listJobsQuery(opts, sq.Dollar)
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := p.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.JobSummary
	for rows.Next() {
		var j domain.JobSummary
		if err := rows.Scan(&j.Company, &j.Location, &j.Title, &j.URL); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (p *PG) ListRecords(ctx context.Context, opts ListJobsOpts) ([]domain.JobRecord, error) {
	query, args, err := listRecordsQuery(opts, sq.Dollar)
	if err != nil {
		return nil, fmt.Errorf("build record query: %w", err)
	}

	rows, err := p.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.JobRecord
	for rows.Next() {
		var r domain.JobRecord
		if err := rows.Scan(&r.ID, &r.ExternalID, &r.Company, &r.Title, &r.Location, &r.URL, &r.Source,
			&r.DatePosted, &r.DateScraped, &r.DateApplied, &r.Status, &r.MatchedSkills, &r.Notes, &r.JobHash); err != nil {
			return nil, err
		}
		r.DateScraped = r.DateScraped.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PG) Companies(ctx context.Context) ([]string, error) {
	query, args, err := companiesQuery(sq.Dollar)
	if err != nil {
		return nil, err
	}
	return p.strings(ctx, query, args)
}

func (p *PG) Locations(ctx context.Context) ([]string, error) {
	query, args, err := locationsQuery(sq.Dollar)
	if err != nil {
		return nil, err
	}
	raw, err := p.strings(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return normalizedSet(raw), nil
}

func (p *PG) strings(ctx context.Context, query string, args []any) ([]string, error) {
	rows, err := p.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
