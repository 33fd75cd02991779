package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"jobhunt-ingest/internal/domain"
	"jobhunt-ingest/internal/scrape/util"
)

type ListJobsOpts struct {
	Company  string
	Location string
	Limit    int // <= 0 means no limit
}

var recordColumns = []string{
	"id", "external_id", "company", "title", "location", "url", "source",
	"date_posted", "date_scraped", "date_applied", "status", "matched_skills", "notes", "job_hash",
}

func listJobsQuery(opts ListJobsOpts, ph sq.PlaceholderFormat) (string, []any, error) {
	return listQuery([]string{"company", "location", "title", "url"}, opts, ph)
}

func listRecordsQuery(opts ListJobsOpts, ph sq.PlaceholderFormat) (string, []any, error) {
	return listQuery(recordColumns, opts, ph)
}

func listQuery(cols []string, opts ListJobsOpts, ph sq.PlaceholderFormat) (string, []any, error) {
	q := sq.Select(cols...).
		From("applications").
		OrderBy("id DESC").
		PlaceholderFormat(ph)
	if c := strings.TrimSpace(opts.Company); c != "" {
		q = q.Where(sq.Eq{"company": c})
	}
	if l := strings.TrimSpace(opts.Location); l != "" {
		q = q.Where(sq.Eq{"location": l})
	}
	if opts.Limit > 0 {
		q = q.Limit(uint64(opts.Limit))
	}
	return q.ToSql()
}

func companiesQuery(ph sq.PlaceholderFormat) (string, []any, error) {
	return sq.Select("DISTINCT company").
		From("applications").
		Where(sq.NotEq{"company": ""}).
		OrderBy("company").
		PlaceholderFormat(ph).
		ToSql()
}

func locationsQuery(ph sq.PlaceholderFormat) (string, []any, error) {
	return sq.Select("DISTINCT location").
		From("applications").
		PlaceholderFormat(ph).
		ToSql()
}

// normalizedSet re-normalizes stored locations, then dedupes and sorts them.
// Rows written before normalization rules changed still collapse together.
func normalizedSet(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		loc := util.NormalizeLocation(r)
		if _, ok := seen[loc]; ok {
			continue
		}
		seen[loc] = struct{}{}
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}

func (d *DB) ListJobs(ctx context.Context, opts ListJobsOpts) ([]domain.JobSummary, error) {
	query, args, err := listJobsQuery(opts, sq.Question)
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := d.Pool.QueryContext(ctx, query, args...)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRecords returns full rows, newest first, with the same filters as ListJobs.
func (d *DB) ListRecords(ctx context.Context, opts ListJobsOpts) ([]domain.JobRecord, error) {
	query, args, err := listRecordsQuery(opts, sq.Question)
	if err != nil {
		return nil, fmt.Errorf("build record query: %w", err)
	}

	rows, err := d.Pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.JobRecord
	for rows.Next() {
		var (
			r       domain.JobRecord
			scraped string
		)
		if err := rows.Scan(&r.ID, &r.ExternalID, &r.Company, &r.Title, &r.Location, &r.URL, &r.Source,
			&r.DatePosted, &scraped, &r.DateApplied, &r.Status, &r.MatchedSkills, &r.Notes, &r.JobHash); err != nil {
			return nil, err
		}
		if r.DateScraped, err = time.Parse(time.RFC3339, scraped); err != nil {
			return nil, fmt.Errorf("job %d: date_scraped %q: %w", r.ID, scraped, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) Companies(ctx context.Context) ([]string, error) {
	query, args, err := companiesQuery(sq.Question)
	if err != nil {
		return nil, err
	}
	return d.strings(ctx, query, args)
}

func (d *DB) Locations(ctx context.Context) ([]string, error) {
	query, args, err := locationsQuery(sq.Question)
	if err != nil {
		return nil, err
	}
	raw, err := d.strings(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return normalizedSet(raw), nil
}

func (d *DB) strings(ctx context.Context, query string, args []any) ([]string, error) {
	rows, err := d.Pool.QueryContext(ctx, query, args...)
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
