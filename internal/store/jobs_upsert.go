package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"jobhunt-ingest/internal/domain"
	"jobhunt-ingest/internal/fingerprint"
)

// InsertIfNew stores p unless a record with the same fingerprint exists.
// Losing an insert race to another writer reports (false, nil).
func (d *DB) InsertIfNew(ctx context.Context, source string, p domain.Posting) (bool, error) {
	hash := fingerprint.Of(p)

	var one int
	err := d.Pool.QueryRowContext(ctx, `SELECT 1 FROM applications WHERE job_hash = ? LIMIT 1;`, hash).Scan(&one)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("lookup job: %w", err)
	}

	_, err = d.Pool.ExecContext(ctx, `
INSERT INTO applications (external_id, company, title, location, url, source, date_posted, date_scraped, status, job_hash)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		strings.TrimSpace(p.ExternalID), p.Company, p.Title, p.Location, p.URL, source, p.DatePosted,
		time.Now().UTC().Format(time.RFC3339), domain.StatusPending, hash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert job: %w", err)
	}
	return true, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}
