// Package store persists deduplicated job records. SQLite is the default
// backend; Postgres is available for shared deployments. Both enforce
// uniqueness of job_hash in the database, never in application locks.
package store

import (
	"context"
	"fmt"
	"strings"

	"jobhunt-ingest/internal/domain"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is the surface shared by the collector and the read commands.
type Store interface {
	InsertIfNew(ctx context.Context, source string, p domain.Posting) (bool, error)
	RecordSourceFailure(ctx context.Context, vendor, handle string) (int, error)
	ResetSourceFailures(ctx context.Context, vendor, handle string) error
	ListJobs(ctx context.Context, opts ListJobsOpts) ([]domain.JobSummary, error)
	ListRecords(ctx context.Context, opts ListJobsOpts) ([]domain.JobRecord, error)
	Companies(ctx context.Context) ([]string, error)
	Locations(ctx context.Context) ([]string, error)
	Close() error
}

type Config struct {
	Driver string
	Path   string // sqlite file
	DSN    string // postgres connection string
}

func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverSQLite:
		if strings.TrimSpace(cfg.Path) == "" {
			return nil, fmt.Errorf("store: sqlite path is empty")
		}
		return OpenSQLite(ctx, cfg.Path)
	case DriverPostgres, "pg", "pgx":
		if strings.TrimSpace(cfg.DSN) == "" {
			return nil, fmt.Errorf("store: postgres dsn is empty")
		}
		return OpenPG(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
