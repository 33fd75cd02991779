package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobhunt-ingest/internal/domain"
	"jobhunt-ingest/internal/fingerprint"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func posting(id, title, company, loc string) domain.Posting {
	return domain.Posting{
		ExternalID: id,
		Title:      title,
		Company:    company,
		Location:   loc,
		URL:        "https://boards.example/" + company + "/jobs/" + id,
		Source:     "greenhouse",
	}
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()
	runStoreSuite(t, openTestDB(t))
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("JOBHUNT_TEST_PG_DSN")
	if dsn == "" {
		dsn = startPostgres(t)
	}
	p, err := OpenPG(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	_, err = p.Pool.Exec(context.Background(), `TRUNCATE applications; TRUNCATE source_failures;`)
	require.NoError(t, err)

	runStoreSuite(t, p)

	t.Run("lost race reports not added", func(t *testing.T) {
		ctx := context.Background()
		_, err := p.Pool.Exec(ctx, pgRacingWriter)
		require.NoError(t, err)
		t.Cleanup(func() {
			_, _ = p.Pool.Exec(context.Background(), `DROP TRIGGER IF EXISTS racing_writer ON applications; DROP FUNCTION IF EXISTS racing_writer();`)
		})

		added, err := p.InsertIfNew(ctx, "greenhouse", posting("pg-dup", "QA", "acme", "Unknown"))
		require.NoError(t, err)
		assert.False(t, added)
	})
}

func runStoreSuite(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("insert once", func(t *testing.T) {
		p := posting("1", "Backend Engineer", "acme", "Austin, TX")

		added, err := s.InsertIfNew(ctx, "greenhouse", p)
		require.NoError(t, err)
		assert.True(t, added)

		added, err = s.InsertIfNew(ctx, "greenhouse", p)
		require.NoError(t, err)
		assert.False(t, added)

		// Same external id, different details: still the same job.
		p.Title = "Backend Engineer II"
		added, err = s.InsertIfNew(ctx, "greenhouse", p)
		require.NoError(t, err)
		assert.False(t, added)
	})

	t.Run("concurrent inserts add exactly one", func(t *testing.T) {
		p := posting("race", "SRE", "globex", "Remote")

		var wins atomic.Int32
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				added, err := s.InsertIfNew(ctx, "lever", p)
				assert.NoError(t, err)
				if added {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.EqualValues(t, 1, wins.Load())
	})

	t.Run("read surface", func(t *testing.T) {
		for i, loc := range []string{"Denver - CO", "Toronto, ON", "Denver, CO"} {
			_, err := s.InsertIfNew(ctx, "greenhouse", posting(fmt.Sprintf("r%d", i), fmt.Sprintf("Role %d", i), "initech", loc))
			require.NoError(t, err)
		}

		jobs, err := s.ListJobs(ctx, ListJobsOpts{Company: "initech"})
		require.NoError(t, err)
		require.Len(t, jobs, 3)
		assert.Equal(t, "Role 2", jobs[0].Title)
		assert.Equal(t, "Role 0", jobs[2].Title)

		jobs, err = s.ListJobs(ctx, ListJobsOpts{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, jobs, 2)

		jobs, err = s.ListJobs(ctx, ListJobsOpts{Location: "Toronto, ON"})
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, "initech", jobs[0].Company)

		companies, err := s.Companies(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"acme", "globex", "initech"}, companies)

		locations, err := s.Locations(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Austin, TX", "Denver, CO", "Remote", "Toronto, ON"}, locations)
	})

	t.Run("records", func(t *testing.T) {
		recs, err := s.ListRecords(ctx, ListJobsOpts{Company: "initech", Limit: 1})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "Role 2", recs[0].Title)
		assert.Equal(t, "Denver, CO", recs[0].Location)
		assert.Equal(t, domain.StatusPending, recs[0].Status)
		assert.Len(t, recs[0].JobHash, 64)
		assert.False(t, recs[0].DateScraped.IsZero())
	})

	t.Run("source failures", func(t *testing.T) {
		n, err := s.RecordSourceFailure(ctx, "greenhouse", "gone")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = s.RecordSourceFailure(ctx, "greenhouse", "gone")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = s.RecordSourceFailure(ctx, "lever", "gone")
		require.NoError(t, err)
		assert.Equal(t, 1, n, "counts are per vendor")

		require.NoError(t, s.ResetSourceFailures(ctx, "greenhouse", "gone"))
		n, err = s.RecordSourceFailure(ctx, "greenhouse", "gone")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestInsertDefaults(t *testing.T) {
	t.Parallel()

	d := openTestDB(t)
	ctx := context.Background()
	p := posting("42", "Data Engineer", "acme", "Austin, TX")
	p.DatePosted = "2025-01-02T03:04:05Z"

	// date_scraped is stored at second precision
	before := time.Now().UTC().Truncate(time.Second)
	added, err := d.InsertIfNew(ctx, "greenhouse", p)
	require.NoError(t, err)
	require.True(t, added)

	recs, err := d.ListRecords(ctx, ListJobsOpts{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	rec := recs[0]

	assert.NotZero(t, rec.ID)
	assert.Equal(t, "42", rec.ExternalID)
	assert.Equal(t, "greenhouse", rec.Source)
	assert.Equal(t, "2025-01-02T03:04:05Z", rec.DatePosted)
	assert.Equal(t, domain.StatusPending, rec.Status)
	assert.Empty(t, rec.DateApplied)
	assert.Empty(t, rec.MatchedSkills)
	assert.Empty(t, rec.Notes)
	assert.Equal(t, fingerprint.Of(p), rec.JobHash)
	assert.False(t, rec.DateScraped.Before(before), rec.DateScraped)
	assert.Equal(t, time.UTC, rec.DateScraped.Location())
}

// A BEFORE INSERT trigger plays the writer that lands between InsertIfNew's
// lookup and its insert, so the insert itself hits the unique index.
const sqliteRacingWriter = `
CREATE TRIGGER racing_writer BEFORE INSERT ON applications
WHEN NEW.source <> 'racer'
BEGIN
  INSERT INTO applications (company, title, location, source, date_scraped, job_hash)
  VALUES (NEW.company, NEW.title, NEW.location, 'racer', NEW.date_scraped, NEW.job_hash);
END;`

const pgRacingWriter = `
CREATE OR REPLACE FUNCTION racing_writer() RETURNS trigger AS $$
BEGIN
  IF NEW.source <> 'racer' THEN
    INSERT INTO applications (company, title, location, source, date_scraped, job_hash)
    VALUES (NEW.company, NEW.title, NEW.location, 'racer', NEW.date_scraped, NEW.job_hash);
  END IF;
  RETURN NEW;
END $$ LANGUAGE plpgsql;
CREATE TRIGGER racing_writer BEFORE INSERT ON applications
  FOR EACH ROW EXECUTE FUNCTION racing_writer();`

func TestInsertIfNewLostRaceReportsNotAdded(t *testing.T) {
	t.Parallel()

	d := openTestDB(t)
	ctx := context.Background()
	_, err := d.Pool.ExecContext(ctx, sqliteRacingWriter)
	require.NoError(t, err)

	added, err := d.InsertIfNew(ctx, "greenhouse", posting("dup", "QA", "acme", "Unknown"))
	require.NoError(t, err)
	assert.False(t, added)

	// Other insert failures still surface.
	_, err = d.Pool.ExecContext(ctx, `DROP TRIGGER racing_writer;
CREATE TRIGGER failing_writer BEFORE INSERT ON applications BEGIN SELECT RAISE(ABORT, 'disk on fire'); END;`)
	require.NoError(t, err)
	added, err = d.InsertIfNew(ctx, "greenhouse", posting("other", "QA", "acme", "Unknown"))
	require.Error(t, err)
	assert.False(t, added)
	assert.False(t, isUniqueViolation(err))
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	d := openTestDB(t)
	require.NoError(t, d.Migrate(context.Background()))
	require.NoError(t, d.Migrate(context.Background()))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{Driver: "mysql"})
	assert.Error(t, err)

	_, err = Open(context.Background(), Config{Driver: "postgres"})
	assert.Error(t, err)
}
