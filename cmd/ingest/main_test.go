package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobhunt-ingest/internal/config"
	"jobhunt-ingest/internal/domain"
	"jobhunt-ingest/internal/registry"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	require.NoError(t, cmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func TestCollectPrunesAndStores(t *testing.T) {
	t.Setenv("JOBHUNT_DATA_DIR", "")
	t.Setenv("JOBHUNT_PG_DSN", "")
	t.Setenv("JOBHUNT_LOG_LEVEL", "")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/acme":
			_, _ = w.Write([]byte(`{"jobs": [
  {"id": 1, "title": "Backend Engineer", "absolute_url": "https://acme.example/jobs/1", "location": {"name": "Austin - TX"}},
  {"id": 2, "title": "Designer", "absolute_url": "https://acme.example/jobs/2", "location": {"name": "Remote - US"}}
]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	regPath := filepath.Join(dir, "greenhouse_companies.json")
	require.NoError(t, os.WriteFile(regPath, []byte(fmt.Sprintf(`[
  {"handle": "acme", "api": %q},
  {"handle": "gone", "api": %q}
]`, srv.URL+"/acme", srv.URL+"/gone")), 0o644))

	cfgPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
app:
  data_dir: %q
  log_level: error
collector:
  requests_per_second: 0
sources:
  - vendor: greenhouse
    registry: greenhouse_companies.json
`, dir)), 0o644))

	execute(t, "collect", "--config", cfgPath)

	reg, err := registry.Load(regPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, reg.Handles())

	var jobs []domain.JobSummary
	out := execute(t, "jobs", "--config", cfgPath, "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &jobs))
	require.Len(t, jobs, 2)
	assert.Equal(t, "Designer", jobs[0].Title)
	assert.Equal(t, "Remote", jobs[0].Location)
	assert.Equal(t, "acme", jobs[1].Company)
	assert.Equal(t, "Austin, TX", jobs[1].Location)

	var recs []domain.JobRecord
	out = execute(t, "jobs", "--config", cfgPath, "--full", "--company", "acme", "--limit", "1")
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "2", recs[0].ExternalID)
	assert.Equal(t, "greenhouse", recs[0].Source)
	assert.Equal(t, domain.StatusPending, recs[0].Status)
	assert.Len(t, recs[0].JobHash, 64)

	// A second run adds nothing and leaves the registry alone.
	execute(t, "collect", "--config", cfgPath)
	out = execute(t, "jobs", "--config", cfgPath, "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &jobs))
	assert.Len(t, jobs, 2)
}

func TestCollectFailsOnBrokenRegistry(t *testing.T) {
	t.Setenv("JOBHUNT_DATA_DIR", "")
	t.Setenv("JOBHUNT_PG_DSN", "")
	t.Setenv("JOBHUNT_LOG_LEVEL", "")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lever.json"), []byte(`{"not": "a list"}`), 0o644))
	cfgPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
app:
  data_dir: %q
  log_level: error
sources:
  - vendor: lever
    registry: lever.json
`, dir)), 0o644))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"collect", "--config", cfgPath})
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())

	var ce *registry.ConfigError
	assert.ErrorAs(t, err, &ce)
	_, statErr := os.Stat(filepath.Join(dir, "jobhunt.db"))
	assert.True(t, os.IsNotExist(statErr), "no store is opened before registries load")
}

func TestReconcileAndMeta(t *testing.T) {
	t.Setenv("JOBHUNT_DATA_DIR", "")
	t.Setenv("JOBHUNT_PG_DSN", "")
	t.Setenv("JOBHUNT_LOG_LEVEL", "")

	dir := t.TempDir()
	ghDir := filepath.Join(dir, "data", "greenhouse")
	require.NoError(t, os.MkdirAll(ghDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ghDir, "initech.json"), []byte(`[
  {"id": 7, "title": "Analyst", "location": "Toronto - ON", "updated_at": "2025-04-01T09:00:00Z"}
]`), 0o644))

	cfgPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
app:
  data_dir: %q
  log_level: error
reconcile:
  inputs:
    - vendor: greenhouse
      dir: data/greenhouse
`, dir)), 0o644))

	execute(t, "reconcile", "--config", cfgPath)

	b, err := os.ReadFile(filepath.Join(dir, "data", "jobs.json"))
	require.NoError(t, err)
	var records []domain.SnapshotRecord
	require.NoError(t, json.Unmarshal(b, &records))
	require.Len(t, records, 1)
	assert.Equal(t, domain.SnapshotRecord{
		Title: "Analyst", Company: "initech", Location: "Toronto, ON", DatePosted: "2025-04-01", ID: "7",
	}, records[0])

	require.NoError(t, os.Remove(filepath.Join(dir, "data", "companies.json")))
	execute(t, "meta", "--config", cfgPath)

	b, err = os.ReadFile(filepath.Join(dir, "data", "companies.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `["initech"]`, string(b))
}

func TestConfigWriteNormalizesFile(t *testing.T) {
	t.Setenv("JOBHUNT_DATA_DIR", "")
	t.Setenv("JOBHUNT_PG_DSN", "postgres://env-only")
	t.Setenv("JOBHUNT_LOG_LEVEL", "")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	original := `
store:
  driver: " SQLite "
  path: db/jobs.db
collector:
  prune_after: 0
sources:
  - vendor: " Lever "
    registry: lever.json
  - vendor: lever
    registry: lever.json
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(original), 0o644))

	out := execute(t, "config", "--config", cfgPath)
	assert.Contains(t, out, "vendor: lever")
	assert.Contains(t, out, "repeats lever lever.json")

	execute(t, "config", "--config", cfgPath, "--write")

	bak, err := os.ReadFile(cfgPath + ".bak")
	require.NoError(t, err)
	assert.Equal(t, original, string(bak))

	cfg, err := config.LoadFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "db/jobs.db", cfg.Store.Path)
	assert.Empty(t, cfg.Store.DSN)
	assert.Equal(t, 1, cfg.Collector.PruneAfter)
	assert.Equal(t, []config.Source{{Vendor: "lever", Registry: "lever.json"}}, cfg.Sources)
}

func TestConfigWriteRejectsInvalidFile(t *testing.T) {
	t.Setenv("JOBHUNT_DATA_DIR", "")
	t.Setenv("JOBHUNT_PG_DSN", "")
	t.Setenv("JOBHUNT_LOG_LEVEL", "")

	cfgPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("store:\n  driver: mysql\n"), 0o644))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"config", "--config", cfgPath, "--write"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.Error(t, cmd.ExecuteContext(context.Background()))

	b, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "store:\n  driver: mysql\n", string(b))
	assert.NoFileExists(t, cfgPath+".bak")
}
