package reconcile

import (
	"path/filepath"
	"sort"

	"jobhunt-ingest/internal/domain"
)

const (
	CompaniesFile = "companies.json"
	LocationsFile = "locations.json"
)

// Meta returns the sorted distinct non-empty companies and locations.
func Meta(records []domain.SnapshotRecord) (companies, locations []string) {
	cs := map[string]struct{}{}
	ls := map[string]struct{}{}
	for _, r := range records {
		if r.Company != "" {
			cs[r.Company] = struct{}{}
		}
		if r.Location != "" {
			ls[r.Location] = struct{}{}
		}
	}
	return sortedKeys(cs), sortedKeys(ls)
}

// WriteMeta writes companies.json and locations.json into dir.
func WriteMeta(dir string, records []domain.SnapshotRecord) error {
	companies, locations := Meta(records)
	if err := writeJSON(filepath.Join(dir, CompaniesFile), companies); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, LocationsFile), locations)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
