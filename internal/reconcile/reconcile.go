// Package reconcile merges vendor snapshot exports into one canonical,
// deduplicated job list.
package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"jobhunt-ingest/internal/domain"
	"jobhunt-ingest/internal/fsutil"
	"jobhunt-ingest/internal/scrape/types"
	"jobhunt-ingest/pkg/logging"
)

// Input is one directory of snapshot files from a single vendor. Each file
// is a JSON array of vendor-native postings; the file name (without
// extension) is the company used when a posting does not carry one.
type Input struct {
	Vendor string
	Dir    string
}

type Result struct {
	Records  []domain.SnapshotRecord
	Files    int
	Entries  int
	Skipped  int
	BadFiles []string
}

type key struct {
	company, title, location string
}

// Reconcile reads every input in order and keeps the last record seen for
// each (company, title, location). Output order is the order in which each
// key was first seen. Unreadable files and malformed entries are skipped.
func Reconcile(ctx context.Context, inputs []Input, mappers map[string]types.Mapper, log *logging.Logger) (Result, error) {
	if log == nil {
		log = logging.NewNop()
	}
	log = log.With("component", "reconcile")

	var (
		res   Result
		order []key
		byKey = map[key]domain.SnapshotRecord{}
	)

	for _, in := range inputs {
		m, ok := mappers[in.Vendor]
		if !ok {
			return Result{}, fmt.Errorf("reconcile: no mapper for vendor %q", in.Vendor)
		}

		files, err := filepath.Glob(filepath.Join(in.Dir, "*.json"))
		if err != nil {
			return Result{}, fmt.Errorf("reconcile: glob %s: %w", in.Dir, err)
		}
		sort.Strings(files)
		if len(files) == 0 {
			log.Warn("no snapshot files", "vendor", in.Vendor, "dir", in.Dir)
		}

		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}

			raws, err := readSnapshot(path)
			if err != nil {
				log.Warn("skipping snapshot file", "vendor", in.Vendor, "file", path, "err", err)
				res.BadFiles = append(res.BadFiles, path)
				continue
			}
			res.Files++

			fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			postings, skipped := types.MapAll(m, raws, fallback)
			for _, sk := range skipped {
				log.Warn("skipping snapshot entry", "vendor", in.Vendor, "file", path, "err", sk)
			}
			res.Entries += len(raws)
			res.Skipped += len(skipped)

			for _, p := range postings {
				rec := toRecord(p)
				k := key{rec.Company, rec.Title, rec.Location}
				if _, seen := byKey[k]; !seen {
					order = append(order, k)
				}
				byKey[k] = rec
			}
		}
	}

	res.Records = make([]domain.SnapshotRecord, 0, len(order))
	for _, k := range order {
		res.Records = append(res.Records, byKey[k])
	}
	log.Info("reconciled", "files", res.Files, "entries", res.Entries, "records", len(res.Records), "skipped", res.Skipped)
	return res, nil
}

func readSnapshot(path string) ([]json.RawMessage, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return raws, nil
}

func toRecord(p domain.Posting) domain.SnapshotRecord {
	date := p.DatePosted
	if i := strings.IndexByte(date, 'T'); i >= 0 {
		date = date[:i]
	}
	return domain.SnapshotRecord{
		Title:      p.Title,
		Company:    p.Company,
		Location:   p.Location,
		URL:        p.URL,
		DatePosted: date,
		ID:         p.ExternalID,
	}
}

// WriteCanonical replaces path with records as an indented JSON array.
func WriteCanonical(path string, records []domain.SnapshotRecord) error {
	if records == nil {
		records = []domain.SnapshotRecord{}
	}
	return writeJSON(path, records)
}

// LoadCanonical reads a file written by WriteCanonical.
func LoadCanonical(path string) ([]domain.SnapshotRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []domain.SnapshotRecord
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, buf.Bytes(), false)
}
