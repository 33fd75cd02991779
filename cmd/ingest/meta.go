package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jobhunt-ingest/internal/domain"
	"jobhunt-ingest/internal/reconcile"
	"jobhunt-ingest/internal/scrape/util"
	"jobhunt-ingest/internal/store"
)

func newMetaCmd(g *globalFlags) *cobra.Command {
	var (
		input     string
		fromStore bool
	)

	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Write companies.json and locations.json for the search UI",
		Long: `Write companies.json and locations.json into reconcile.meta_dir.

By default the lists come from the canonical snapshot written by "reconcile".
With --from-store they come from the ingestion store instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(g)
			if err != nil {
				return err
			}
			defer func() { _ = a.log.Sync() }()

			var records []domain.SnapshotRecord
			if fromStore {
				records, err = a.storeRecords(cmd)
			} else {
				if input == "" {
					input = a.cfg.Reconcile.Output
				}
				records, err = reconcile.LoadCanonical(input)
			}
			if err != nil {
				return err
			}

			if err := reconcile.WriteMeta(a.cfg.Reconcile.MetaDir, records); err != nil {
				return fmt.Errorf("write meta: %w", err)
			}
			companies, locations := reconcile.Meta(records)
			a.log.Info("meta written", "dir", a.cfg.Reconcile.MetaDir, "companies", len(companies), "locations", len(locations))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "canonical snapshot to read (default reconcile.output)")
	cmd.Flags().BoolVar(&fromStore, "from-store", false, "read jobs from the ingestion store")
	cmd.MarkFlagsMutuallyExclusive("input", "from-store")
	return cmd
}

func (a *app) storeRecords(cmd *cobra.Command) ([]domain.SnapshotRecord, error) {
	ctx := cmd.Context()
	st, err := store.Open(ctx, a.storeConfig())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	jobs, err := st.ListJobs(ctx, store.ListJobsOpts{})
	if err != nil {
		return nil, err
	}
	out := make([]domain.SnapshotRecord, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, domain.SnapshotRecord{
			Title:    j.Title,
			Company:  j.Company,
			Location: util.NormalizeLocation(j.Location),
			URL:      j.URL,
		})
	}
	return out, nil
}
