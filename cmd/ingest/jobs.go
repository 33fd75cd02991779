package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jobhunt-ingest/internal/domain"
	"jobhunt-ingest/internal/store"
)

func newJobsCmd(g *globalFlags) *cobra.Command {
	var (
		opts      store.ListJobsOpts
		asJSON    bool
		full      bool
		companies bool
		locations bool
	)

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List stored jobs, newest first",
		Example: `  jobhunt-ingest jobs --company acme --limit 20
  jobhunt-ingest jobs --locations --json
  jobhunt-ingest jobs --full --limit 0 > jobs.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(g)
			if err != nil {
				return err
			}
			defer func() { _ = a.log.Sync() }()

			ctx := cmd.Context()
			st, err := store.Open(ctx, a.storeConfig())
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer func() { _ = st.Close() }()

			out := cmd.OutOrStdout()
			switch {
			case companies:
				list, err := st.Companies(ctx)
				if err != nil {
					return err
				}
				return printList(out, list, asJSON)
			case locations:
				list, err := st.Locations(ctx)
				if err != nil {
					return err
				}
				return printList(out, list, asJSON)
			}

			if full {
				recs, err := st.ListRecords(ctx, opts)
				if err != nil {
					return err
				}
				if recs == nil {
					recs = []domain.JobRecord{}
				}
				return writeJSON(out, recs)
			}

			jobs, err := st.ListJobs(ctx, opts)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, jobs)
			}
			return printJobs(out, jobs)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Company, "company", "", "only jobs of this company")
	f.StringVar(&opts.Location, "location", "", "only jobs in this location")
	f.IntVar(&opts.Limit, "limit", 50, "max jobs to print (0 = all)")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	f.BoolVar(&full, "full", false, "print every stored column as JSON")
	f.BoolVar(&companies, "companies", false, "print distinct companies instead")
	f.BoolVar(&locations, "locations", false, "print distinct normalized locations instead")
	cmd.MarkFlagsMutuallyExclusive("companies", "locations", "full")
	return cmd
}

func printJobs(w io.Writer, jobs []domain.JobSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPANY\tTITLE\tLOCATION\tURL")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", j.Company, j.Title, j.Location, j.URL)
	}
	return tw.Flush()
}

func printList(w io.Writer, list []string, asJSON bool) error {
	if asJSON {
		return writeJSON(w, list)
	}
	for _, s := range list {
		if _, err := fmt.Fprintln(w, s); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
