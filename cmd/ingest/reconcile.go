package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jobhunt-ingest/internal/reconcile"
)

func newReconcileCmd(g *globalFlags) *cobra.Command {
	var (
		output string
		noMeta bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Merge vendor snapshot exports into one canonical job list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(g)
			if err != nil {
				return err
			}
			defer func() { _ = a.log.Sync() }()

			if output == "" {
				output = a.cfg.Reconcile.Output
			}

			inputs := make([]reconcile.Input, 0, len(a.cfg.Reconcile.Inputs))
			for _, in := range a.cfg.Reconcile.Inputs {
				inputs = append(inputs, reconcile.Input{Vendor: in.Vendor, Dir: in.Dir})
			}

			res, err := reconcile.Reconcile(cmd.Context(), inputs, mappers(a.cfg), a.log)
			if err != nil {
				return err
			}
			if err := reconcile.WriteCanonical(output, res.Records); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			a.log.Info("canonical snapshot written", "path", output, "records", len(res.Records), "bad_files", len(res.BadFiles))

			if noMeta {
				return nil
			}
			if err := reconcile.WriteMeta(a.cfg.Reconcile.MetaDir, res.Records); err != nil {
				return fmt.Errorf("write meta: %w", err)
			}
			a.log.Info("meta written", "dir", a.cfg.Reconcile.MetaDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "canonical output file (default reconcile.output)")
	cmd.Flags().BoolVar(&noMeta, "no-meta", false, "skip companies.json and locations.json")
	return cmd
}
