package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"jobhunt-ingest/internal/collect"
	"jobhunt-ingest/internal/config"
	"jobhunt-ingest/internal/registry"
	"jobhunt-ingest/internal/scheduler"
	"jobhunt-ingest/internal/scrape/types"
	"jobhunt-ingest/internal/store"
)

type collectFlags struct {
	vendor  string
	workers int
	every   time.Duration
}

func newCollectCmd(g *globalFlags) *cobra.Command {
	var f collectFlags

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch every configured board, store new postings and prune dead boards",
		Example: `  jobhunt-ingest collect
  jobhunt-ingest collect --vendor lever --workers 4
  jobhunt-ingest collect --every 30m`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(g)
			if err != nil {
				return err
			}
			defer func() { _ = a.log.Sync() }()

			if cmd.Flags().Changed("workers") {
				a.cfg.Collector.Workers = f.workers
			}

			if f.every <= 0 {
				return a.collect(cmd.Context(), f.vendor)
			}
			scheduler.Every(cmd.Context(), f.every, "collect", func(ctx context.Context) error {
				return a.collect(ctx, f.vendor)
			}, a.log)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.vendor, "vendor", "", "only collect sources of this vendor")
	cmd.Flags().IntVar(&f.workers, "workers", 1, "boards fetched concurrently (overrides config)")
	cmd.Flags().DurationVar(&f.every, "every", 0, "keep running, collecting once per interval")
	return cmd
}

type loadedSource struct {
	config.Source
	reg registry.Registry
}

// collect runs every configured source once. All registries are loaded
// before the first request so a broken file aborts the run cleanly.
func (a *app) collect(ctx context.Context, vendor string) error {
	var sources []loadedSource
	for _, s := range a.cfg.Sources {
		if vendor != "" && s.Vendor != vendor {
			continue
		}
		reg, err := registry.Load(s.Registry)
		if err != nil {
			return err
		}
		sources = append(sources, loadedSource{Source: s, reg: reg})
	}
	if len(sources) == 0 {
		a.log.Warn("nothing to collect", "vendor", vendor)
		return nil
	}

	st, err := store.Open(ctx, a.storeConfig())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	adapters := newAdapters(a.cfg, a.log)
	runner := &collect.Runner{
		Store:         st,
		Strikes:       st,
		Log:           a.log,
		Workers:       a.cfg.Collector.Workers,
		SourceTimeout: a.cfg.SourceTimeout(),
		PruneAfter:    a.cfg.Collector.PruneAfter,
	}

	var errs []error
	for _, s := range sources {
		adapter, err := adapterFor(adapters, s.Vendor)
		if err != nil {
			return err
		}
		if err := a.collectSource(ctx, runner, adapter, s); err != nil {
			a.log.Error("source failed", "vendor", s.Vendor, "registry", s.Registry, "err", err)
			errs = append(errs, err)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return errors.Join(errs...)
}

func (a *app) collectSource(ctx context.Context, runner *collect.Runner, adapter types.Adapter, s loadedSource) error {
	unlock, err := registry.Lock(s.Registry)
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()

	sum, kept := runner.Run(ctx, adapter, s.reg)
	sum.Log(a.log)

	if len(sum.Pruned) == 0 {
		return nil
	}
	if err := registry.Save(s.Registry, kept); err != nil {
		return fmt.Errorf("save pruned registry: %w", err)
	}
	a.log.Info("registry pruned", "registry", s.Registry, "removed", sum.Pruned, "remaining", len(kept))
	return nil
}
