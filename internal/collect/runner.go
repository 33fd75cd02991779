// Package collect runs one adapter over every board in a registry, stores
// new postings and decides which boards should be dropped from the registry.
package collect

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"jobhunt-ingest/internal/domain"
	"jobhunt-ingest/internal/registry"
	"jobhunt-ingest/internal/scrape/types"
	"jobhunt-ingest/pkg/logging"
)

type Inserter interface {
	InsertIfNew(ctx context.Context, source string, p domain.Posting) (bool, error)
}

// Strikes counts consecutive permanent failures per board.
type Strikes interface {
	RecordSourceFailure(ctx context.Context, vendor, handle string) (int, error)
	ResetSourceFailures(ctx context.Context, vendor, handle string) error
}

const DefaultSourceTimeout = 2 * time.Minute

type Runner struct {
	Store Inserter
	// Strikes may be nil; a permanent failure then prunes only when PruneAfter <= 1.
	Strikes       Strikes
	Log           *logging.Logger
	Workers       int // <= 1 fetches boards one at a time, in registry order
	SourceTimeout time.Duration
	PruneAfter    int // consecutive permanent failures before a board is pruned; <= 0 means 1
}

// Run attempts every entry of reg. The returned registry has pruned boards
// removed; reg itself is left untouched. A failing board never stops the run.
func (r *Runner) Run(ctx context.Context, a types.Adapter, reg registry.Registry) (Summary, registry.Registry) {
	sum := Summary{
		RunID:   uuid.NewString(),
		Vendor:  a.Name(),
		Added:   map[string]int{},
		Started: time.Now().UTC(),
	}
	log := r.logger().With("component", "collect", "vendor", a.Name(), "run", sum.RunID)

	var (
		mu     sync.Mutex
		pruned []string
	)

	var g errgroup.Group
	g.SetLimit(max(1, r.Workers))

	for _, e := range reg {
		if e.Unsupported() {
			log.Warn("unsupported registry entry, skipping")
			continue
		}
		if strings.TrimSpace(e.Handle) == "" {
			log.Warn("registry entry without handle, skipping", "api", e.API)
			continue
		}

		g.Go(func() error {
			out := r.collectOne(ctx, a, e, log)

			mu.Lock()
			defer mu.Unlock()
			sum.Attempted++
			sum.Skipped += out.skipped
			if out.err != nil {
				sum.Failed = append(sum.Failed, e.Handle)
				if out.prune {
					pruned = append(pruned, e.Handle)
				}
				return nil
			}
			sum.Added[e.Handle] += out.added
			sum.TotalAdded += out.added
			return nil
		})
	}
	_ = g.Wait() // never returns an error; failures are per board

	sort.Strings(sum.Failed)
	sort.Strings(pruned)
	sum.Pruned = pruned
	sum.Finished = time.Now().UTC()

	return sum, reg.Without(pruned...)
}

type outcome struct {
	added   int
	skipped int
	err     error
	prune   bool
}

func (r *Runner) collectOne(ctx context.Context, a types.Adapter, e registry.Entry, log *logging.Logger) outcome {
	log = log.With("handle", e.Handle)

	timeout := r.SourceTimeout
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	fctx, cancel := context.WithTimeout(ctx, timeout)
	res, err := a.Fetch(fctx, e)
	cancel()

	if err != nil {
		if !types.IsPermanent(err) {
			log.Warn("fetch failed, will retry next run", "err", err)
			return outcome{err: err}
		}
		strikes, prune := r.strike(ctx, a.Name(), e.Handle, log)
		log.Warn("board unavailable", "err", err, "strikes", strikes, "prune", prune)
		return outcome{err: err, prune: prune}
	}

	if r.Strikes != nil {
		if err := r.Strikes.ResetSourceFailures(ctx, a.Name(), e.Handle); err != nil {
			log.Warn("reset strikes failed", "err", err)
		}
	}

	for _, sk := range res.Skipped {
		log.Warn("skipped malformed posting", "err", sk)
	}

	added := 0
	for _, p := range res.Postings {
		ok, err := r.Store.InsertIfNew(ctx, a.Name(), p)
		if err != nil {
			log.Error("insert failed", "title", p.Title, "url", p.URL, "err", err)
			continue
		}
		if ok {
			added++
		}
	}

	log.Info("board done", "fetched", len(res.Postings), "added", added, "skipped", len(res.Skipped))
	return outcome{added: added, skipped: len(res.Skipped)}
}

// strike records a permanent failure and reports whether the board reached
// the prune threshold. Bookkeeping errors never prune.
func (r *Runner) strike(ctx context.Context, vendor, handle string, log *logging.Logger) (int, bool) {
	threshold := max(1, r.PruneAfter)
	if r.Strikes == nil {
		return 1, threshold == 1
	}
	n, err := r.Strikes.RecordSourceFailure(ctx, vendor, handle)
	if err != nil {
		log.Error("record strike failed", "err", err)
		return 0, false
	}
	return n, n >= threshold
}

func (r *Runner) logger() *logging.Logger {
	if r.Log == nil {
		return logging.NewNop()
	}
	return r.Log
}
