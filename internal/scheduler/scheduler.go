package scheduler

import (
	"context"
	"time"

	"jobhunt-ingest/pkg/logging"
)

type Task func(ctx context.Context) error

// Every runs task now and then once per interval until ctx is done. Runs
// never overlap; a tick that fires during a slow run is dropped.
func Every(ctx context.Context, interval time.Duration, name string, task Task, log *logging.Logger) {
	if log == nil {
		log = logging.NewNop()
	}
	log = log.With("task", name)

	run := func() {
		if err := task(ctx); err != nil {
			log.Error("scheduled run failed", "err", err)
		}
	}

	run()

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
