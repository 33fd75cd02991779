package collect

import (
	"time"

	"jobhunt-ingest/pkg/logging"
)

// Summary describes one collector run over one registry.
type Summary struct {
	RunID      string
	Vendor     string
	Attempted  int
	Added      map[string]int // handle -> new records, successful boards only
	TotalAdded int
	Failed     []string
	Pruned     []string
	Skipped    int // malformed postings across all boards
	Started    time.Time
	Finished   time.Time
}

func (s Summary) Duration() time.Duration { return s.Finished.Sub(s.Started) }

func (s Summary) Log(l *logging.Logger) {
	l.Info("collect summary",
		"run", s.RunID,
		"vendor", s.Vendor,
		"attempted", s.Attempted,
		"added", s.TotalAdded,
		"failed", len(s.Failed),
		"pruned", s.Pruned,
		"skipped", s.Skipped,
		"took", s.Duration().Round(time.Millisecond),
	)
}
