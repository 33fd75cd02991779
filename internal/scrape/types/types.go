package types

import (
	"context"
	"encoding/json"

	"jobhunt-ingest/internal/domain"
	"jobhunt-ingest/internal/registry"
)

// ScrapeResult is what one board produced in one fetch.
type ScrapeResult struct {
	Source   string
	Handle   string
	Postings []domain.Posting
	Skipped  []error // malformed raw entries, already excluded from Postings
}

// Mapper turns one vendor-native JSON object into a Posting. The reconciler
// uses it on snapshot files; adapters use it on live responses.
type Mapper interface {
	Name() string
	MapRaw(raw json.RawMessage, fallbackCompany string) (domain.Posting, error)
}

// Adapter is one career-board integration.
type Adapter interface {
	Mapper
	// Endpoint is the listing URL for e, honoring an explicit api override.
	Endpoint(e registry.Entry) string
	Fetch(ctx context.Context, e registry.Entry) (ScrapeResult, error)
}
