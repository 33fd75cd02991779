package main

import (
	"fmt"
	"net/http"

	"jobhunt-ingest/internal/config"
	"jobhunt-ingest/internal/scrape/greenhouse"
	"jobhunt-ingest/internal/scrape/lever"
	"jobhunt-ingest/internal/scrape/smartrecruiters"
	"jobhunt-ingest/internal/scrape/types"
	"jobhunt-ingest/internal/scrape/util"
	"jobhunt-ingest/internal/scrape/workday"
	"jobhunt-ingest/pkg/logging"
)

// newAdapters builds one adapter per vendor, all sharing a client and its
// per-host limiter.
func newAdapters(cfg config.Config, log *logging.Logger) map[string]types.Adapter {
	limiter := util.NewHostLimiter(cfg.Collector.RequestsPerSecond, cfg.Collector.Burst)
	client := util.NewClient(&http.Client{Timeout: cfg.SourceTimeout()}, limiter, cfg.Collector.UserAgent)
	hydrate := cfg.Collector.HydrateMissingLocation

	return map[string]types.Adapter{
		config.VendorGreenhouse:      greenhouse.New(greenhouse.Config{Hydrate: hydrate, Log: log.With("vendor", config.VendorGreenhouse)}, client),
		config.VendorLever:           lever.New(lever.Config{Hydrate: hydrate, Log: log.With("vendor", config.VendorLever)}, client),
		config.VendorSmartRecruiters: smartrecruiters.New(smartrecruiters.Config{}, client),
		config.VendorWorkday:         workday.New(client),
	}
}

func mappers(cfg config.Config) map[string]types.Mapper {
	out := map[string]types.Mapper{}
	for name, a := range newAdapters(cfg, logging.NewNop()) {
		out[name] = a
	}
	return out
}

func adapterFor(adapters map[string]types.Adapter, vendor string) (types.Adapter, error) {
	a, ok := adapters[vendor]
	if !ok {
		return nil, fmt.Errorf("no adapter for vendor %q", vendor)
	}
	return a, nil
}
