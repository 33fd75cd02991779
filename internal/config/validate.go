package config

import (
	"fmt"
	"slices"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy of cfg and what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.Store.Driver = strings.ToLower(strings.TrimSpace(out.Store.Driver))
	if out.Store.Driver == "" {
		out.Store.Driver = "sqlite"
	}
	switch out.Store.Driver {
	case "sqlite":
		if strings.TrimSpace(out.Store.Path) == "" {
			res.addErr("store.path is required for the sqlite driver")
		}
	case "postgres":
		if strings.TrimSpace(out.Store.DSN) == "" {
			res.addErr("store.dsn is required for the postgres driver (or set %s)", EnvPGDSN)
		}
	default:
		res.addErr("store.driver must be sqlite or postgres, got %q", out.Store.Driver)
	}

	// ---- collector ----

	if out.Collector.Workers < 0 {
		res.addErr("collector.workers must be >= 0")
	} else if out.Collector.Workers > 32 {
		res.addWarn("collector.workers is high (%d); boards may rate limit you.", out.Collector.Workers)
	}
	if out.Collector.SourceTimeoutSeconds <= 0 {
		res.addErr("collector.source_timeout_seconds must be > 0")
	}
	if out.Collector.PruneAfter <= 0 {
		res.addWarn("collector.prune_after is %d; using 1.", out.Collector.PruneAfter)
		out.Collector.PruneAfter = 1
	}
	if out.Collector.RequestsPerSecond < 0 {
		res.addErr("collector.requests_per_second must be >= 0 (0 disables limiting)")
	} else if out.Collector.RequestsPerSecond > 10 {
		res.addWarn("collector.requests_per_second is very high (%.1f) and may cause rate limits.", out.Collector.RequestsPerSecond)
	}
	if out.Collector.Burst < 0 {
		res.addErr("collector.burst must be >= 0")
	}
	out.Collector.UserAgent = strings.TrimSpace(out.Collector.UserAgent)

	// ---- sources ----

	seen := map[Source]bool{}
	var sources []Source
	for i, s := range out.Sources {
		s.Vendor = strings.ToLower(strings.TrimSpace(s.Vendor))
		s.Registry = strings.TrimSpace(s.Registry)
		if !slices.Contains(KnownVendors, s.Vendor) {
			res.addErr("sources[%d].vendor %q is not one of %s", i, s.Vendor, strings.Join(KnownVendors, ", "))
		}
		if s.Registry == "" {
			res.addErr("sources[%d].registry is required", i)
		}
		if seen[s] {
			res.addWarn("sources[%d] repeats %s %s; ignoring it.", i, s.Vendor, s.Registry)
			continue
		}
		seen[s] = true
		sources = append(sources, s)
	}
	out.Sources = sources
	if len(out.Sources) == 0 {
		res.addWarn("no sources configured; collect will do nothing.")
	}

	// ---- reconcile ----

	for i := range out.Reconcile.Inputs {
		in := &out.Reconcile.Inputs[i]
		in.Vendor = strings.ToLower(strings.TrimSpace(in.Vendor))
		if !slices.Contains(KnownVendors, in.Vendor) {
			res.addErr("reconcile.inputs[%d].vendor %q is not one of %s", i, in.Vendor, strings.Join(KnownVendors, ", "))
		}
		if strings.TrimSpace(in.Dir) == "" {
			res.addErr("reconcile.inputs[%d].dir is required", i)
		}
	}
	if len(out.Reconcile.Inputs) > 0 && strings.TrimSpace(out.Reconcile.Output) == "" {
		res.addErr("reconcile.output is required when inputs are configured")
	}

	return out, res
}
