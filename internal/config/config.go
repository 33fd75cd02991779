package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	VendorGreenhouse      = "greenhouse"
	VendorLever           = "lever"
	VendorSmartRecruiters = "smartrecruiters"
	VendorWorkday         = "workday"
)

var KnownVendors = []string{VendorGreenhouse, VendorLever, VendorSmartRecruiters, VendorWorkday}

// Source binds one adapter to the registry file listing its boards.
type Source struct {
	Vendor   string `yaml:"vendor"`
	Registry string `yaml:"registry"`
}

type ReconcileInput struct {
	Vendor string `yaml:"vendor"`
	Dir    string `yaml:"dir"`
}

type Config struct {
	App struct {
		DataDir  string `yaml:"data_dir"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Store struct {
		Driver string `yaml:"driver"` // sqlite | postgres
		Path   string `yaml:"path"`
		DSN    string `yaml:"dsn"`
	} `yaml:"store"`

	Collector struct {
		Workers                int     `yaml:"workers"`
		SourceTimeoutSeconds   int     `yaml:"source_timeout_seconds"`
		PruneAfter             int     `yaml:"prune_after"`
		UserAgent              string  `yaml:"user_agent"`
		RequestsPerSecond      float64 `yaml:"requests_per_second"`
		Burst                  int     `yaml:"burst"`
		HydrateMissingLocation bool    `yaml:"hydrate_missing_location"`
	} `yaml:"collector"`

	Sources []Source `yaml:"sources"`

	Reconcile struct {
		Inputs  []ReconcileInput `yaml:"inputs"`
		Output  string           `yaml:"output"`
		MetaDir string           `yaml:"meta_dir"`
	} `yaml:"reconcile"`
}

func Default() Config {
	var cfg Config
	cfg.App.DataDir = "."
	cfg.App.LogLevel = "info"
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = "jobhunt.db"
	cfg.Collector.Workers = 1
	cfg.Collector.SourceTimeoutSeconds = 120
	cfg.Collector.PruneAfter = 1
	cfg.Collector.UserAgent = "JobHunt/1.0 (+local)"
	cfg.Collector.RequestsPerSecond = 1.0
	cfg.Collector.Burst = 2
	cfg.Sources = []Source{
		{Vendor: VendorGreenhouse, Registry: "greenhouse_companies.json"},
		{Vendor: VendorLever, Registry: "lever_companies.json"},
	}
	cfg.Reconcile.Inputs = []ReconcileInput{
		{Vendor: VendorGreenhouse, Dir: filepath.Join("data", "greenhouse")},
		{Vendor: VendorLever, Dir: filepath.Join("data", "lever")},
	}
	cfg.Reconcile.Output = filepath.Join("data", "jobs.json")
	cfg.Reconcile.MetaDir = "data"
	return cfg
}

// Load reads path over the defaults, applies environment overrides and
// resolves relative paths against the data dir.
func Load(path string) (Config, error) {
	return LoadEnv(path, os.Getenv)
}

// LoadEnv is Load with an explicit environment lookup.
func LoadEnv(path string, getenv func(string) string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg, getenv)
	cfg.resolvePaths()
	return cfg, nil
}

// LoadFile reads path over the defaults as written: no env overrides, paths
// left relative. This is the shape SaveAtomic writes back.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) SourceTimeout() time.Duration {
	return time.Duration(c.Collector.SourceTimeoutSeconds) * time.Second
}

func (c *Config) resolvePaths() {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(c.App.DataDir, p)
	}
	c.Store.Path = abs(c.Store.Path)
	for i := range c.Sources {
		c.Sources[i].Registry = abs(c.Sources[i].Registry)
	}
	for i := range c.Reconcile.Inputs {
		c.Reconcile.Inputs[i].Dir = abs(c.Reconcile.Inputs[i].Dir)
	}
	c.Reconcile.Output = abs(c.Reconcile.Output)
	c.Reconcile.MetaDir = abs(c.Reconcile.MetaDir)
}
