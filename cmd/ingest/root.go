package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"jobhunt-ingest/internal/config"
	"jobhunt-ingest/internal/store"
	"jobhunt-ingest/pkg/logging"
)

type globalFlags struct {
	configPath  string
	defaultPath string
	dataDir     string
	logLevel    string
}

// app is what every subcommand gets after config bootstrap.
type app struct {
	cfg config.Config
	log *logging.Logger
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:           "jobhunt-ingest",
		Short:         "Collect, deduplicate and reconcile job postings from public career boards",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default <data-dir>/config.yml, created on first run)")
	pf.StringVar(&g.defaultPath, "default-config", filepath.Join("config", "config.yml"), "template copied into the data dir on first run")
	pf.StringVar(&g.dataDir, "data-dir", "", "data directory (overrides "+config.EnvDataDir+")")
	pf.StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	root.AddCommand(
		newCollectCmd(&g),
		newReconcileCmd(&g),
		newJobsCmd(&g),
		newMetaCmd(&g),
		newConfigCmd(&g),
	)
	return root
}

// resolveConfigPath returns --config, or the data dir config after bootstrapping it.
func (g *globalFlags) resolveConfigPath() (string, error) {
	if g.configPath != "" {
		return g.configPath, nil
	}
	dataDir := g.dataDir
	if dataDir == "" {
		dataDir = os.Getenv(config.EnvDataDir)
	}
	if dataDir == "" {
		dataDir = "."
	}
	p, err := config.EnsureUserConfig(dataDir, g.defaultPath)
	if err != nil {
		return "", fmt.Errorf("config bootstrap failed: %w", err)
	}
	return p, nil
}

func loadApp(g *globalFlags) (*app, error) {
	path, err := g.resolveConfigPath()
	if err != nil {
		return nil, err
	}

	getenv := os.Getenv
	if g.dataDir != "" {
		getenv = func(k string) string {
			if k == config.EnvDataDir {
				return g.dataDir
			}
			return os.Getenv(k)
		}
	}

	cfg, err := config.LoadEnv(path, getenv)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if g.logLevel != "" {
		cfg.App.LogLevel = g.logLevel
	}

	cfg, v := config.NormalizeAndValidate(cfg)
	log := logging.New(cfg.App.LogLevel)
	for _, w := range v.Warnings {
		log.Warn("config", "warning", w)
	}
	if !v.OK() {
		return nil, fmt.Errorf("invalid config %s:\n- %s", path, strings.Join(v.Errors, "\n- "))
	}

	log.Debug("config loaded", "path", path, "data_dir", cfg.App.DataDir, "store", cfg.Store.Driver)
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) storeConfig() store.Config {
	return store.Config{
		Driver: a.cfg.Store.Driver,
		Path:   a.cfg.Store.Path,
		DSN:    a.cfg.Store.DSN,
	}
}
