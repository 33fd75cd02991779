package config

import "strings"

const (
	EnvDataDir  = "JOBHUNT_DATA_DIR"
	EnvPGDSN    = "JOBHUNT_PG_DSN"
	EnvLogLevel = "JOBHUNT_LOG_LEVEL"
)

// ApplyEnv overlays environment settings on cfg. A Postgres DSN in the
// environment switches the store driver to postgres.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvDataDir)); v != "" {
		cfg.App.DataDir = v
	}
	if v := strings.TrimSpace(getenv(EnvPGDSN)); v != "" {
		cfg.Store.Driver = "postgres"
		cfg.Store.DSN = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		cfg.App.LogLevel = v
	}
}
