package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"jobhunt-ingest/internal/fsutil"
)

// EnsureUserConfig returns the config path inside dataDir, creating it from
// defaultPath on first use. When defaultPath does not exist either, the
// built-in defaults are written instead.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}

	b, err := os.ReadFile(defaultPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if b, err = yaml.Marshal(Default()); err != nil {
			return "", err
		}
	case err != nil:
		return "", fmt.Errorf("read default config: %w", err)
	}

	if err := fsutil.WriteFileAtomic(userPath, b, false); err != nil {
		return "", err
	}
	return userPath, nil
}
