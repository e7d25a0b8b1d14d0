package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns the default filesystem locations used by the CLI.
// CLEANFS_BASE_DIR overrides the base directory (used by tests and
// non-standard installs).
func GetDefaults() (map[string]string, error) {
	baseDir := os.Getenv("CLEANFS_BASE_DIR")
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".cleanfs")
	}

	return map[string]string{
		"base_dir":    baseDir,
		"config_path": filepath.Join(baseDir, "config.toml"),
	}, nil
}
