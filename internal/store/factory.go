package store

import (
	"fmt"
	"os"
	"path/filepath"

	"cleanfs/internal/config"
)

// NewStoreFromConfig creates a record store based on the database config
// type and brings its schema up to date.
func NewStoreFromConfig(cfg config.DatabaseConfig) (*SQLiteStore, error) {
	var path string
	switch cfg.Type {
	case "memory":
		path = ":memory:"
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("sqlite database requires data_dir to be set")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		path = filepath.Join(cfg.DataDir, "cleanfs.db")
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}

	s, err := NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return s, nil
}
