package store_test

import (
	"path/filepath"
	"testing"

	"cleanfs/internal/config"
	"cleanfs/internal/store"
)

func TestNewStoreFromConfig(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s, err := store.NewStoreFromConfig(config.DatabaseConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		defer s.Close()
		if s.Path() != ":memory:" {
			t.Errorf("Path() = %q", s.Path())
		}
		if err := s.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}
	})

	t.Run("sqlite creates the data dir", func(t *testing.T) {
		dataDir := filepath.Join(t.TempDir(), "data")
		s, err := store.NewStoreFromConfig(config.DatabaseConfig{Type: "sqlite", DataDir: dataDir})
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		defer s.Close()
		if s.Path() != filepath.Join(dataDir, "cleanfs.db") {
			t.Errorf("Path() = %q", s.Path())
		}
	})

	t.Run("sqlite requires data_dir", func(t *testing.T) {
		if _, err := store.NewStoreFromConfig(config.DatabaseConfig{Type: "sqlite"}); err == nil {
			t.Error("missing data_dir accepted")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := store.NewStoreFromConfig(config.DatabaseConfig{Type: "postgres"}); err == nil {
			t.Error("unknown type accepted")
		}
	})
}
