package testutil

import (
	"testing"

	"cleanfs/internal/cleanfs"
	"cleanfs/internal/store"
)

// NewTestStore creates a new in-memory SQLite record store with all
// migrations applied. The store is automatically closed when the test
// completes.
func NewTestStore(t *testing.T) cleanfs.RecordStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	if err := s.Migrate(); err != nil {
		s.Close()
		t.Fatalf("failed to migrate store: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})

	return s
}
