package testutil

import (
	"cleanfs/internal/blob"
)

// NewTestBlobStore creates a new in-memory blob store for testing.
func NewTestBlobStore() *blob.MemoryBlobStore {
	return blob.NewMemoryBlobStore()
}
