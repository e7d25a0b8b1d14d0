package cleanfs

import "io"

// BlobStore is the flat object layer under the namespace. Keys are the
// storage keys produced by the path translator; there is no directory
// concept at this level. All operations use io.Reader/io.Writer for
// streaming so large files never need to be held in memory.
type BlobStore interface {
	// Put stores the bytes read from r under key, overwriting any existing
	// object. size is the number of bytes that will be read from r.
	Put(key string, r io.Reader, size int64) error

	// Get retrieves the object at key and writes it to w.
	Get(key string, w io.Writer) error

	// Delete removes the given keys in one batch. Missing keys are not an
	// error: cascade deletes must be re-runnable.
	Delete(keys []string) error

	// Exists reports whether an object is stored under key.
	Exists(key string) (bool, error)

	// ValidateSetup verifies that the backend is accessible and properly
	// configured.
	ValidateSetup() error
}
