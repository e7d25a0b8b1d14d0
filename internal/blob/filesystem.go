package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cleanfs/internal/cleanfs"
)

// FileSystemBlobStore is a filesystem-based implementation of the BlobStore
// interface. Storage keys map directly to paths under the root directory,
// so the on-disk layout mirrors the virtual namespace.
type FileSystemBlobStore struct {
	root string
}

// NewFileSystemBlobStore creates a blob store rooted at the given path.
func NewFileSystemBlobStore(root string) (*FileSystemBlobStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &FileSystemBlobStore{root: root}, nil
}

// objectPath maps a storage key to a path under the root, rejecting keys
// that would escape it.
func (v *FileSystemBlobStore) objectPath(key string) (string, error) {
	p := filepath.Join(v.root, filepath.FromSlash(key))
	if p != v.root && !strings.HasPrefix(p, v.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("key escapes blob root: %s", key)
	}
	return p, nil
}

// Put stores the bytes read from r under key, overwriting any existing
// object.
func (v *FileSystemBlobStore) Put(key string, r io.Reader, size int64) error {
	destPath, err := v.objectPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	return writeFileAtomic(destPath, r, size)
}

// Get retrieves the object at key and writes it to w.
func (v *FileSystemBlobStore) Get(key string, w io.Writer) error {
	srcPath, err := v.objectPath(key)
	if err != nil {
		return err
	}

	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("object not found: %s", key)
		}
		return fmt.Errorf("failed to open object: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}
	return nil
}

// Delete removes the given keys. Missing keys are ignored so cascade
// deletes can be re-run.
func (v *FileSystemBlobStore) Delete(keys []string) error {
	for _, key := range keys {
		p, err := v.objectPath(key)
		if err != nil {
			return err
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove object %s: %w", key, err)
		}
	}
	return nil
}

// Exists reports whether an object is stored under key.
func (v *FileSystemBlobStore) Exists(key string) (bool, error) {
	p, err := v.objectPath(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat object: %w", err)
	}
	return true, nil
}

// ValidateSetup verifies that the blob root is accessible.
func (v *FileSystemBlobStore) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("blob root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("blob root is not a directory: %s", v.root)
	}
	return nil
}

// writeFileAtomic writes data from r to the specified path using a temp
// file and rename, so readers never observe a partial object.
func writeFileAtomic(destPath string, r io.Reader, expectedSize int64) error {
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemBlobStore implements the BlobStore interface
var _ cleanfs.BlobStore = (*FileSystemBlobStore)(nil)
