package blob_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cleanfs/internal/blob"
)

func newFSStore(t *testing.T) *blob.FileSystemBlobStore {
	t.Helper()
	s, err := blob.NewFileSystemBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemBlobStore() error = %v", err)
	}
	return s
}

func TestFileSystemBlobStore(t *testing.T) {
	t.Run("put and get round trip", func(t *testing.T) {
		s := newFSStore(t)

		if err := s.Put("u1/docs/a.txt", strings.NewReader("content"), 7); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		var buf bytes.Buffer
		if err := s.Get("u1/docs/a.txt", &buf); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if buf.String() != "content" {
			t.Errorf("Get() = %q", buf.String())
		}
	})

	t.Run("nested keys create directories", func(t *testing.T) {
		root := t.TempDir()
		s, err := blob.NewFileSystemBlobStore(root)
		if err != nil {
			t.Fatalf("NewFileSystemBlobStore() error = %v", err)
		}

		if err := s.Put("u1/a/b/c/deep.txt", strings.NewReader("d"), 1); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if _, err := os.Stat(filepath.Join(root, "u1", "a", "b", "c", "deep.txt")); err != nil {
			t.Errorf("object not on disk: %v", err)
		}
	})

	t.Run("put rejects size mismatch and leaves no file", func(t *testing.T) {
		root := t.TempDir()
		s, _ := blob.NewFileSystemBlobStore(root)

		if err := s.Put("u1/a.txt", strings.NewReader("hello"), 99); err == nil {
			t.Error("Put() with wrong size succeeded")
		}
		if _, err := os.Stat(filepath.Join(root, "u1", "a.txt")); !os.IsNotExist(err) {
			t.Error("partial object left on disk")
		}
	})

	t.Run("rejects keys escaping the root", func(t *testing.T) {
		s := newFSStore(t)
		if err := s.Put("../escape.txt", strings.NewReader("x"), 1); err == nil {
			t.Error("Put() with escaping key succeeded")
		}
	})

	t.Run("delete ignores missing keys", func(t *testing.T) {
		s := newFSStore(t)
		s.Put("u1/a.txt", strings.NewReader("x"), 1)

		if err := s.Delete([]string{"u1/a.txt", "u1/missing.txt"}); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		ok, _ := s.Exists("u1/a.txt")
		if ok {
			t.Error("object still exists after delete")
		}
	})

	t.Run("validate setup", func(t *testing.T) {
		s := newFSStore(t)
		if err := s.ValidateSetup(); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})
}
