package cleanfs_test

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"

	"cleanfs/internal/cleanfs"
)

// readArchive opens a built archive and returns its entries as
// name -> content (directories map to an empty string).
func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening entry %q: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("reading entry %q: %v", f.Name, err)
		}
		out[f.Name] = string(b)
	}
	return out
}

func TestBuildArchive(t *testing.T) {
	t.Run("preserves nesting and directory markers", func(t *testing.T) {
		data, err := cleanfs.BuildArchive([]cleanfs.ArchiveItem{
			{Path: "docs", Dir: true},
			{Path: "docs/2024", Dir: true},
			{Path: "docs/2024/report.txt", Data: []byte("quarterly")},
			{Path: "readme.txt", Data: []byte("hello")},
		})
		if err != nil {
			t.Fatalf("BuildArchive() error = %v", err)
		}

		entries := readArchive(t, data)
		if len(entries) != 4 {
			t.Fatalf("archive has %d entries, want 4", len(entries))
		}
		if _, ok := entries["docs/"]; !ok {
			t.Error("missing directory marker docs/")
		}
		if _, ok := entries["docs/2024/"]; !ok {
			t.Error("missing directory marker docs/2024/")
		}
		if got := entries["docs/2024/report.txt"]; got != "quarterly" {
			t.Errorf("report.txt = %q", got)
		}
		if got := entries["readme.txt"]; got != "hello" {
			t.Errorf("readme.txt = %q", got)
		}
	})

	t.Run("first occurrence wins for duplicate paths", func(t *testing.T) {
		data, err := cleanfs.BuildArchive([]cleanfs.ArchiveItem{
			{Path: "a.txt", Data: []byte("first")},
			{Path: "a.txt", Data: []byte("second")},
		})
		if err != nil {
			t.Fatalf("BuildArchive() error = %v", err)
		}
		entries := readArchive(t, data)
		if len(entries) != 1 {
			t.Fatalf("archive has %d entries, want 1", len(entries))
		}
		if entries["a.txt"] != "first" {
			t.Errorf("a.txt = %q, want %q", entries["a.txt"], "first")
		}
	})

	t.Run("empty item list yields valid empty archive", func(t *testing.T) {
		data, err := cleanfs.BuildArchive(nil)
		if err != nil {
			t.Fatalf("BuildArchive() error = %v", err)
		}
		if entries := readArchive(t, data); len(entries) != 0 {
			t.Errorf("archive has %d entries, want 0", len(entries))
		}
	})

	t.Run("skips blank paths", func(t *testing.T) {
		data, err := cleanfs.BuildArchive([]cleanfs.ArchiveItem{
			{Path: "/", Dir: true},
			{Path: "ok.txt", Data: []byte("x")},
		})
		if err != nil {
			t.Fatalf("BuildArchive() error = %v", err)
		}
		if entries := readArchive(t, data); len(entries) != 1 {
			t.Errorf("archive has %d entries, want 1", len(entries))
		}
	})
}

func TestArchiveName(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if got := cleanfs.ArchiveName("cleanfs", ts); got != "cleanfs_2024-01-15.zip" {
		t.Errorf("ArchiveName = %q", got)
	}
}
