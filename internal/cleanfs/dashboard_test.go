package cleanfs_test

import (
	"errors"
	"testing"
	"time"

	"cleanfs/internal/cleanfs"
)

func TestNamespaceService_StorageUsage(t *testing.T) {
	f := setup(t)

	mustMkdir(t, f, "/", "docs")
	mustUpload(t, f, "/docs", "report.pdf", "12345")
	mustUpload(t, f, "/docs", "photo.png", "123")
	mustUpload(t, f, "/", "data.bin", "12")

	report, err := f.svc.StorageUsage(owner)
	if err != nil {
		t.Fatalf("StorageUsage() error = %v", err)
	}
	if report.TotalBytes != 10 {
		t.Errorf("TotalBytes = %d, want 10", report.TotalBytes)
	}

	byName := make(map[string]int64)
	for _, c := range report.Categories {
		byName[c.Name] = c.Bytes
	}
	if byName["Documents"] != 5 {
		t.Errorf("Documents = %d, want 5", byName["Documents"])
	}
	if byName["Images"] != 3 {
		t.Errorf("Images = %d, want 3", byName["Images"])
	}
	if byName["Archives"] != 0 {
		t.Errorf("Archives = %d, want 0", byName["Archives"])
	}
	if len(report.Categories) != 5 {
		t.Errorf("category count = %d, want 5", len(report.Categories))
	}
}

func TestNamespaceService_RecentFiles(t *testing.T) {
	f := setup(t)

	mustUpload(t, f, "/", "old.txt", "o")
	f.clock.Advance(time.Minute)
	mustUpload(t, f, "/", "mid.txt", "m")
	f.clock.Advance(time.Minute)
	mustUpload(t, f, "/", "new.txt", "n")
	mustMkdir(t, f, "/", "docs")

	files, err := f.svc.RecentFiles(owner, 2)
	if err != nil {
		t.Fatalf("RecentFiles() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("len = %d, want 2", len(files))
	}
	if files[0].Name != "new.txt" || files[1].Name != "mid.txt" {
		t.Errorf("RecentFiles = %v, want [new.txt mid.txt]", names(files))
	}
}

func TestNamespaceService_Backups(t *testing.T) {
	t.Run("records counts and sizes", func(t *testing.T) {
		f := setup(t)

		mustMkdir(t, f, "/", "docs")
		mustMkdir(t, f, "/docs", "2024")
		mustUpload(t, f, "/docs", "a.txt", "aaa")
		mustUpload(t, f, "/", "b.txt", "bb")

		backup, err := f.svc.CreateBackup(owner)
		if err != nil {
			t.Fatalf("CreateBackup() error = %v", err)
		}
		if backup.FileCount != 2 {
			t.Errorf("FileCount = %d, want 2", backup.FileCount)
		}
		if backup.DirectoryCount != 2 {
			t.Errorf("DirectoryCount = %d, want 2", backup.DirectoryCount)
		}
		if backup.TotalSize != 5 {
			t.Errorf("TotalSize = %d, want 5", backup.TotalSize)
		}
		if backup.Status != "completed" {
			t.Errorf("Status = %q", backup.Status)
		}

		listed, err := f.svc.ListBackups(owner)
		if err != nil {
			t.Fatalf("ListBackups() error = %v", err)
		}
		if len(listed) != 1 || listed[0].ID != backup.ID {
			t.Errorf("ListBackups = %d entries", len(listed))
		}
	})

	t.Run("download materializes the whole namespace", func(t *testing.T) {
		f := setup(t)

		mustMkdir(t, f, "/", "docs")
		mustMkdir(t, f, "/docs", "empty")
		mustUpload(t, f, "/docs", "a.txt", "aaa")

		backup, err := f.svc.CreateBackup(owner)
		if err != nil {
			t.Fatalf("CreateBackup() error = %v", err)
		}

		data, name, err := f.svc.DownloadBackup(owner, backup.ID)
		if err != nil {
			t.Fatalf("DownloadBackup() error = %v", err)
		}
		if name != "cleanfs_backup_2024-01-15.zip" {
			t.Errorf("name = %q", name)
		}

		entries := readArchive(t, data)
		if got := entries["docs/a.txt"]; got != "aaa" {
			t.Errorf("docs/a.txt = %q", got)
		}
		if _, ok := entries["docs/empty/"]; !ok {
			t.Error("missing empty directory marker")
		}
	})

	t.Run("unknown backup id", func(t *testing.T) {
		f := setup(t)

		_, _, err := f.svc.DownloadBackup(owner, "missing")
		if !errors.Is(err, cleanfs.ErrNotFound) {
			t.Errorf("DownloadBackup() error = %v, want ErrNotFound", err)
		}
	})
}
