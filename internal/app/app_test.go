package app_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cleanfs/internal/app"
	"cleanfs/internal/config"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()

	base := t.TempDir()
	cfg := &config.Config{
		OwnerID:  "u1",
		BaseDir:  base,
		LogDir:   filepath.Join(base, "log"),
		Database: config.DatabaseConfig{Type: "memory"},
		Blob:     config.BlobConfig{Type: "memory"},
	}

	a, err := app.NewApp(cfg, "Test", "")
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func writeLocalFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing local file: %v", err)
	}
	return path
}

func TestApp_EndToEnd(t *testing.T) {
	a := newTestApp(t)

	// Build /A/B and upload a document into the inner directory.
	if _, err := a.CreateDirectory("/A"); err != nil {
		t.Fatalf("CreateDirectory(/A) error = %v", err)
	}
	if _, err := a.CreateDirectory("/A/B"); err != nil {
		t.Fatalf("CreateDirectory(/A/B) error = %v", err)
	}

	local := writeLocalFile(t, "doc.txt", "the quick brown fox")
	uploaded, err := a.Upload(local, "/A/B", nil)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if uploaded.Path() != "/A/B/doc.txt" {
		t.Errorf("uploaded path = %q", uploaded.Path())
	}

	var buf bytes.Buffer
	if _, err := a.Download("/A/B/doc.txt", &buf); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if buf.String() != "the quick brown fox" {
		t.Errorf("downloaded %q", buf.String())
	}

	// Renaming /A carries the whole subtree along.
	if _, err := a.Rename("/A", "Archive"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	buf.Reset()
	if _, err := a.Download("/Archive/B/doc.txt", &buf); err != nil {
		t.Fatalf("Download after rename error = %v", err)
	}
	if _, err := a.Download("/A/B/doc.txt", &buf); !app.IsNotFound(err) {
		t.Errorf("old path still resolves: %v", err)
	}

	// Bundle the renamed tree.
	data, _, err := a.Zip([]string{"/Archive"}, "/")
	if err != nil {
		t.Fatalf("Zip() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("empty archive")
	}

	// Remove everything and verify the tree is gone.
	if err := a.Remove("/Archive", nil); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	files, dirs, err := a.ListChildren("/")
	if err != nil {
		t.Fatalf("ListChildren() error = %v", err)
	}
	if len(files) != 0 || len(dirs) != 0 {
		t.Errorf("root not empty after remove: %d files, %d dirs", len(files), len(dirs))
	}
}

func TestApp_UploadHonorsCompressSetting(t *testing.T) {
	a := newTestApp(t)

	s, err := a.SettingsGet()
	if err != nil {
		t.Fatalf("SettingsGet() error = %v", err)
	}
	s.CompressUploads = true
	if err := a.SettingsUpdate(s); err != nil {
		t.Fatalf("SettingsUpdate() error = %v", err)
	}

	local := writeLocalFile(t, "notes.txt", "some text that should be gzipped on the way in")
	uploaded, err := a.Upload(local, "/", nil)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if uploaded.Name != "notes.txt.gz" {
		t.Errorf("uploaded name = %q, want notes.txt.gz", uploaded.Name)
	}

	// An explicit flag wins over the stored setting.
	off := false
	local2 := writeLocalFile(t, "plain.txt", "stay as-is")
	uploaded, err = a.Upload(local2, "/", &off)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if uploaded.Name != "plain.txt" {
		t.Errorf("uploaded name = %q, want plain.txt", uploaded.Name)
	}
}

func TestApp_ShareFlow(t *testing.T) {
	a := newTestApp(t)

	local := writeLocalFile(t, "doc.txt", "shared content")
	if _, err := a.Upload(local, "/", nil); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	share, err := a.ShareCreate("/doc.txt", time.Hour, "")
	if err != nil {
		t.Fatalf("ShareCreate() error = %v", err)
	}
	if share.ExpiresAt == nil {
		t.Error("ExpiresAt = nil, want a deadline")
	}

	var buf bytes.Buffer
	file, resolved, err := a.ShareResolve(share.ID, "", &buf)
	if err != nil {
		t.Fatalf("ShareResolve() error = %v", err)
	}
	if file.Name != "doc.txt" {
		t.Errorf("resolved file = %q", file.Name)
	}
	if resolved.AccessCount != 1 {
		t.Errorf("AccessCount = %d, want 1", resolved.AccessCount)
	}
	if buf.String() != "shared content" {
		t.Errorf("downloaded %q", buf.String())
	}

	listed, err := a.ShareList()
	if err != nil {
		t.Fatalf("ShareList() error = %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("ShareList() = %d entries", len(listed))
	}

	if err := a.ShareDelete(share.ID); err != nil {
		t.Fatalf("ShareDelete() error = %v", err)
	}
	if _, _, err := a.ShareResolve(share.ID, "", nil); err == nil {
		t.Error("ShareResolve after delete succeeded")
	}
}

func TestApp_OwnerOverride(t *testing.T) {
	base := t.TempDir()
	cfg := &config.Config{
		OwnerID:  "configured",
		BaseDir:  base,
		LogDir:   filepath.Join(base, "log"),
		Database: config.DatabaseConfig{Type: "memory"},
		Blob:     config.BlobConfig{Type: "memory"},
	}

	a, err := app.NewApp(cfg, "Test", "override")
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	defer a.Close()

	if a.Owner() != "override" {
		t.Errorf("Owner() = %q, want override", a.Owner())
	}
}
