package cleanfs

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"cleanfs/internal/model"
)

// CategoryUsage is the byte total of one file-type class.
type CategoryUsage struct {
	Name  string
	Bytes int64
}

// UsageReport summarizes an owner's storage consumption.
type UsageReport struct {
	TotalBytes int64
	Categories []CategoryUsage
}

// usageCategories classifies files by extension for the usage breakdown.
// Order is fixed so reports are stable.
var usageCategories = []struct {
	name       string
	extensions []string
}{
	{"Documents", []string{".pdf", ".doc", ".docx", ".txt", ".rtf", ".odt", ".xls", ".xlsx", ".ppt", ".pptx"}},
	{"Images", []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".webp"}},
	{"Audio", []string{".mp3", ".wav", ".ogg", ".flac", ".aac", ".m4a"}},
	{"Video", []string{".mp4", ".avi", ".mov", ".wmv", ".flv", ".webm", ".mkv"}},
	{"Archives", []string{".zip", ".rar", ".7z", ".tar", ".gz"}},
}

// StorageUsage totals the owner's file sizes and breaks them down by
// category.
func (s *NamespaceService) StorageUsage(ownerID string) (*UsageReport, error) {
	entries, err := s.records.ListEntries(ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}

	byExt := make(map[string]int64)
	report := &UsageReport{}
	for _, e := range entries {
		if e.Kind != model.KindFile {
			continue
		}
		report.TotalBytes += e.Size
		byExt[strings.ToLower(path.Ext(e.Name))] += e.Size
	}

	for _, cat := range usageCategories {
		var total int64
		for _, ext := range cat.extensions {
			total += byExt[ext]
		}
		report.Categories = append(report.Categories, CategoryUsage{Name: cat.name, Bytes: total})
	}
	return report, nil
}

// RecentFiles returns the owner's most recently updated files, newest
// first.
func (s *NamespaceService) RecentFiles(ownerID string, limit int) ([]*model.Entry, error) {
	files, err := s.records.ListRecentFiles(ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent files: %w", err)
	}
	return files, nil
}

// CreateBackup records a point-in-time backup marker for the owner's whole
// namespace: counts and total size. The bytes themselves are not copied —
// the blob store is the backup target and DownloadBackup materializes the
// archive on demand.
func (s *NamespaceService) CreateBackup(ownerID string) (*model.Backup, error) {
	entries, err := s.records.ListEntries(ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}

	backup := &model.Backup{
		ID:        s.idgen.New(),
		OwnerID:   ownerID,
		Status:    "completed",
		CreatedAt: s.clock.Now(),
	}
	for _, e := range entries {
		if e.Kind == model.KindDirectory {
			backup.DirectoryCount++
		} else {
			backup.FileCount++
			backup.TotalSize += e.Size
		}
	}

	if err := s.records.InsertBackup(backup); err != nil {
		return nil, fmt.Errorf("recording backup: %w", err)
	}
	s.logger.Info("backup recorded", "owner", ownerID, "files", backup.FileCount, "bytes", backup.TotalSize)
	return backup, nil
}

// ListBackups returns the owner's backups, newest first.
func (s *NamespaceService) ListBackups(ownerID string) ([]*model.Backup, error) {
	return s.records.ListBackups(ownerID)
}

// DownloadBackup bundles the owner's entire namespace into one archive,
// named after the backup's creation date. Files whose blobs cannot be read
// are skipped; directory markers keep empty folders.
func (s *NamespaceService) DownloadBackup(ownerID, backupID string) ([]byte, string, error) {
	backup, err := s.records.GetBackup(ownerID, backupID)
	if err != nil {
		return nil, "", fmt.Errorf("resolving backup: %w", err)
	}
	if backup == nil {
		return nil, "", fmt.Errorf("backup %s: %w", backupID, ErrNotFound)
	}

	entries, err := s.records.ListEntries(ownerID)
	if err != nil {
		return nil, "", fmt.Errorf("listing entries: %w", err)
	}

	prefix := OwnerPrefix(ownerID)
	var items []ArchiveItem
	for _, e := range entries {
		rel := RelativeKey(e.StorageKey, prefix)
		if e.Kind == model.KindDirectory {
			items = append(items, ArchiveItem{Path: rel, Dir: true})
			continue
		}
		var buf bytes.Buffer
		if err := s.blobs.Get(e.StorageKey, &buf); err != nil {
			s.logger.Warn("skipping file in backup, download failed", "key", e.StorageKey, "error", err)
			continue
		}
		items = append(items, ArchiveItem{Path: rel, Data: buf.Bytes()})
	}

	archive, err := BuildArchive(items)
	if err != nil {
		return nil, "", err
	}
	return archive, ArchiveName("cleanfs_backup", backup.CreatedAt), nil
}
