package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cleanfs/internal/blob"
	"cleanfs/internal/cleanfs"
	"cleanfs/internal/config"
	"cleanfs/internal/model"
	"cleanfs/internal/store"
)

// App is the application layer between the CLI and the services. It
// constructs all dependencies from config, exposes high-level operations
// that accept raw path strings, and manages store lifecycles on Close.
type App struct {
	cfg       *config.Config
	owner     string
	records   cleanfs.RecordStore
	blobs     cleanfs.BlobStore
	namespace *cleanfs.NamespaceService
	shares    *cleanfs.ShareService
	settings  *cleanfs.SettingsService
	logFile   *os.File
}

// NewApp creates a fully wired App from the given config. operation
// identifies the CLI command being run (it tags every log line). owner
// overrides the configured owner id when non-empty. The caller must call
// Close when done.
func NewApp(cfg *config.Config, operation, owner string) (*App, error) {
	if owner == "" {
		owner = cfg.OwnerID
	}
	if owner == "" {
		return nil, fmt.Errorf("no owner id configured (set owner_id or pass --owner)")
	}

	blobs, err := blob.NewBlobStoreFromConfig(cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("creating blob store: %w", err)
	}
	if err := blobs.ValidateSetup(); err != nil {
		return nil, fmt.Errorf("validating blob store: %w", err)
	}

	records, err := store.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating record store: %w", err)
	}

	opID := fmt.Sprintf("%s-%s", operation, time.Now().UTC().Format("20060102T150405Z"))
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		records.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	l := &slogAdapter{l: logger}
	clock := cleanfs.RealClock{}
	idgen := cleanfs.UUIDGenerator{}

	return &App{
		cfg:       cfg,
		owner:     owner,
		records:   records,
		blobs:     blobs,
		namespace: cleanfs.NewNamespaceService(records, blobs, l, clock, idgen),
		shares:    cleanfs.NewShareService(records, l, clock, idgen),
		settings:  cleanfs.NewSettingsService(records, l, clock),
		logFile:   logFile,
	}, nil
}

// Owner returns the owner id all operations are scoped to.
func (a *App) Owner() string { return a.owner }

// ListChildren returns the files and directories directly under path.
func (a *App) ListChildren(path string) (files, dirs []*model.Entry, err error) {
	return a.namespace.ListChildren(a.owner, path)
}

// CreateDirectory creates the directory named by path, e.g. "/docs/2024".
func (a *App) CreateDirectory(path string) (*model.Entry, error) {
	parent, name, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	return a.namespace.CreateDirectory(a.owner, parent, name)
}

// Upload stores the local file at localPath under the virtual directory
// remoteDir. compress of nil falls back to the owner's compress-uploads
// setting.
func (a *App) Upload(localPath, remoteDir string, compress *bool) (*model.Entry, error) {
	doCompress := false
	if compress != nil {
		doCompress = *compress
	} else {
		st, err := a.settings.Get(a.owner)
		if err != nil {
			return nil, err
		}
		doCompress = st.CompressUploads
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("opening local file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat local file: %w", err)
	}

	return a.namespace.UploadFile(a.owner, remoteDir, filepath.Base(localPath), f, info.Size(), "", doCompress)
}

// Download writes the file at the virtual path to w.
func (a *App) Download(path string, w io.Writer) (*model.Entry, error) {
	entry, err := a.namespace.StatPath(a.owner, path)
	if err != nil {
		return nil, err
	}
	if entry.IsDirectory() {
		return nil, fmt.Errorf("%s is a directory, use zip: %w", path, cleanfs.ErrInvalidPath)
	}
	return a.namespace.DownloadFile(a.owner, entry.ID, w)
}

// Remove deletes the entry at path: a single file, or a directory with its
// whole subtree.
func (a *App) Remove(path string, onProgress func(string)) error {
	entry, err := a.namespace.StatPath(a.owner, path)
	if err != nil {
		return err
	}
	if entry.IsDirectory() {
		return a.namespace.DeleteDirectory(a.owner, entry.ID, onProgress)
	}
	return a.namespace.DeleteFile(a.owner, entry.ID)
}

// Rename renames the directory at path. Files cannot be renamed; re-upload
// under the new name instead.
func (a *App) Rename(path, newName string) (*model.Entry, error) {
	entry, err := a.namespace.StatPath(a.owner, path)
	if err != nil {
		return nil, err
	}
	if !entry.IsDirectory() {
		return nil, fmt.Errorf("only directories can be renamed: %w", cleanfs.ErrInvalidPath)
	}
	return a.namespace.RenameDirectory(a.owner, entry.ID, newName)
}

// Zip bundles the entries at the given virtual paths into one archive.
// currentPath anchors the relative layout of file selections.
func (a *App) Zip(paths []string, currentPath string) ([]byte, string, error) {
	var fileIDs, dirIDs []string
	for _, p := range paths {
		entry, err := a.namespace.StatPath(a.owner, p)
		if err != nil {
			return nil, "", err
		}
		if entry.IsDirectory() {
			dirIDs = append(dirIDs, entry.ID)
		} else {
			fileIDs = append(fileIDs, entry.ID)
		}
	}
	return a.namespace.DownloadAsZip(a.owner, fileIDs, dirIDs, currentPath)
}

// Usage returns the owner's storage usage report.
func (a *App) Usage() (*cleanfs.UsageReport, error) {
	return a.namespace.StorageUsage(a.owner)
}

// RecentFiles returns the owner's most recently updated files.
func (a *App) RecentFiles(limit int) ([]*model.Entry, error) {
	return a.namespace.RecentFiles(a.owner, limit)
}

// ShareCreate issues a share link for the file at path. expiresIn of zero
// means the link never expires; an empty password means no gate.
func (a *App) ShareCreate(path string, expiresIn time.Duration, password string) (*model.Share, error) {
	entry, err := a.namespace.StatPath(a.owner, path)
	if err != nil {
		return nil, err
	}
	var expiresAt *time.Time
	if expiresIn > 0 {
		t := time.Now().Add(expiresIn)
		expiresAt = &t
	}
	return a.shares.Create(a.owner, entry.ID, expiresAt, password)
}

// ShareList returns the owner's share links.
func (a *App) ShareList() ([]*model.Share, error) {
	return a.shares.List(a.owner)
}

// ShareDelete removes a share link by token.
func (a *App) ShareDelete(shareID string) error {
	return a.shares.Delete(a.owner, shareID)
}

// ShareResolve resolves a share token the way an anonymous visitor would
// and, when w is non-nil, downloads the shared file into it.
func (a *App) ShareResolve(shareID, password string, w io.Writer) (*model.Entry, *model.Share, error) {
	file, share, err := a.shares.Resolve(shareID, password)
	if err != nil {
		return nil, nil, err
	}
	if w != nil {
		if _, err := a.namespace.DownloadFile(file.OwnerID, file.ID, w); err != nil {
			return nil, nil, err
		}
	}
	return file, share, nil
}

// SettingsGet returns the owner's settings (defaults when none stored).
func (a *App) SettingsGet() (*model.Settings, error) {
	return a.settings.Get(a.owner)
}

// SettingsUpdate persists the owner's settings.
func (a *App) SettingsUpdate(s *model.Settings) error {
	return a.settings.Update(a.owner, s)
}

// BackupCreate records a backup marker for the owner's namespace.
func (a *App) BackupCreate() (*model.Backup, error) {
	return a.namespace.CreateBackup(a.owner)
}

// BackupList returns the owner's backups, newest first.
func (a *App) BackupList() ([]*model.Backup, error) {
	return a.namespace.ListBackups(a.owner)
}

// BackupDownload materializes the archive for a recorded backup.
func (a *App) BackupDownload(backupID string) ([]byte, string, error) {
	return a.namespace.DownloadBackup(a.owner, backupID)
}

// Close releases all resources.
func (a *App) Close() error {
	var firstErr error
	if err := a.records.Close(); err != nil {
		firstErr = fmt.Errorf("closing record store: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// splitPath breaks "/docs/2024" into parent "/docs/" and name "2024".
func splitPath(path string) (parent, name string, err error) {
	norm, err := cleanfs.NormalizePath(path)
	if err != nil {
		return "", "", err
	}
	if norm == "/" {
		return "", "", fmt.Errorf("root cannot be created or removed: %w", cleanfs.ErrInvalidPath)
	}
	trimmed := strings.TrimSuffix(norm, "/")
	idx := strings.LastIndex(trimmed, "/")
	return trimmed[:idx+1], trimmed[idx+1:], nil
}

// IsNotFound reports whether err is the namespace not-found error. CLI
// convenience.
func IsNotFound(err error) bool {
	return errors.Is(err, cleanfs.ErrNotFound)
}
