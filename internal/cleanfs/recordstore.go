package cleanfs

import (
	"time"

	"cleanfs/internal/model"
)

// RecordStore is the metadata layer behind the namespace: one logical table
// of entries plus shares, settings and backups. Lookups return (nil, nil)
// when no row matches. Every entry and share mutation is scoped by owner id;
// implementations must never match rows across owners.
type RecordStore interface {
	// Entry operations

	// InsertEntry persists a new entry row.
	InsertEntry(e *model.Entry) error

	// GetEntry returns the entry with the given id, owned by ownerID.
	GetEntry(ownerID, id string) (*model.Entry, error)

	// ListEntries returns every entry of the owner, files and directories.
	ListEntries(ownerID string) ([]*model.Entry, error)

	// FindChild returns the entry with the given parent path, name and kind.
	FindChild(ownerID, parentPath, name string, kind model.EntryKind) (*model.Entry, error)

	// ListByParentPath returns entries of the given kind whose parent path
	// matches exactly.
	ListByParentPath(ownerID, parentPath string, kind model.EntryKind) ([]*model.Entry, error)

	// ListByKeyPrefix returns every entry whose storage key begins with
	// prefix. This is the descendant query behind the cascade operations.
	ListByKeyPrefix(ownerID, prefix string) ([]*model.Entry, error)

	// UpdateEntryPaths rewrites an entry's name, storage key and parent path.
	UpdateEntryPaths(ownerID, id, name, storageKey, parentPath string, updatedAt time.Time) error

	// UpdateFileContent refreshes size and mime type after an overwriting
	// upload.
	UpdateFileContent(ownerID, id string, size int64, mimeType string, updatedAt time.Time) error

	// DeleteEntry removes a single entry row. Deleting a missing row is a
	// no-op.
	DeleteEntry(ownerID, id string) error

	// ListRecentFiles returns the owner's files ordered by update time,
	// newest first.
	ListRecentFiles(ownerID string, limit int) ([]*model.Entry, error)

	// Share operations

	InsertShare(s *model.Share) error

	// GetShare resolves a share by token. Not owner-scoped: resolution is
	// anonymous by design.
	GetShare(id string) (*model.Share, error)

	ListShares(ownerID string) ([]*model.Share, error)
	DeleteShare(ownerID, id string) error

	// DeleteSharesByFileID removes all shares pointing at the given file.
	DeleteSharesByFileID(ownerID, fileID string) error

	// IncrementShareAccess bumps the access counter by one.
	IncrementShareAccess(id string) error

	// Settings operations

	GetSettings(ownerID string) (*model.Settings, error)
	UpsertSettings(s *model.Settings) error

	// Backup operations

	InsertBackup(b *model.Backup) error
	GetBackup(ownerID, id string) (*model.Backup, error)
	ListBackups(ownerID string) ([]*model.Backup, error)

	// Close releases the underlying connection.
	Close() error
}
