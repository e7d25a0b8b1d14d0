package model

import "time"

// EntryKind distinguishes files from directories in the namespace.
type EntryKind string

const (
	KindFile      EntryKind = "file"
	KindDirectory EntryKind = "directory"
)

// Entry is a single node of the virtual namespace: a file or a directory.
// Hierarchy is encoded in StorageKey (a path-like string), not in parent
// pointers: every descendant of a directory has a StorageKey that extends
// the directory's own StorageKey.
type Entry struct {
	ID         string    // UUID
	OwnerID    string    // Owning user; every query is scoped to it
	Name       string    // Final path segment
	Kind       EntryKind // file or directory
	StorageKey string    // "{ownerID}{path}" — trailing "/" for directories
	ParentPath string    // Virtual directory containing this entry; root is "/"
	Size       int64     // Bytes; 0 for directories
	MimeType   string    // Files only; inferred from extension when absent
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsDirectory reports whether the entry is a directory.
func (e *Entry) IsDirectory() bool { return e.Kind == KindDirectory }

// Path returns the entry's full virtual path relative to the owner's root.
func (e *Entry) Path() string {
	if e.Kind == KindDirectory {
		return e.ParentPath + e.Name + "/"
	}
	return e.ParentPath + e.Name
}

// Share grants time-boxed, optionally password-gated public access to one
// file. The ID doubles as the public URL token.
type Share struct {
	ID           string
	OwnerID      string
	FileID       string
	ExpiresAt    *time.Time // nil means the link never expires
	PasswordHash string     // empty means no password required
	AccessCount  int64      // incremented once per successful resolve
	CreatedAt    time.Time
}

// Settings holds per-owner preferences.
type Settings struct {
	OwnerID         string
	Theme           string // "light", "dark" or "system"
	Notifications   bool
	CompressUploads bool
	UpdatedAt       time.Time
}

// DefaultSettings returns the settings used when an owner has none stored.
func DefaultSettings(ownerID string) *Settings {
	return &Settings{
		OwnerID:       ownerID,
		Theme:         "system",
		Notifications: true,
	}
}

// Backup records one full-namespace backup of an owner.
type Backup struct {
	ID             string
	OwnerID        string
	FileCount      int64
	DirectoryCount int64
	TotalSize      int64
	Status         string // "completed" or "failed"
	CreatedAt      time.Time
}
