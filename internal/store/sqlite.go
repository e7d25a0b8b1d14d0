package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cleanfs/internal/cleanfs"
	"cleanfs/internal/model"
	"cleanfs/internal/store/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements the RecordStore interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const entryColumns = "id, owner_id, name, kind, storage_key, parent_path, size, mime_type, created_at, updated_at"
const shareColumns = "id, owner_id, file_id, expires_at, password_hash, access_count, created_at"

// NewSQLiteStore opens a SQLite-backed record store.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing database connection. The caller is
// responsible for ensuring the connection is properly configured.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs. Exported for tools and tests that need a raw connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database exists per connection; keep the pool at one so
	// every statement sees the same schema.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Foreign keys are OFF by default in SQLite.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// escapeLike escapes LIKE wildcards so storage-key prefixes containing
// '%' or '_' match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Entry operations

func (s *SQLiteStore) InsertEntry(e *model.Entry) error {
	_, err := s.db.ExecContext(context.Background(),
		"INSERT INTO entries ("+entryColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.OwnerID, e.Name, string(e.Kind), e.StorageKey, e.ParentPath, e.Size, e.MimeType, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetEntry(ownerID, id string) (*model.Entry, error) {
	row := s.db.QueryRowContext(context.Background(),
		"SELECT "+entryColumns+" FROM entries WHERE owner_id = ? AND id = ?", ownerID, id)
	return scanEntry(row)
}

func (s *SQLiteStore) ListEntries(ownerID string) ([]*model.Entry, error) {
	return s.queryEntries("SELECT "+entryColumns+" FROM entries WHERE owner_id = ?", ownerID)
}

func (s *SQLiteStore) FindChild(ownerID, parentPath, name string, kind model.EntryKind) (*model.Entry, error) {
	row := s.db.QueryRowContext(context.Background(),
		"SELECT "+entryColumns+" FROM entries WHERE owner_id = ? AND parent_path = ? AND name = ? AND kind = ?",
		ownerID, parentPath, name, string(kind))
	return scanEntry(row)
}

func (s *SQLiteStore) ListByParentPath(ownerID, parentPath string, kind model.EntryKind) ([]*model.Entry, error) {
	return s.queryEntries(
		"SELECT "+entryColumns+" FROM entries WHERE owner_id = ? AND parent_path = ? AND kind = ?",
		ownerID, parentPath, string(kind))
}

func (s *SQLiteStore) ListByKeyPrefix(ownerID, prefix string) ([]*model.Entry, error) {
	return s.queryEntries(
		"SELECT "+entryColumns+" FROM entries WHERE owner_id = ? AND storage_key LIKE ? ESCAPE '\\'",
		ownerID, escapeLike(prefix)+"%")
}

func (s *SQLiteStore) UpdateEntryPaths(ownerID, id, name, storageKey, parentPath string, updatedAt time.Time) error {
	_, err := s.db.ExecContext(context.Background(),
		"UPDATE entries SET name = ?, storage_key = ?, parent_path = ?, updated_at = ? WHERE owner_id = ? AND id = ?",
		name, storageKey, parentPath, updatedAt, ownerID, id)
	if err != nil {
		return fmt.Errorf("updating entry paths: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateFileContent(ownerID, id string, size int64, mimeType string, updatedAt time.Time) error {
	_, err := s.db.ExecContext(context.Background(),
		"UPDATE entries SET size = ?, mime_type = ?, updated_at = ? WHERE owner_id = ? AND id = ?",
		size, mimeType, updatedAt, ownerID, id)
	if err != nil {
		return fmt.Errorf("updating file content: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteEntry(ownerID, id string) error {
	_, err := s.db.ExecContext(context.Background(),
		"DELETE FROM entries WHERE owner_id = ? AND id = ?", ownerID, id)
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListRecentFiles(ownerID string, limit int) ([]*model.Entry, error) {
	return s.queryEntries(
		"SELECT "+entryColumns+" FROM entries WHERE owner_id = ? AND kind = 'file' ORDER BY updated_at DESC LIMIT ?",
		ownerID, limit)
}

func (s *SQLiteStore) queryEntries(query string, args ...any) ([]*model.Entry, error) {
	rows, err := s.db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.Entry
	for rows.Next() {
		var e model.Entry
		var kind string
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Name, &kind, &e.StorageKey, &e.ParentPath,
			&e.Size, &e.MimeType, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Kind = model.EntryKind(kind)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return entries, nil
}

func scanEntry(row *sql.Row) (*model.Entry, error) {
	var e model.Entry
	var kind string
	err := row.Scan(&e.ID, &e.OwnerID, &e.Name, &kind, &e.StorageKey, &e.ParentPath,
		&e.Size, &e.MimeType, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, fmt.Errorf("scanning entry: %w", err)
	}
	e.Kind = model.EntryKind(kind)
	return &e, nil
}

// Share operations

func (s *SQLiteStore) InsertShare(sh *model.Share) error {
	var expires sql.NullTime
	if sh.ExpiresAt != nil {
		expires = sql.NullTime{Time: *sh.ExpiresAt, Valid: true}
	}
	_, err := s.db.ExecContext(context.Background(),
		"INSERT INTO shares ("+shareColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		sh.ID, sh.OwnerID, sh.FileID, expires, sh.PasswordHash, sh.AccessCount, sh.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting share: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetShare(id string) (*model.Share, error) {
	row := s.db.QueryRowContext(context.Background(),
		"SELECT "+shareColumns+" FROM shares WHERE id = ?", id)
	sh, err := scanShare(row)
	if err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *SQLiteStore) ListShares(ownerID string) ([]*model.Share, error) {
	rows, err := s.db.QueryContext(context.Background(),
		"SELECT "+shareColumns+" FROM shares WHERE owner_id = ? ORDER BY created_at DESC", ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying shares: %w", err)
	}
	defer rows.Close()

	var shares []*model.Share
	for rows.Next() {
		var sh model.Share
		var expires sql.NullTime
		if err := rows.Scan(&sh.ID, &sh.OwnerID, &sh.FileID, &expires, &sh.PasswordHash,
			&sh.AccessCount, &sh.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning share: %w", err)
		}
		if expires.Valid {
			t := expires.Time
			sh.ExpiresAt = &t
		}
		shares = append(shares, &sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating shares: %w", err)
	}
	return shares, nil
}

func (s *SQLiteStore) DeleteShare(ownerID, id string) error {
	_, err := s.db.ExecContext(context.Background(),
		"DELETE FROM shares WHERE owner_id = ? AND id = ?", ownerID, id)
	if err != nil {
		return fmt.Errorf("deleting share: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteSharesByFileID(ownerID, fileID string) error {
	_, err := s.db.ExecContext(context.Background(),
		"DELETE FROM shares WHERE owner_id = ? AND file_id = ?", ownerID, fileID)
	if err != nil {
		return fmt.Errorf("deleting shares by file: %w", err)
	}
	return nil
}

func (s *SQLiteStore) IncrementShareAccess(id string) error {
	_, err := s.db.ExecContext(context.Background(),
		"UPDATE shares SET access_count = access_count + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("incrementing share access: %w", err)
	}
	return nil
}

func scanShare(row *sql.Row) (*model.Share, error) {
	var sh model.Share
	var expires sql.NullTime
	err := row.Scan(&sh.ID, &sh.OwnerID, &sh.FileID, &expires, &sh.PasswordHash,
		&sh.AccessCount, &sh.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, fmt.Errorf("scanning share: %w", err)
	}
	if expires.Valid {
		t := expires.Time
		sh.ExpiresAt = &t
	}
	return &sh, nil
}

// Settings operations

func (s *SQLiteStore) GetSettings(ownerID string) (*model.Settings, error) {
	row := s.db.QueryRowContext(context.Background(),
		"SELECT owner_id, theme, notifications, compress_uploads, updated_at FROM settings WHERE owner_id = ?",
		ownerID)
	var st model.Settings
	err := row.Scan(&st.OwnerID, &st.Theme, &st.Notifications, &st.CompressUploads, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, fmt.Errorf("scanning settings: %w", err)
	}
	return &st, nil
}

func (s *SQLiteStore) UpsertSettings(st *model.Settings) error {
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO settings (owner_id, theme, notifications, compress_uploads, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(owner_id) DO UPDATE SET
		   theme = excluded.theme,
		   notifications = excluded.notifications,
		   compress_uploads = excluded.compress_uploads,
		   updated_at = excluded.updated_at`,
		st.OwnerID, st.Theme, st.Notifications, st.CompressUploads, st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting settings: %w", err)
	}
	return nil
}

// Backup operations

func (s *SQLiteStore) InsertBackup(b *model.Backup) error {
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO backups (id, owner_id, file_count, directory_count, total_size, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.FileCount, b.DirectoryCount, b.TotalSize, b.Status, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting backup: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetBackup(ownerID, id string) (*model.Backup, error) {
	row := s.db.QueryRowContext(context.Background(),
		"SELECT id, owner_id, file_count, directory_count, total_size, status, created_at FROM backups WHERE owner_id = ? AND id = ?",
		ownerID, id)
	var b model.Backup
	err := row.Scan(&b.ID, &b.OwnerID, &b.FileCount, &b.DirectoryCount, &b.TotalSize, &b.Status, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, fmt.Errorf("scanning backup: %w", err)
	}
	return &b, nil
}

func (s *SQLiteStore) ListBackups(ownerID string) ([]*model.Backup, error) {
	rows, err := s.db.QueryContext(context.Background(),
		"SELECT id, owner_id, file_count, directory_count, total_size, status, created_at FROM backups WHERE owner_id = ? ORDER BY created_at DESC",
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying backups: %w", err)
	}
	defer rows.Close()

	var backups []*model.Backup
	for rows.Next() {
		var b model.Backup
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.FileCount, &b.DirectoryCount, &b.TotalSize, &b.Status, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning backup: %w", err)
		}
		backups = append(backups, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating backups: %w", err)
	}
	return backups, nil
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Migrate brings the database schema to the latest version.
func (s *SQLiteStore) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteStore implements the RecordStore interface
var _ cleanfs.RecordStore = (*SQLiteStore)(nil)
