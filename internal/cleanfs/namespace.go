package cleanfs

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"

	"cleanfs/internal/model"
)

// blobDeleteBatchSize bounds how many keys go into one BlobStore.Delete
// call during cascade deletes.
const blobDeleteBatchSize = 100

// NamespaceService maintains the virtual hierarchical filesystem layered
// over the flat record and blob stores. It owns the translation between
// virtual paths and storage keys, and the cascade algorithms that keep the
// prefix invariant intact across multi-step mutations. It holds no state of
// its own: every operation is a single round trip (or an ordered sequence
// of them) against the injected stores.
type NamespaceService struct {
	records RecordStore
	blobs   BlobStore
	logger  Logger
	clock   Clock
	idgen   IDGenerator
}

// NewNamespaceService creates a NamespaceService with the provided
// dependencies.
func NewNamespaceService(records RecordStore, blobs BlobStore, logger Logger, clock Clock, idgen IDGenerator) *NamespaceService {
	return &NamespaceService{
		records: records,
		blobs:   blobs,
		logger:  logger,
		clock:   clock,
		idgen:   idgen,
	}
}

// ListChildren returns the immediate children of parentPath, partitioned
// into files and directories. The partitioning predicate runs on storage
// keys, so entries nested deeper than one level never leak into the
// listing. No ordering is guaranteed; callers sort as needed.
func (s *NamespaceService) ListChildren(ownerID, parentPath string) (files, dirs []*model.Entry, err error) {
	parent, err := NormalizePath(parentPath)
	if err != nil {
		return nil, nil, err
	}
	parentKey := ownerID + parent

	entries, err := s.records.ListEntries(ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing entries: %w", err)
	}

	for _, e := range entries {
		if !IsImmediateChild(e.StorageKey, parentKey) {
			continue
		}
		if e.Kind == model.KindDirectory {
			dirs = append(dirs, e)
		} else {
			files = append(files, e)
		}
	}
	return files, dirs, nil
}

// CreateDirectory creates a logical directory under parentPath. No blob
// object is written; directories exist only as marker rows. The sibling
// uniqueness check here is an early out for the common case — the record
// store's unique index is what actually guarantees it under concurrency.
func (s *NamespaceService) CreateDirectory(ownerID, parentPath, name string) (*model.Entry, error) {
	parent, err := NormalizePath(parentPath)
	if err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	existing, err := s.records.FindChild(ownerID, parent, name, model.KindDirectory)
	if err != nil {
		return nil, fmt.Errorf("checking for existing directory: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("directory %q already exists in %s: %w", name, parent, ErrDuplicateName)
	}

	now := s.clock.Now()
	entry := &model.Entry{
		ID:         s.idgen.New(),
		OwnerID:    ownerID,
		Name:       name,
		Kind:       model.KindDirectory,
		StorageKey: DirKey(ownerID, parent, name),
		ParentPath: parent,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.records.InsertEntry(entry); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	s.logger.Info("directory created", "owner", ownerID, "path", entry.Path())
	return entry, nil
}

// UploadFile stores the bytes read from r under parentPath/name and records
// the entry. Existing files with the same name are overwritten: the blob is
// replaced and the row's size and mime type refreshed. When compress is
// true the content is gzipped first (skipped for already-compressed
// formats) and ".gz" is appended to the stored name.
//
// The blob write happens before the row write. If the row write then fails
// the blob is orphaned, which is a recoverable inconsistency; the reverse
// order would leave a row pointing at nothing.
func (s *NamespaceService) UploadFile(ownerID, parentPath, name string, r io.Reader, size int64, mimeType string, compress bool) (*model.Entry, error) {
	parent, err := NormalizePath(parentPath)
	if err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if mimeType == "" {
		mimeType = MimeTypeByName(name)
	}

	if compress && !IsCompressedType(mimeType) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := io.Copy(gz, r); err != nil {
			return nil, fmt.Errorf("compressing upload: %w", err)
		}
		if err := gz.Close(); err != nil {
			return nil, fmt.Errorf("compressing upload: %w", err)
		}
		name += ".gz"
		mimeType = "application/gzip"
		size = int64(buf.Len())
		r = &buf
	}

	key := FileKey(ownerID, parent, name)
	if err := s.blobs.Put(key, r, size); err != nil {
		return nil, fmt.Errorf("uploading %q: %v: %w", key, err, ErrStorageWrite)
	}

	now := s.clock.Now()
	existing, err := s.records.FindChild(ownerID, parent, name, model.KindFile)
	if err != nil {
		s.logger.Warn("blob uploaded but entry lookup failed, blob may be orphaned", "key", key)
		return nil, fmt.Errorf("checking for existing file: %w", err)
	}

	if existing != nil {
		if err := s.records.UpdateFileContent(ownerID, existing.ID, size, mimeType, now); err != nil {
			return nil, fmt.Errorf("updating file entry: %w", err)
		}
		existing.Size = size
		existing.MimeType = mimeType
		existing.UpdatedAt = now
		s.logger.Info("file overwritten", "owner", ownerID, "path", existing.Path(), "size", size)
		return existing, nil
	}

	entry := &model.Entry{
		ID:         s.idgen.New(),
		OwnerID:    ownerID,
		Name:       name,
		Kind:       model.KindFile,
		StorageKey: key,
		ParentPath: parent,
		Size:       size,
		MimeType:   mimeType,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.records.InsertEntry(entry); err != nil {
		s.logger.Warn("blob uploaded but entry insert failed, blob orphaned", "key", key)
		return nil, fmt.Errorf("recording file entry: %w", err)
	}

	s.logger.Info("file uploaded", "owner", ownerID, "path", entry.Path(), "size", size)
	return entry, nil
}

// DownloadFile writes the file's bytes to w and returns its entry.
func (s *NamespaceService) DownloadFile(ownerID, fileID string, w io.Writer) (*model.Entry, error) {
	file, err := s.getFile(ownerID, fileID)
	if err != nil {
		return nil, err
	}
	if err := s.blobs.Get(file.StorageKey, w); err != nil {
		return nil, fmt.Errorf("downloading %q: %v: %w", file.StorageKey, err, ErrStorageRead)
	}
	return file, nil
}

// DeleteFile removes a single file: blob first, then the entry row, then
// any share links pointing at it. A blob store failure aborts before the
// row is touched so a retry sees the same state.
func (s *NamespaceService) DeleteFile(ownerID, fileID string) error {
	file, err := s.getFile(ownerID, fileID)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete([]string{file.StorageKey}); err != nil {
		return fmt.Errorf("removing blob %q: %v: %w", file.StorageKey, err, ErrStorageWrite)
	}
	if err := s.records.DeleteEntry(ownerID, file.ID); err != nil {
		return fmt.Errorf("deleting file entry: %w", err)
	}
	if err := s.records.DeleteSharesByFileID(ownerID, file.ID); err != nil {
		return fmt.Errorf("deleting share links for file: %w", err)
	}

	s.logger.Info("file deleted", "owner", ownerID, "path", file.Path())
	return nil
}

// RenameDirectory renames a directory and rewrites the storage key and
// parent path of every descendant so the prefix invariant keeps holding.
// Descendant file objects are relocated to their new keys as part of the
// cascade. The parent row is rewritten first, then descendants shallow-first. The
// rewrite is not atomic across rows; an interrupted rename is converged by
// running it again (old/new prefixes are re-derived from current state, and
// already-rewritten descendants no longer match the old prefix).
func (s *NamespaceService) RenameDirectory(ownerID, directoryID, newName string) (*model.Entry, error) {
	dir, err := s.getDirectory(ownerID, directoryID)
	if err != nil {
		return nil, err
	}
	if err := ValidateName(newName); err != nil {
		return nil, err
	}
	if newName == dir.Name {
		return dir, nil
	}

	sibling, err := s.records.FindChild(ownerID, dir.ParentPath, newName, model.KindDirectory)
	if err != nil {
		return nil, fmt.Errorf("checking for sibling directory: %w", err)
	}
	if sibling != nil {
		return nil, fmt.Errorf("directory %q already exists in %s: %w", newName, dir.ParentPath, ErrDuplicateName)
	}

	oldKey := dir.StorageKey
	newKey := DirKey(ownerID, dir.ParentPath, newName)
	oldPath := dir.ParentPath + dir.Name + separator
	newPath := dir.ParentPath + newName + separator

	descendants, err := s.records.ListByKeyPrefix(ownerID, oldKey)
	if err != nil {
		return nil, fmt.Errorf("listing descendants: %w", err)
	}

	now := s.clock.Now()
	if err := s.records.UpdateEntryPaths(ownerID, dir.ID, newName, newKey, dir.ParentPath, now); err != nil {
		return nil, fmt.Errorf("renaming directory: %w", err)
	}

	// Shallow-first so a concurrent reader walking top-down always finds a
	// parent whose prefix its children still extend.
	sort.Slice(descendants, func(i, j int) bool {
		return len(descendants[i].StorageKey) < len(descendants[j].StorageKey)
	})
	for _, d := range descendants {
		if d.ID == dir.ID {
			continue
		}
		descKey := newKey + strings.TrimPrefix(d.StorageKey, oldKey)
		descParent := newPath + strings.TrimPrefix(d.ParentPath, oldPath)
		// The blob moves before the row so a retry of an interrupted rename
		// still finds the bytes under whichever key the row holds.
		if d.Kind == model.KindFile {
			if err := s.moveBlob(d.StorageKey, descKey); err != nil {
				return nil, fmt.Errorf("moving blob %q: %v: %w", d.StorageKey, err, ErrPartialCascade)
			}
		}
		if err := s.records.UpdateEntryPaths(ownerID, d.ID, d.Name, descKey, descParent, now); err != nil {
			return nil, fmt.Errorf("rewriting descendant %q: %v: %w", d.StorageKey, err, ErrPartialCascade)
		}
	}

	dir.Name = newName
	dir.StorageKey = newKey
	dir.UpdatedAt = now
	s.logger.Info("directory renamed", "owner", ownerID, "from", oldPath, "to", newPath, "descendants", len(descendants))
	return dir, nil
}

// DeleteDirectory removes a directory and everything beneath it:
// depth-first and leaf-first so children are always gone before their
// parents. Blob removals are best effort — a failed object delete is
// logged and skipped, the rows are authoritative. Record store failures
// abort and surface, since continuing would break the prefix invariant.
// onProgress, when non-nil, receives human-readable status lines; it has
// no effect on control flow.
func (s *NamespaceService) DeleteDirectory(ownerID, directoryID string, onProgress func(string)) error {
	dir, err := s.getDirectory(ownerID, directoryID)
	if err != nil {
		return err
	}
	progress := func(format string, args ...any) {
		if onProgress != nil {
			onProgress(fmt.Sprintf(format, args...))
		}
	}

	progress("Deleting directory %s...", dir.Path())
	if err := s.deleteDirectoryTree(dir, progress); err != nil {
		return err
	}
	progress("Directory %s deleted", dir.Path())
	return nil
}

func (s *NamespaceService) deleteDirectoryTree(dir *model.Entry, progress func(string, ...any)) error {
	ownerID := dir.OwnerID

	// Immediate child files first: remove their blobs in batches, then
	// their rows, then any share links referencing them.
	files, err := s.records.ListByParentPath(ownerID, dir.Path(), model.KindFile)
	if err != nil {
		return fmt.Errorf("listing files in %s: %w", dir.Path(), err)
	}
	if len(files) > 0 {
		progress("Removing %d file(s) from %s...", len(files), dir.Path())

		keys := make([]string, len(files))
		for i, f := range files {
			keys[i] = f.StorageKey
		}
		for start := 0; start < len(keys); start += blobDeleteBatchSize {
			end := min(start+blobDeleteBatchSize, len(keys))
			if err := s.blobs.Delete(keys[start:end]); err != nil {
				// Skipped, not fatal: the rows are the source of truth and
				// stray blobs are recoverable.
				s.logger.Warn("blob batch removal failed, continuing", "dir", dir.Path(), "count", end-start, "error", err)
			}
		}

		for _, f := range files {
			if err := s.records.DeleteEntry(ownerID, f.ID); err != nil {
				return fmt.Errorf("deleting file entry %q: %v: %w", f.StorageKey, err, ErrPartialCascade)
			}
			if err := s.records.DeleteSharesByFileID(ownerID, f.ID); err != nil {
				return fmt.Errorf("deleting share links for %q: %v: %w", f.StorageKey, err, ErrPartialCascade)
			}
		}
	}

	// Descendant directories, deepest first, each recursed as its own
	// subtree delete. Re-running after an interruption converges: subtrees
	// already removed simply no longer turn up here.
	subdirs, err := s.records.ListByKeyPrefix(ownerID, dir.StorageKey)
	if err != nil {
		return fmt.Errorf("listing subdirectories of %s: %w", dir.Path(), err)
	}
	var pending []*model.Entry
	for _, d := range subdirs {
		if d.Kind == model.KindDirectory && d.ID != dir.ID {
			pending = append(pending, d)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return len(pending[i].StorageKey) > len(pending[j].StorageKey)
	})
	if len(pending) > 0 {
		progress("Removing %d subdirector(ies) from %s...", len(pending), dir.Path())
	}
	for _, sub := range pending {
		// A deeper recursion may have removed this row already.
		current, err := s.records.GetEntry(ownerID, sub.ID)
		if err != nil {
			return fmt.Errorf("resolving subdirectory %q: %w", sub.StorageKey, err)
		}
		if current == nil {
			continue
		}
		if err := s.deleteDirectoryTree(current, progress); err != nil {
			return err
		}
	}

	// The directory's own row goes last, so an interrupted delete leaves a
	// findable (if partially emptied) directory rather than orphans.
	if err := s.records.DeleteEntry(ownerID, dir.ID); err != nil {
		return fmt.Errorf("deleting directory entry %s: %v: %w", dir.Path(), err, ErrPartialCascade)
	}

	s.logger.Info("directory removed", "owner", ownerID, "path", dir.Path())
	return nil
}

// DownloadAsZip bundles the selected files and directory subtrees into one
// archive. File selections are placed relative to currentPath; directory
// selections are rooted at "{dirName}/" and include marker entries for
// descendant directories so empty subtrees survive the round trip.
// Individual file downloads that fail are skipped (best-effort bundling);
// a directory id that does not resolve aborts the whole operation.
func (s *NamespaceService) DownloadAsZip(ownerID string, fileIDs, directoryIDs []string, currentPath string) ([]byte, string, error) {
	current, err := NormalizePath(currentPath)
	if err != nil {
		return nil, "", err
	}
	currentKey := ownerID + current

	var items []ArchiveItem

	for _, id := range fileIDs {
		file, err := s.records.GetEntry(ownerID, id)
		if err != nil {
			return nil, "", fmt.Errorf("resolving file %s: %w", id, err)
		}
		if file == nil || file.Kind != model.KindFile {
			s.logger.Warn("skipping unknown file selection", "owner", ownerID, "id", id)
			continue
		}

		var buf bytes.Buffer
		if err := s.blobs.Get(file.StorageKey, &buf); err != nil {
			s.logger.Warn("skipping file, download failed", "key", file.StorageKey, "error", err)
			continue
		}

		rel := file.Name
		if strings.HasPrefix(file.StorageKey, currentKey) {
			rel = RelativeKey(file.StorageKey, currentKey)
		}
		items = append(items, ArchiveItem{Path: rel, Data: buf.Bytes()})
	}

	for _, id := range directoryIDs {
		dir, err := s.getDirectory(ownerID, id)
		if err != nil {
			return nil, "", err
		}

		// Marker for the directory itself keeps empty selections visible
		// in the archive.
		items = append(items, ArchiveItem{Path: dir.Name, Dir: true})

		descendants, err := s.records.ListByKeyPrefix(ownerID, dir.StorageKey)
		if err != nil {
			return nil, "", fmt.Errorf("listing descendants of %s: %w", dir.Path(), err)
		}
		for _, d := range descendants {
			if d.ID == dir.ID {
				continue
			}
			rel := dir.Name + separator + RelativeKey(d.StorageKey, dir.StorageKey)
			if d.Kind == model.KindDirectory {
				items = append(items, ArchiveItem{Path: rel, Dir: true})
				continue
			}
			var buf bytes.Buffer
			if err := s.blobs.Get(d.StorageKey, &buf); err != nil {
				s.logger.Warn("skipping file, download failed", "key", d.StorageKey, "error", err)
				continue
			}
			items = append(items, ArchiveItem{Path: rel, Data: buf.Bytes()})
		}
	}

	archive, err := BuildArchive(items)
	if err != nil {
		return nil, "", err
	}
	return archive, ArchiveName("cleanfs", s.clock.Now()), nil
}

// moveBlob copies the object at oldKey to newKey and then removes the old
// object. Removal is best effort: a stray object under the old key is
// recoverable, a missing one under the new key is not.
func (s *NamespaceService) moveBlob(oldKey, newKey string) error {
	var buf bytes.Buffer
	if err := s.blobs.Get(oldKey, &buf); err != nil {
		return fmt.Errorf("reading %q: %w", oldKey, err)
	}
	if err := s.blobs.Put(newKey, &buf, int64(buf.Len())); err != nil {
		return fmt.Errorf("writing %q: %w", newKey, err)
	}
	if err := s.blobs.Delete([]string{oldKey}); err != nil {
		s.logger.Warn("stale blob left behind after move", "key", oldKey, "error", err)
	}
	return nil
}

func (s *NamespaceService) getDirectory(ownerID, id string) (*model.Entry, error) {
	entry, err := s.records.GetEntry(ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("resolving directory: %w", err)
	}
	if entry == nil || entry.Kind != model.KindDirectory {
		return nil, fmt.Errorf("directory %s: %w", id, ErrNotFound)
	}
	return entry, nil
}

func (s *NamespaceService) getFile(ownerID, id string) (*model.Entry, error) {
	entry, err := s.records.GetEntry(ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("resolving file: %w", err)
	}
	if entry == nil || entry.Kind != model.KindFile {
		return nil, fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	return entry, nil
}
