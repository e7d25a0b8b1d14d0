package cleanfs

import (
	"fmt"
	"strings"

	"cleanfs/internal/model"
)

// StatPath resolves a virtual path to its entry. Directories take
// precedence when a file and a directory share a name, unless the path
// carries a trailing separator, which forces directory resolution. The
// root has no entry row and resolves to ErrNotFound.
func (s *NamespaceService) StatPath(ownerID, vpath string) (*model.Entry, error) {
	wantDir := strings.HasSuffix(vpath, separator)

	norm, err := NormalizePath(vpath)
	if err != nil {
		return nil, err
	}
	if norm == separator {
		return nil, fmt.Errorf("root has no entry: %w", ErrNotFound)
	}

	// norm is "/seg/.../name/"; split off the final segment.
	trimmed := strings.TrimSuffix(norm, separator)
	idx := strings.LastIndex(trimmed, separator)
	parent, name := trimmed[:idx+1], trimmed[idx+1:]

	dir, err := s.records.FindChild(ownerID, parent, name, model.KindDirectory)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if dir != nil {
		return dir, nil
	}
	if wantDir {
		return nil, fmt.Errorf("directory %s: %w", vpath, ErrNotFound)
	}

	file, err := s.records.FindChild(ownerID, parent, name, model.KindFile)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if file == nil {
		return nil, fmt.Errorf("path %s: %w", vpath, ErrNotFound)
	}
	return file, nil
}
