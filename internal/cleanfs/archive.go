package cleanfs

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// ArchiveItem is one entry of an archive under construction: either a file
// with its bytes, or a directory marker preserving an (often empty) folder.
type ArchiveItem struct {
	Path string // relative, "/"-separated
	Data []byte // nil for directory markers
	Dir  bool
}

// BuildArchive assembles items into a zip archive held in memory. Directory
// structure is preserved via separators in entry names; directories become
// zero-byte entries with a trailing separator. Duplicate paths are written
// once, first occurrence wins. Pure function of its inputs: all bytes must
// already be downloaded.
func BuildArchive(items []ArchiveItem) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		name := strings.Trim(item.Path, separator)
		if name == "" {
			continue
		}
		if item.Dir {
			name += separator
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("creating archive entry %q: %w", name, err)
		}
		if !item.Dir {
			if _, err := w.Write(item.Data); err != nil {
				return nil, fmt.Errorf("writing archive entry %q: %w", name, err)
			}
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}
	return buf.Bytes(), nil
}

// ArchiveName returns the deterministic download name for an archive built
// at time t, e.g. "cleanfs_2024-01-15.zip".
func ArchiveName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.zip", prefix, t.Format("2006-01-02"))
}
