package cleanfs

import (
	"fmt"
	"strings"
)

// Virtual paths are always "/" separated, independent of the host OS.
// A directory path is canonical when it has a leading and a trailing
// separator ("/Projects/2024/"); the root is "/". Storage keys prepend the
// owner id with no leading separator ("u1/Projects/2024/"), so that every
// blob and record query can be prefix-scoped to one owner.

const separator = "/"

// NormalizePath canonicalizes a virtual directory path: collapses repeated
// separators, ensures leading and trailing separators, and rejects empty,
// relative ("." or "..") and control-character segments.
func NormalizePath(path string) (string, error) {
	if path == "" || path == separator {
		return separator, nil
	}

	var segments []string
	for _, seg := range strings.Split(path, separator) {
		if seg == "" {
			continue // collapse repeated separators
		}
		if err := ValidateName(seg); err != nil {
			return "", fmt.Errorf("path %q: %w", path, err)
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return separator, nil
	}
	return separator + strings.Join(segments, separator) + separator, nil
}

// ValidateName checks a single path segment (a file or directory name).
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name: %w", ErrInvalidPath)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("relative segment %q: %w", name, ErrInvalidPath)
	}
	if strings.Contains(name, separator) {
		return fmt.Errorf("name %q contains a separator: %w", name, ErrInvalidPath)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("name contains control characters: %w", ErrInvalidPath)
		}
	}
	return nil
}

// FileKey returns the storage key for a file directly under parentPath.
// parentPath must already be normalized.
func FileKey(ownerID, parentPath, name string) string {
	return ownerID + parentPath + name
}

// DirKey returns the storage key (and descendant prefix) for a directory
// directly under parentPath. parentPath must already be normalized.
func DirKey(ownerID, parentPath, name string) string {
	return ownerID + parentPath + name + separator
}

// OwnerPrefix returns the storage-key prefix that covers an owner's whole
// namespace.
func OwnerPrefix(ownerID string) string {
	return ownerID + separator
}

// IsImmediateChild reports whether candidateKey addresses a direct child of
// the directory addressed by parentKey. The remainder after stripping the
// parent prefix must contain no interior separator: none at all for a file
// key, exactly one trailing separator for a directory key. This predicate
// is the sole distinction between "immediate children" and "all
// descendants" — prefix matching alone yields the latter.
func IsImmediateChild(candidateKey, parentKey string) bool {
	if !strings.HasPrefix(candidateKey, parentKey) {
		return false
	}
	rest := candidateKey[len(parentKey):]
	if rest == "" {
		return false // the directory itself
	}
	if strings.HasSuffix(rest, separator) {
		rest = rest[:len(rest)-1] // directory key: drop the trailing separator
	}
	return rest != "" && !strings.Contains(rest, separator)
}

// RelativeKey strips prefix from key and any leading separator from the
// remainder, yielding a path suitable for an archive entry.
func RelativeKey(key, prefix string) string {
	return strings.TrimLeft(strings.TrimPrefix(key, prefix), separator)
}
