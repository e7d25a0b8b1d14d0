package cleanfs

import "errors"

// Sentinel errors for the namespace and sharing operations. Callers match
// them with errors.Is; operation-specific context is added via wrapping.
var (
	// ErrInvalidPath indicates a malformed virtual path or entry name.
	ErrInvalidPath = errors.New("invalid path")

	// ErrDuplicateName indicates a sibling directory with the same name
	// already exists under the target parent.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrNotFound indicates the id did not resolve to an entry (or share)
	// owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrStorageWrite indicates a blob store write failed.
	ErrStorageWrite = errors.New("storage write failed")

	// ErrStorageRead indicates a blob store read failed.
	ErrStorageRead = errors.New("storage read failed")

	// ErrPartialCascade indicates a cascade (rename or delete) stopped
	// before every descendant was updated. Re-running the operation
	// converges: completed sub-steps are no-ops on retry.
	ErrPartialCascade = errors.New("cascade incomplete")

	// ErrShareExpired indicates the share link's expiry has passed.
	// Expired links are rejected at resolve time, not swept.
	ErrShareExpired = errors.New("share link expired")

	// ErrPasswordRequired indicates the share is password protected and no
	// password was supplied.
	ErrPasswordRequired = errors.New("password required")

	// ErrInvalidPassword indicates the supplied share password is wrong.
	ErrInvalidPassword = errors.New("invalid password")
)
