package blob

import (
	"fmt"

	"cleanfs/internal/cleanfs"
	"cleanfs/internal/config"
)

// NewBlobStoreFromConfig creates a BlobStore implementation based on the
// blob config type.
func NewBlobStoreFromConfig(cfg config.BlobConfig) (cleanfs.BlobStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryBlobStore(), nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 blob store requires s3_bucket to be set")
		}
		return NewS3BlobStore(cfg)
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem blob store requires fs_root to be set")
		}
		return NewFileSystemBlobStore(cfg.FSRoot)
	default:
		return nil, fmt.Errorf("unknown blob store type: %s", cfg.Type)
	}
}
