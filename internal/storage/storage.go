package storage

import (
	"fmt"
	"io"

	cfg "github.com/xrequests/xrequests/internal/config"
)

// Storage is the blob store collaborator holding attachment bytes, keyed by
// the file's generated name + mimetype.
type Storage interface {
	// Save stores the blob under the given key
	Save(key string, data io.Reader) error

	// Read returns the blob bytes for the given key
	Read(key string) ([]byte, error)

	// Delete removes the blob at the given key
	Delete(key string) error

	// Exists reports whether a blob is stored under the given key
	Exists(key string) (bool, error)
}

// New creates the storage backend selected by config.
// "s3" works with AWS S3, MinIO, DigitalOcean Spaces, Cloudflare R2, etc.
// "memory" keeps blobs in process and is meant for development.
func New(c *cfg.Config) (Storage, error) {
	switch c.StorageDriver {
	case "s3":
		return NewS3Storage(S3Config{
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Endpoint:  c.S3Endpoint,
		})
	case "memory":
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}
