// Package storage provides the S3-compatible object store behind the
// quote document archive.
package storage

import (
	"context"
	"time"
)

// PresignedURL contains the URL and metadata for a presigned download.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ObjectStore is the narrow surface the document archive needs.
type ObjectStore interface {
	// Put stores an object under the exact key, overwriting any previous
	// object stored there.
	Put(ctx context.Context, bucket, key, contentType string, data []byte) error

	// PresignedDownloadURL creates a short-lived URL for fetching an object.
	PresignedDownloadURL(ctx context.Context, bucket, key string) (*PresignedURL, error)

	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}
