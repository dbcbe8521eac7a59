/*
Package storage uploads player avatars to S3-compatible object storage.

Clients never send file bytes through the API. They ask for a presigned PUT
URL scoped to their own key prefix, upload directly to the bucket, and then
record the resulting public URL as their avatar.
*/
package storage

import (
	"context"
	"time"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	BucketName      string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string

	// PublicBaseURL is the origin that serves stored objects, e.g. a CDN.
	PublicBaseURL string
}

// StorageService is the object-storage collaborator.
type StorageService interface {
	// PresignUpload returns a URL that accepts one PUT of exactly fileSize
	// bytes of mimeType at key.
	PresignUpload(ctx context.Context, key, mimeType string, fileSize int64, duration time.Duration) (string, error)

	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error
}

// NewStorageService returns the S3 implementation.
func NewStorageService(ctx context.Context, cfg ServiceConfig) (StorageService, error) {
	return newS3Client(ctx, cfg)
}
