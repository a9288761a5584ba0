package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// S3Storage implements Storage using Amazon S3 or S3-compatible services.
// TODO: implement using aws-sdk-go-v2; until then every operation fails
// with a clear error so misconfiguration surfaces at first use.
type S3Storage struct {
	bucket   string
	region   string
	endpoint string
}

// NewS3Storage creates a new S3 storage instance
func NewS3Storage(cfg *Config) (*S3Storage, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}
	if cfg.S3Region == "" {
		return nil, fmt.Errorf("S3 region is required")
	}

	return &S3Storage{
		bucket:   cfg.S3Bucket,
		region:   cfg.S3Region,
		endpoint: cfg.S3Endpoint,
	}, nil
}

// Upload stores a file in S3 and returns its metadata
func (s *S3Storage) Upload(ctx context.Context, userID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error) {
	return nil, fmt.Errorf("S3 storage not implemented - set STORAGE_TYPE=local")
}

// Download retrieves a file from S3 by its ID
func (s *S3Storage) Download(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	return nil, nil, fmt.Errorf("S3 storage not implemented")
}

// Delete removes a file from S3 by its ID
func (s *S3Storage) Delete(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) error {
	return fmt.Errorf("S3 storage not implemented")
}

// List returns all files for a user from S3
func (s *S3Storage) List(ctx context.Context, userID uuid.UUID) ([]*FileInfo, error) {
	return nil, fmt.Errorf("S3 storage not implemented")
}

// GetInfo returns metadata for a file without downloading
func (s *S3Storage) GetInfo(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) (*FileInfo, error) {
	return nil, fmt.Errorf("S3 storage not implemented")
}

// GetReader returns a reader for a file from S3
func (s *S3Storage) GetReader(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, error) {
	reader, _, err := s.Download(ctx, userID, fileID)
	return reader, err
}
