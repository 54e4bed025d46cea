package gcsuploader

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// StorageService stores uploaded reports and evidence PDFs and reads them
// back by gs:// URI. The pipeline depends on it rather than on a bucket
// client so tests can swap in a fake.
type StorageService interface {
	UploadFile(ctx context.Context, bucketName, objectName, filePath string) error
	UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error

	// FetchFromGCS returns the object bytes; the URI must be gs://bucket/object.
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)

	// ExtractFilenameFromGCSURI returns the last path element of the URI.
	ExtractFilenameFromGCSURI(uri string) string
}

// GCSStorageService is the concrete implementation of StorageService
// that interacts with Google Cloud Storage through a shared client.
type GCSStorageService struct {
	client *storage.Client
}

// NewGCSStorageService creates a client using Application Default Credentials.
func NewGCSStorageService(ctx context.Context) (*GCSStorageService, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStorageService: create storage client: %w", err)
	}
	return &GCSStorageService{client: client}, nil
}

// Close releases the client.
func (s *GCSStorageService) Close() error {
	return s.client.Close()
}

// UploadFile uploads a local file.
func (s *GCSStorageService) UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	return UploadFile(ctx, s.client, bucketName, objectName, filePath)
}

// UploadBytes uploads an in-memory file.
func (s *GCSStorageService) UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error {
	return UploadBytes(ctx, s.client, bucketName, objectName, data, contentType)
}

// FetchFromGCS downloads an object by URI.
func (s *GCSStorageService) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	return FetchFromGCS(ctx, s.client, gcsURI)
}

// ExtractFilenameFromGCSURI delegates to the package function.
func (s *GCSStorageService) ExtractFilenameFromGCSURI(uri string) string {
	return ExtractFilenameFromGCSURI(uri)
}

var _ StorageService = (*GCSStorageService)(nil)
