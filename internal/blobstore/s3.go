package blobstore

import (
	"context"
	"fmt"
)

// WriteError records where a write was headed. Err is the client's own error.
type WriteError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("s3 put %s/%s: %v", e.Bucket, e.Key, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// ObjectStorageClient is the single call the S3 backend needs. The real
// implementation is awsS3Wrapper; tests substitute a mock.
type ObjectStorageClient interface {
	PutObject(ctx context.Context, bucket, key string, data []byte) error
}

type S3BlobStore struct {
	client ObjectStorageClient
	bucket string
}

func NewS3BlobStore(client ObjectStorageClient, bucket string) *S3BlobStore {
	return &S3BlobStore{client: client, bucket: bucket}
}

func (s *S3BlobStore) Bucket() string {
	return s.bucket
}

func (s *S3BlobStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	copied := make([]byte, len(data))
	copy(copied, data)
	if err := s.client.PutObject(ctx, s.bucket, key, copied); err != nil {
		return "", &WriteError{Bucket: s.bucket, Key: key, Err: err}
	}
	return key, nil
}

var (
	_ BlobStore = (*S3BlobStore)(nil)
	_ BlobStore = (*InMemoryBlobStore)(nil)
)
