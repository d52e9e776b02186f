package blobstore

import "context"

// BlobStore writes one object per call. The returned string is the key the
// object was stored under.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}
