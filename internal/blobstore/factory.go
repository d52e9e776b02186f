package blobstore

import (
	"context"
	"fmt"
	"log"

	"github.com/jdiitm/event-ingest/internal/config"
)

func NewBlobStoreFromConfig(ctx context.Context, cfg config.Config) (BlobStore, error) {
	switch cfg.BlobStoreType {
	case config.StoreS3:
		if cfg.BucketName == "" {
			return nil, fmt.Errorf("blobstore: s3 requires a non-empty bucket name")
		}
		log.Printf("blobstore: using S3 backend bucket=%s region=%s endpoint=%q",
			cfg.BucketName, cfg.Region, cfg.S3Endpoint)
		client, err := newAWSS3Client(ctx, S3Options{
			Region:          cfg.Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("blobstore: create s3 client: %w", err)
		}
		return NewS3BlobStore(client, cfg.BucketName), nil
	case config.StoreMemory:
		log.Println("blobstore: using in-memory backend (development only)")
		return NewInMemoryBlobStore(), nil
	default:
		return nil, fmt.Errorf("blobstore: unknown store type %q", cfg.BlobStoreType)
	}
}
