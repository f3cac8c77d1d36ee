package minio

import (
	"context"
	"fmt"
	"sync"

	"docmind/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	client  *minio.Client
	once    sync.Once
	initErr error
)

// GetClient initializes and returns the MinIO client as a singleton.
// It also makes sure the configured bucket exists.
func GetClient(ctx context.Context, cfg *config.MinIOConfig) (*minio.Client, error) {
	once.Do(func() {
		c, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.Secure,
		})
		if err != nil {
			initErr = fmt.Errorf("cannot create MinIO client: %w", err)
			return
		}

		exists, err := c.BucketExists(ctx, cfg.Bucket)
		if err != nil {
			initErr = fmt.Errorf("MinIO bucket check failed: %w", err)
			return
		}
		if !exists {
			if err := c.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
				initErr = fmt.Errorf("cannot create MinIO bucket '%s': %w", cfg.Bucket, err)
				return
			}
		}

		client = c
	})

	return client, initErr
}

// HealthCheck verifies connectivity and credentials by listing buckets.
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("MinIO client not initialized")
	}
	if _, err := client.ListBuckets(ctx); err != nil {
		return fmt.Errorf("MinIO health check failed: %w", err)
	}
	return nil
}
