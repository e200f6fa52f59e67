package server

import (
	"context"
	"fmt"

	"anoa.com/rewardshub/internal/config"
	"anoa.com/rewardshub/pkg/storage"
)

// NewObjectStorage builds the evidence store selected by STORAGE_DRIVER.
func NewObjectStorage(ctx context.Context, cfg config.Storage) (storage.ObjectStorage, error) {
	switch cfg.Driver {
	case "local", "":
		return storage.NewLocalStorage(cfg.LocalDir)
	case "s3":
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			PublicBaseURL:   cfg.S3PublicBaseURL,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
	case "cloudinary":
		return storage.NewCloudinaryStorage(cfg.CloudinaryFolder)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
