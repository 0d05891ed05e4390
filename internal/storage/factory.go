package storage

import (
	"context"
	"fmt"
	"strings"

	"stakdcards.com/app/internal/config"
)

type FactoryResult struct {
	Driver  string
	Storage Storage
}

// FromConfig builds the configured backend. A blank driver disables storage
// and returns a nil Storage.
func FromConfig(ctx context.Context, cfg config.StorageConfig) (FactoryResult, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "none":
		return FactoryResult{Driver: "none"}, nil

	case "local":
		baseDir := cfg.LocalDir
		if baseDir == "" {
			baseDir = "./uploads"
		}
		urlPrefix := cfg.LocalURLPrefix
		if urlPrefix == "" {
			urlPrefix = "/uploads"
		}
		return FactoryResult{Driver: "local", Storage: NewLocal(baseDir, urlPrefix)}, nil

	case "s3":
		if cfg.S3Region == "" || cfg.S3Bucket == "" || cfg.S3PublicBaseURL == "" {
			return FactoryResult{}, fmt.Errorf("S3 config missing: S3_REGION, S3_BUCKET, S3_PUBLIC_BASE_URL required")
		}
		prefix := cfg.S3Prefix
		if prefix == "" {
			prefix = "labels"
		}
		s, err := NewS3(ctx, S3Config{
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			Prefix:        prefix,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			return FactoryResult{}, err
		}
		return FactoryResult{Driver: "s3", Storage: s}, nil

	default:
		return FactoryResult{}, fmt.Errorf("unknown STORAGE_DRIVER: %s", driver)
	}
}
