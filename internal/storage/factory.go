package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"yd-go/internal/config"
	"yd-go/internal/yd"
)

// NewStorageFromConfig creates a Storage implementation based on the storage
// config type, wrapped in a QuotaStorage unless the quota is disabled.
func NewStorageFromConfig(ctx context.Context, cfg config.StorageConfig) (yd.Storage, error) {
	inner, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if limit := cfg.Quota(); limit > 0 {
		return NewQuotaStorage(inner, limit), nil
	}
	return inner, nil
}

func newBackend(ctx context.Context, cfg config.StorageConfig) (yd.Storage, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStorage(), nil
	case "filesystem":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("filesystem storage requires dir to be set")
		}
		return NewFileSystemStorage(cfg.Dir)
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite storage")
		}
		return NewSQLiteStorage(filepath.Join(cfg.DataDir, "yd.db"))
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis storage requires redis_addr to be set")
		}
		return NewRedisStorage(ctx, cfg.RedisAddr, cfg.RedisPrefix)
	case "s3":
		return NewS3Storage(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region)
	case "dynamodb":
		return NewDynamoDBStorage(ctx, cfg.DynamoDBTable, cfg.DynamoDBRegion, cfg.DynamoDBEndpoint)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
