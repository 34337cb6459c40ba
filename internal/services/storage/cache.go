package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phambaophuc/otsu-watermark/internal/services/processor"
	"github.com/redis/go-redis/v9"
)

const CacheKeyPrefix = "wm_cache:"

// CacheEnabled reports whether a Redis cache is configured.
func (s *StorageService) CacheEnabled() bool {
	return s.redisClient != nil
}

// GetFromCache returns the cached output filename, or "" on a miss.
func (s *StorageService) GetFromCache(ctx context.Context, cacheKey string) (string, error) {
	if s.redisClient == nil {
		return "", nil
	}

	name, err := s.redisClient.Get(ctx, cacheKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil // Cache miss
		}
		return "", fmt.Errorf("cache get error: %w", err)
	}
	return name, nil
}

func (s *StorageService) SetCache(ctx context.Context, cacheKey, filename string) error {
	if s.redisClient == nil {
		return nil
	}
	return s.redisClient.Set(ctx, cacheKey, filename, s.cacheDuration).Err()
}

// GenerateCacheKey keys a result by input content and output extension.
// The watermark constants are part of the key so a changed mark misses.
func (s *StorageService) GenerateCacheKey(contentHash, ext string) string {
	return fmt.Sprintf("%s%s:%s:%d:%s",
		CacheKeyPrefix,
		processor.WatermarkText,
		contentHash,
		processor.WatermarkOpacity,
		strings.ToLower(ext))
}

func (s *StorageService) GetCacheStats(ctx context.Context) (map[string]interface{}, error) {
	if s.redisClient == nil {
		return map[string]interface{}{"enabled": false}, nil
	}

	pipeline := s.redisClient.Pipeline()
	infoCmd := pipeline.Info(ctx, "memory")
	dbSizeCmd := pipeline.DBSize(ctx)

	if _, err := pipeline.Exec(ctx); err != nil {
		return nil, fmt.Errorf("pipeline error: %w", err)
	}

	return map[string]interface{}{
		"enabled": true,
		"db_keys": dbSizeCmd.Val(),
		"info":    infoCmd.Val(),
	}, nil
}
