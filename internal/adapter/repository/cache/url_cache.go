package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/merchsy/internal/config"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "signed_url:"

func NewRedisClient(ctx context.Context, cfg *config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Error("Failed to connect to Redis", zap.String("address", cfg.Address), zap.Error(err))
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Address, err)
	}
	log.Info("Successfully connected to Redis", zap.String("address", cfg.Address))
	return rdb, nil
}

// URLCache implements domain.URLCache on Redis string keys with expiry.
type URLCache struct {
	client *redis.Client
	logger *logger.Logger
}

func NewURLCache(client *redis.Client, log *logger.Logger) *URLCache {
	return &URLCache{client: client, logger: log.Named("URLCache")}
}

func (c *URLCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, cacheKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		c.logger.Warn("Redis Get failed", zap.String("key", key), zap.Error(err))
		return "", false, fmt.Errorf("url cache get %q: %w", key, err)
	}
	return val, true, nil
}

func (c *URLCache) Set(ctx context.Context, key, url string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, cacheKey(key), url, ttl).Err(); err != nil {
		c.logger.Warn("Redis Set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("url cache set %q: %w", key, err)
	}
	return nil
}

func cacheKey(objectKey string) string {
	return keyPrefix + objectKey
}
