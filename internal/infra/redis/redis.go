package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clubvid/internal/config"
	"clubvid/internal/storage"
	"clubvid/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const signedURLKeyPrefix = "signed_url:"

// New 创建 Redis 客户端并测试连接
func New(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", cfg.Addr()),
		zap.Int("db", cfg.DB),
		zap.Int("pool_size", cfg.PoolSize),
	)
	return client, nil
}

// URLCache 以 Redis 字符串保存签名 URL
type URLCache struct {
	client redis.Cmdable
}

var _ storage.URLCache = (*URLCache)(nil)

func NewURLCache(client redis.Cmdable) *URLCache {
	return &URLCache{client: client}
}

func (c *URLCache) Get(ctx context.Context, objectKey string) (string, bool, error) {
	val, err := c.client.Get(ctx, signedURLKeyPrefix+objectKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *URLCache) Set(ctx context.Context, objectKey, url string, ttl time.Duration) error {
	return c.client.Set(ctx, signedURLKeyPrefix+objectKey, url, ttl).Err()
}

func (c *URLCache) Delete(ctx context.Context, objectKeys ...string) error {
	if len(objectKeys) == 0 {
		return nil
	}
	keys := make([]string, 0, len(objectKeys))
	for _, k := range objectKeys {
		keys = append(keys, signedURLKeyPrefix+k)
	}
	return c.client.Del(ctx, keys...).Err()
}
