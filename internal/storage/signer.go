package storage

import (
	"context"
	"time"

	"clubvid/internal/infra/metrics"
	"clubvid/pkg/logger"

	"go.uber.org/zap"
)

// URLCache 签名 URL 缓存
type URLCache interface {
	Get(ctx context.Context, objectKey string) (string, bool, error)
	Set(ctx context.Context, objectKey, url string, ttl time.Duration) error
	Delete(ctx context.Context, objectKeys ...string) error
}

// CachingSigner 以固定有效期签发播放/封面 URL，并在缓存中保存到过期前的一小段时间。
// 缓存不可用时直接回源签名，不影响读取路径。
type CachingSigner struct {
	store ObjectStore
	cache URLCache
	ttl   time.Duration
}

func NewCachingSigner(store ObjectStore, cache URLCache, ttl time.Duration) *CachingSigner {
	return &CachingSigner{store: store, cache: cache, ttl: ttl}
}

// TTL 返回签发 URL 的有效期
func (s *CachingSigner) TTL() time.Duration {
	return s.ttl
}

// SignedURL 返回 objectKey 的签名 URL
func (s *CachingSigner) SignedURL(ctx context.Context, objectKey string) (string, error) {
	if s.cache != nil {
		url, ok, err := s.cache.Get(ctx, objectKey)
		if err != nil {
			logger.Warn("Signed URL cache read failed", zap.String("key", objectKey), zap.Error(err))
		} else if ok {
			metrics.SignedURLsTotal.WithLabelValues("cache").Inc()
			return url, nil
		}
	}

	url, err := s.store.SignedURL(ctx, objectKey, s.ttl)
	if err != nil {
		return "", err
	}
	metrics.SignedURLsTotal.WithLabelValues("store").Inc()

	if cacheTTL := s.cacheTTL(); s.cache != nil && cacheTTL > 0 {
		if err := s.cache.Set(ctx, objectKey, url, cacheTTL); err != nil {
			logger.Warn("Signed URL cache write failed", zap.String("key", objectKey), zap.Error(err))
		}
	}
	return url, nil
}

// Invalidate 删除对象后清理其缓存的签名 URL
func (s *CachingSigner) Invalidate(ctx context.Context, objectKeys ...string) {
	if s.cache == nil || len(objectKeys) == 0 {
		return
	}
	if err := s.cache.Delete(ctx, objectKeys...); err != nil {
		logger.Warn("Signed URL cache invalidation failed", zap.Strings("keys", objectKeys), zap.Error(err))
	}
}

// 提前 10% 过期，保证缓存中取出的 URL 仍有足够的剩余有效期
func (s *CachingSigner) cacheTTL() time.Duration {
	return s.ttl - s.ttl/10
}
