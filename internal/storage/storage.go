// Package storage 定义对象存储的抽象以及签名 URL 的缓存封装。
// 对象键由调用方构造，存储层只把它当作不透明字符串。
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound 对象不存在
var ErrNotFound = errors.New("object not found")

// ObjectStore 对象存储客户端
type ObjectStore interface {
	// Put 写入对象，同名对象会被覆盖
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get 读取对象，调用方负责 Close
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete 删除对象，对象不存在时返回 nil
	Delete(ctx context.Context, key string) error
	// SignedURL 生成限时读取 URL，对象不存在时返回 ErrNotFound
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
