// Package media 探测视频时长并截取单帧画面。
package media

import (
	"context"
	"errors"
)

var (
	// ErrUnreadableMedia 源无法解码：文件损坏、编码不支持、签名 URL 过期等
	ErrUnreadableMedia = errors.New("unreadable media")
	// ErrTimestampOutOfRange 截帧时间点不在 [0, duration) 内
	ErrTimestampOutOfRange = errors.New("timestamp out of range")
)

// Prober 媒体探测器。source 可以是本地路径或 URL。
// 实现不得写入对象存储或元数据存储。
type Prober interface {
	ProbeDuration(ctx context.Context, source string) (float64, error)
	ExtractFrame(ctx context.Context, source string, timestamp float64) ([]byte, error)
}

// BoundedExtractor 调用方已经探测过时长时，截帧按给定时长做范围检查，不再重复探测
type BoundedExtractor interface {
	ExtractFrameBounded(ctx context.Context, source string, timestamp, duration float64) ([]byte, error)
}
