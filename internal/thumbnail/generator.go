// Package thumbnail 为视频生成随机时间点的封面图并写入对象存储。
package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"clubvid/internal/media"
	"clubvid/pkg/logger"

	"go.uber.org/zap"
)

const contentType = "image/jpeg"

type objectPutter interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// Generator 封面生成器。失败原样向上返回，不做重试。
type Generator struct {
	prober media.Prober
	store  objectPutter
	rnd    RandomSource
}

func NewGenerator(prober media.Prober, store objectPutter, rnd RandomSource) *Generator {
	if rnd == nil {
		rnd = DefaultSource()
	}
	return &Generator{prober: prober, store: store, rnd: rnd}
}

// Key 封面对象键，同一次上传重复生成会覆盖同一个对象
func Key(uploadID string) string {
	return fmt.Sprintf("thumbnails/%s.jpg", uploadID)
}

// Generate 探测时长、随机截帧并上传，返回封面对象键。
// 上传是唯一的写操作且在最后一步，失败时不会留下半成品。
func (g *Generator) Generate(ctx context.Context, source, uploadID string) (string, error) {
	duration, err := g.prober.ProbeDuration(ctx, source)
	if err != nil {
		return "", err
	}
	return g.GenerateProbed(ctx, source, uploadID, duration)
}

// GenerateProbed 同 Generate，duration 由调用方探测好传入
func (g *Generator) GenerateProbed(ctx context.Context, source, uploadID string, duration float64) (string, error) {
	ts, err := PickTimestamp(duration, g.rnd)
	if err != nil {
		return "", err
	}

	img, err := g.extract(ctx, source, ts, duration)
	if err != nil {
		return "", err
	}

	key := Key(uploadID)
	if err := g.store.Put(ctx, key, bytes.NewReader(img), int64(len(img)), contentType); err != nil {
		return "", err
	}

	logger.Debug("Thumbnail generated",
		zap.String("key", key),
		zap.Float64("duration", duration),
		zap.Float64("timestamp", ts),
	)
	return key, nil
}

func (g *Generator) extract(ctx context.Context, source string, ts, duration float64) ([]byte, error) {
	if b, ok := g.prober.(media.BoundedExtractor); ok {
		return b.ExtractFrameBounded(ctx, source, ts, duration)
	}
	return g.prober.ExtractFrame(ctx, source, ts)
}
