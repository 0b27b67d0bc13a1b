// Package mediatest 提供可编程的 Prober，用于流水线测试。
package mediatest

import (
	"context"
	"fmt"
	"sync"

	"clubvid/internal/media"
)

// FakeProber 按字段返回预设结果，并记录截帧时间点
type FakeProber struct {
	Duration float64
	Frame    []byte

	ProbeErr error
	FrameErr error

	mu         sync.Mutex
	sources    []string
	timestamps []float64
}

var (
	_ media.Prober           = (*FakeProber)(nil)
	_ media.BoundedExtractor = (*FakeProber)(nil)
)

// NewFakeProber 返回时长为 duration 的假探测器
func NewFakeProber(duration float64) *FakeProber {
	return &FakeProber{Duration: duration, Frame: []byte{0xFF, 0xD8, 0xFF, 0xE0}}
}

func (p *FakeProber) ProbeDuration(ctx context.Context, source string) (float64, error) {
	p.mu.Lock()
	p.sources = append(p.sources, source)
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if p.ProbeErr != nil {
		return 0, p.ProbeErr
	}
	return p.Duration, nil
}

func (p *FakeProber) ExtractFrame(ctx context.Context, source string, timestamp float64) ([]byte, error) {
	return p.ExtractFrameBounded(ctx, source, timestamp, p.Duration)
}

// ExtractFrameBounded 按给定时长检查范围，不记录探测
func (p *FakeProber) ExtractFrameBounded(ctx context.Context, source string, timestamp, duration float64) ([]byte, error) {
	p.mu.Lock()
	p.timestamps = append(p.timestamps, timestamp)
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.FrameErr != nil {
		return nil, p.FrameErr
	}
	if timestamp < 0 || timestamp >= duration {
		return nil, fmt.Errorf("%w: %.3f not in [0, %.3f)", media.ErrTimestampOutOfRange, timestamp, duration)
	}
	return append([]byte(nil), p.Frame...), nil
}

// Timestamps 返回所有截帧请求的时间点
func (p *FakeProber) Timestamps() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.timestamps...)
}

// Sources 返回所有探测过的源
func (p *FakeProber) Sources() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sources...)
}
