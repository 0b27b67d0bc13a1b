package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"clubvid/internal/config"
	"clubvid/pkg/logger"

	"go.uber.org/zap"
)

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// FFmpeg 基于 ffprobe / ffmpeg 命令行的 Prober
type FFmpeg struct {
	ffprobe string
	ffmpeg  string
	timeout time.Duration
	width   int
	height  int
	run     runFunc
}

var (
	_ Prober           = (*FFmpeg)(nil)
	_ BoundedExtractor = (*FFmpeg)(nil)
)

func NewFFmpeg(cfg *config.MediaConfig) *FFmpeg {
	return &FFmpeg{
		ffprobe: cfg.FFprobePath,
		ffmpeg:  cfg.FFmpegPath,
		timeout: cfg.ProbeTimeoutDuration(),
		width:   cfg.ThumbnailWidth,
		height:  cfg.ThumbnailHeight,
		run:     runCommand,
	}
}

// ProbeDuration 读取容器层的时长（秒）
func (f *FFmpeg) ProbeDuration(ctx context.Context, source string) (float64, error) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	out, err := f.run(ctx, f.ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		source,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: ffprobe: %w", ErrUnreadableMedia, err)
	}

	duration, err := parseDuration(out)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnreadableMedia, err)
	}
	return duration, nil
}

// ExtractFrame 截取 timestamp 处的一帧，返回 JPEG 字节
func (f *FFmpeg) ExtractFrame(ctx context.Context, source string, timestamp float64) ([]byte, error) {
	if timestamp < 0 {
		return nil, fmt.Errorf("%w: %.3fs is negative", ErrTimestampOutOfRange, timestamp)
	}

	duration, err := f.ProbeDuration(ctx, source)
	if err != nil {
		return nil, err
	}
	return f.ExtractFrameBounded(ctx, source, timestamp, duration)
}

// ExtractFrameBounded 与 ExtractFrame 相同，但使用调用方给出的时长
func (f *FFmpeg) ExtractFrameBounded(ctx context.Context, source string, timestamp, duration float64) ([]byte, error) {
	if timestamp < 0 || timestamp >= duration {
		return nil, fmt.Errorf("%w: %.3fs not in [0, %.3fs)", ErrTimestampOutOfRange, timestamp, duration)
	}

	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	args := []string{
		"-v", "error",
		"-ss", seekArg(timestamp),
		"-i", source,
		"-frames:v", "1",
	}
	if f.width > 0 && f.height > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", f.width, f.height))
	}
	args = append(args, "-f", "image2", "-c:v", "mjpeg", "pipe:1")

	out, err := f.run(ctx, f.ffmpeg, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg: %w", ErrUnreadableMedia, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: ffmpeg produced no frame at %.3fs", ErrUnreadableMedia, timestamp)
	}

	logger.Debug("Frame extracted",
		zap.Float64("timestamp", timestamp),
		zap.Int("bytes", len(out)),
	)
	return out, nil
}

// seekArg 截断到毫秒，保证 -ss 的值不大于 timestamp
func seekArg(timestamp float64) string {
	return strconv.FormatFloat(math.Floor(timestamp*1000)/1000, 'f', 3, 64)
}

func (f *FFmpeg) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.timeout)
}

func parseDuration(out []byte) (float64, error) {
	var data struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &data); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}

	raw := strings.TrimSpace(data.Format.Duration)
	if raw == "" || raw == "N/A" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", raw, err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("negative duration %f", duration)
	}
	return duration, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w (%w)", err, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}
