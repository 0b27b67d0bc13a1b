package kafka

import (
	"context"
	"time"

	"clubvid/internal/config"
	"clubvid/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	handleAttempts = 3
	retryBackoff   = 500 * time.Millisecond
)

// EventHandler 处理视频事件
type EventHandler func(ctx context.Context, event *VideoEvent) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumeVideoEvents 启动视频事件消费者（阻塞，需在 goroutine 中运行）
// ctx 取消后会自动停止。消息处理完（成功或重试耗尽）才提交 offset。
func ConsumeVideoEvents(ctx context.Context, cfg *config.KafkaConfig, handler EventHandler) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.VideoEventsTopic(),
		GroupID:     cfg.GroupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})

	logger.Info("Kafka video event consumer started",
		zap.String("topic", cfg.VideoEventsTopic()),
		zap.String("group", cfg.GroupID),
	)

	consume(ctx, reader, handler, retryBackoff)
}

func consume(ctx context.Context, reader messageReader, handler EventHandler, backoff time.Duration) {
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Error("Failed to close kafka consumer", zap.Error(err))
		}
		logger.Info("Kafka video event consumer stopped")
	}()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Failed to fetch kafka message", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if !handleMessage(ctx, msg.Value, handler, backoff) && ctx.Err() != nil {
			// 处理被中断，不提交，重启后重新投递
			return
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Failed to commit kafka message",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

// handleMessage 解码并分发一条消息。格式错误的消息直接丢弃；
// 处理失败按 handleAttempts 次有限重试，重试耗尽后放弃，由 worker 启动时的全量重建兜底。
func handleMessage(ctx context.Context, value []byte, handler EventHandler, backoff time.Duration) bool {
	event, err := DecodeVideoEvent(value)
	if err != nil {
		logger.Error("Dropping malformed video event",
			zap.Error(err),
			zap.ByteString("value", value),
		)
		return false
	}

	logger.Info("Received video event",
		zap.String("type", event.Type),
		zap.Int64("video_id", event.VideoID),
	)

	for attempt := 1; ; attempt++ {
		err := handler(ctx, event)
		if err == nil {
			return true
		}
		logger.Error("Failed to handle video event",
			zap.String("type", event.Type),
			zap.Int64("video_id", event.VideoID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt >= handleAttempts {
			logger.Warn("Giving up on video event",
				zap.String("type", event.Type),
				zap.Int64("video_id", event.VideoID),
			)
			return false
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff * time.Duration(attempt)):
		}
	}
}
