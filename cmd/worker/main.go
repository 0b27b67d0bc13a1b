package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"clubvid/internal/config"
	"clubvid/internal/infra/database"
	infraES "clubvid/internal/infra/elasticsearch"
	infraKafka "clubvid/internal/infra/kafka"
	"clubvid/internal/infra/metrics"
	"clubvid/internal/repository"
	"clubvid/internal/service"
	"clubvid/pkg/logger"

	"go.uber.org/zap"
)

// worker 消费视频事件，维护 Elasticsearch 索引
func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Init(&cfg.Log, "worker"); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer database.Close(db)

	es, err := infraES.New(ctx, &cfg.Elasticsearch)
	if err != nil {
		logger.Fatal("Failed to init elasticsearch", zap.Error(err))
	}
	if err := es.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure index", zap.Error(err))
	}

	metricsSrv := metrics.StartMetricsServer(cfg.App.MetricsPort)

	indexSync := service.NewIndexSyncService(es, repository.NewVideoRepository(db))

	// 启动时全量重建一次，补上 worker 停机期间错过的事件
	if n, err := indexSync.Reindex(ctx, 500); err != nil {
		logger.Error("Initial reindex failed", zap.Int("indexed", n), zap.Error(err))
	}

	handle := func(ctx context.Context, event *infraKafka.VideoEvent) error {
		err := indexSync.HandleEvent(ctx, event)
		result := "ok"
		if err != nil {
			result = "failed"
		}
		metrics.VideoEventsTotal.WithLabelValues("consume", result).Inc()
		return err
	}

	logger.Info("Search sync worker started",
		zap.String("topic", cfg.Kafka.VideoEventsTopic()),
		zap.String("group", cfg.Kafka.GroupID),
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("index", es.Index()),
	)

	infraKafka.ConsumeVideoEvents(ctx, &cfg.Kafka, handle)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Metrics server shutdown failed", zap.Error(err))
	}
	logger.Info("Search sync worker stopped")
}
