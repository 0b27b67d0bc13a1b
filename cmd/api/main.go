package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"clubvid/internal/api/handler"
	"clubvid/internal/api/middleware"
	"clubvid/internal/api/router"
	"clubvid/internal/config"
	"clubvid/internal/infra/database"
	infraES "clubvid/internal/infra/elasticsearch"
	infraKafka "clubvid/internal/infra/kafka"
	infraMinio "clubvid/internal/infra/minio"
	infraRedis "clubvid/internal/infra/redis"
	"clubvid/internal/infra/tracing"
	"clubvid/internal/ingest"
	"clubvid/internal/media"
	"clubvid/internal/model"
	"clubvid/internal/repository"
	"clubvid/internal/service"
	"clubvid/internal/storage"
	"clubvid/internal/thumbnail"
	"clubvid/pkg/logger"

	_ "clubvid/api/openapi"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// @title Clubvid API
// @version 1.0
// @description 会员制视频库 API 服务

// @host 127.0.0.1:8000
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description 输入格式: Bearer {token}

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Init(&cfg.Log, "api"); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.InitTracer(ctx, &cfg.Tracing, cfg.App.Name)
	if err != nil {
		logger.Warn("Tracing init failed, continuing without traces", zap.Error(err))
	}

	// 初始化数据库
	db, err := database.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db, &model.User{}, &model.Video{}, &model.Favorite{}); err != nil {
		logger.Fatal("Failed to auto migrate", zap.Error(err))
	}

	// 初始化对象存储
	store, err := infraMinio.New(ctx, &cfg.MinIO)
	if err != nil {
		logger.Fatal("Failed to init minio", zap.Error(err))
	}

	// Redis 只用于签名 URL 缓存，不可用时直接回源签名
	var urlCache storage.URLCache
	if rdb, err := infraRedis.New(ctx, &cfg.Redis); err != nil {
		logger.Warn("Redis init failed, signed URLs will not be cached", zap.Error(err))
	} else {
		defer rdb.Close()
		urlCache = infraRedis.NewURLCache(rdb)
	}
	signer := storage.NewCachingSigner(store, urlCache, cfg.MinIO.SignedURLDuration())

	// Elasticsearch 可选，失败则搜索降级到 DB
	var searcher service.VideoSearcher
	if es, err := infraES.New(ctx, &cfg.Elasticsearch); err != nil {
		logger.Warn("Elasticsearch init failed, search will fallback to DB", zap.Error(err))
	} else {
		searcher = es
	}

	producer := infraKafka.NewProducer(&cfg.Kafka)
	defer producer.Close()

	// 入库流水线
	prober := media.NewFFmpeg(&cfg.Media)
	thumbnails := thumbnail.NewGenerator(prober, store, nil)

	videoRepo := repository.NewVideoRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	userRepo := repository.NewUserRepository(db)

	orchestrator := ingest.NewOrchestrator(store, prober, thumbnails, videoRepo, cfg.MinIO.ProbeURLDuration(),
		ingest.WithMaxUploadSize(cfg.MinIO.MaxUploadSize),
	)

	searchService := service.NewSearchService(searcher, videoRepo)
	videoService := service.NewVideoService(orchestrator, videoRepo, store, signer, favoriteRepo, searchService, producer)
	favoriteService := service.NewFavoriteService(favoriteRepo, videoRepo, signer)
	authService := service.NewAuthService(userRepo)

	gin.SetMode(cfg.App.Mode)
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(middleware.Recovery())
	r.Use(otelgin.Middleware(cfg.App.Name))
	r.Use(middleware.Logger())

	r.GET("/healthz", healthCheckHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.Setup(r,
		handler.NewAuthHandler(authService),
		handler.NewVideoHandler(videoService),
		handler.NewFavoriteHandler(favoriteService),
	)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Info("Starting application",
			zap.String("name", cfg.App.Name),
			zap.String("version", cfg.App.Version),
			zap.String("mode", cfg.App.Mode),
			zap.String("addr", addr),
			zap.String("minio", cfg.MinIO.Endpoint),
			zap.String("bucket", cfg.MinIO.Bucket),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
		logger.Error("Tracer shutdown failed", zap.Error(err))
	}
	logger.Info("Server exited")
}

// healthCheckHandler 健康检查接口
func healthCheckHandler(c *gin.Context) {
	cfg := config.Get()

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "Service is healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   cfg.App.Name,
		"version":   cfg.App.Version,
		"mode":      cfg.App.Mode,
	})
}
