package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clubvid/internal/infra/kafka"
	"clubvid/internal/infra/metrics"
	"clubvid/internal/model"
	"clubvid/internal/repository"
	"clubvid/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const searchTimeout = 3 * time.Second

// VideoSearcher 全文检索
type VideoSearcher interface {
	SearchVideoIDs(ctx context.Context, query string, from, size int) ([]int64, int64, error)
}

// VideoIndexer 维护搜索索引
type VideoIndexer interface {
	IndexVideo(ctx context.Context, v *model.Video) error
	DeleteVideo(ctx context.Context, videoID int64) error
	BulkIndexVideos(ctx context.Context, videos []model.Video) (success, failed int, err error)
}

type SearchService struct {
	searcher VideoSearcher
	videos   VideoStore
}

// NewSearchService searcher 为 nil 时直接查询数据库
func NewSearchService(searcher VideoSearcher, videos VideoStore) *SearchService {
	return &SearchService{searcher: searcher, videos: videos}
}

// Search 搜索视频（ES 优先，失败则降级到 DB）
func (s *SearchService) Search(ctx context.Context, q string, page, pageSize int) ([]model.Video, int64, error) {
	skip := (page - 1) * pageSize

	if s.searcher != nil {
		videos, total, err := s.searchFromES(ctx, q, skip, pageSize)
		if err == nil {
			return videos, total, nil
		}
		metrics.SearchFallbackTotal.Inc()
		logger.Warn("ES search failed, fallback to DB", zap.String("q", q), zap.Error(err))
	}

	return s.videos.List(ctx, repository.VideoFilter{Search: q}, skip, pageSize)
}

func (s *SearchService) searchFromES(ctx context.Context, q string, skip, limit int) ([]model.Video, int64, error) {
	esCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	ids, total, err := s.searcher.SearchVideoIDs(esCtx, q, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []model.Video{}, total, nil
	}

	videos, err := s.videos.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

// IndexSyncService 消费视频事件，保持 ES 索引与数据库一致（worker 使用）
type IndexSyncService struct {
	indexer VideoIndexer
	videos  VideoStore
}

func NewIndexSyncService(indexer VideoIndexer, videos VideoStore) *IndexSyncService {
	return &IndexSyncService{indexer: indexer, videos: videos}
}

// HandleEvent 按事件类型更新或删除索引文档。
// 记录已不存在时删除文档，保证乱序到达的事件最终收敛到数据库状态。
func (s *IndexSyncService) HandleEvent(ctx context.Context, event *kafka.VideoEvent) error {
	if event.Type == kafka.EventVideoDeleted {
		return s.indexer.DeleteVideo(ctx, event.VideoID)
	}

	video, err := s.videos.GetByID(ctx, event.VideoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.indexer.DeleteVideo(ctx, event.VideoID)
		}
		return fmt.Errorf("load video %d: %w", event.VideoID, err)
	}
	return s.indexer.IndexVideo(ctx, video)
}

// Reindex 分批把数据库中的全部视频写入索引
func (s *IndexSyncService) Reindex(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	indexed := 0
	for skip := 0; ; skip += batchSize {
		videos, _, err := s.videos.List(ctx, repository.VideoFilter{}, skip, batchSize)
		if err != nil {
			return indexed, err
		}
		if len(videos) == 0 {
			break
		}

		success, failed, err := s.indexer.BulkIndexVideos(ctx, videos)
		if err != nil {
			return indexed, err
		}
		if failed > 0 {
			logger.Warn("Some videos failed to index", zap.Int("failed", failed))
		}
		indexed += success

		if len(videos) < batchSize {
			break
		}
	}

	logger.Info("Reindex completed", zap.Int("indexed", indexed))
	return indexed, nil
}
