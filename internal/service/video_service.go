package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clubvid/internal/api/dto"
	"clubvid/internal/infra/kafka"
	"clubvid/internal/infra/metrics"
	"clubvid/internal/ingest"
	"clubvid/internal/model"
	"clubvid/internal/repository"
	"clubvid/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrVideoNotFound    = ingest.ErrVideoNotFound
	ErrNoFieldsToUpdate = ingest.ErrNoFieldsToUpdate
	ErrMediaMissing     = errors.New("视频文件不存在")
)

const objectCleanupTimeout = 30 * time.Second

// Ingestor 入库流水线
type Ingestor interface {
	Ingest(ctx context.Context, up ingest.Upload, meta ingest.Metadata) (*model.Video, error)
	Reingest(ctx context.Context, id int64, up *ingest.Upload, patch ingest.MetadataPatch) (*model.Video, error)
}

// VideoStore 视频元数据查询
type VideoStore interface {
	GetByID(ctx context.Context, id int64) (*model.Video, error)
	GetByIDs(ctx context.Context, ids []int64) ([]model.Video, error)
	List(ctx context.Context, filter repository.VideoFilter, skip, limit int) ([]model.Video, int64, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id int64) (*model.Video, error)
}

// ObjectDeleter 删除对象
type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

// EventPublisher 发布视频变更事件
type EventPublisher interface {
	PublishVideoEvent(ctx context.Context, eventType string, videoID int64) error
}

type VideoService struct {
	ingestor  Ingestor
	videos    VideoStore
	objects   ObjectDeleter
	presenter *videoPresenter
	search    *SearchService
	events    EventPublisher
}

func NewVideoService(ingestor Ingestor, videos VideoStore, objects ObjectDeleter, signer URLSigner, favorites FavoriteLookup, search *SearchService, events EventPublisher) *VideoService {
	return &VideoService{
		ingestor:  ingestor,
		videos:    videos,
		objects:   objects,
		presenter: &videoPresenter{signer: signer, favorites: favorites},
		search:    search,
		events:    events,
	}
}

// Upload 上传视频并完成整条入库流水线
func (s *VideoService) Upload(ctx context.Context, up ingest.Upload, req *dto.VideoUploadRequest) (*dto.VideoDetail, error) {
	video, err := s.ingestor.Ingest(ctx, up, ingest.Metadata{
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventVideoCreated, video.ID)
	return toVideoDetail(video), nil
}

// Update 更新视频信息，up 不为 nil 时替换视频文件
func (s *VideoService) Update(ctx context.Context, videoID int64, up *ingest.Upload, req *dto.VideoUpdateRequest) (*dto.VideoDetail, error) {
	video, err := s.ingestor.Reingest(ctx, videoID, up, ingest.MetadataPatch{
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventVideoUpdated, video.ID)
	return toVideoDetail(video), nil
}

// Delete 先删除记录（含收藏），再删除对象存储中的原始文件和封面
func (s *VideoService) Delete(ctx context.Context, videoID int64) error {
	video, err := s.videos.Delete(ctx, videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVideoNotFound
		}
		return err
	}

	keys := []string{video.RawObjectKey, video.ThumbnailObjectKey}

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), objectCleanupTimeout)
	defer cancel()
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.objects.Delete(cleanupCtx, key); err != nil {
			logger.Error("Failed to delete video object, object orphaned",
				zap.Int64("video_id", videoID),
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
	s.presenter.invalidate(cleanupCtx, keys...)

	s.publish(ctx, kafka.EventVideoDeleted, videoID)
	logger.Info("Video deleted", zap.Int64("video_id", videoID))
	return nil
}

// GetDetail 会员查看视频详情
func (s *VideoService) GetDetail(ctx context.Context, userID, videoID int64) (*dto.VideoInfo, error) {
	video, err := s.getVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	items, err := s.presenter.toInfos(ctx, userID, []model.Video{*video})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// List 分页列表，q 非空时走搜索（ES 优先，失败降级 DB）
func (s *VideoService) List(ctx context.Context, userID int64, query *dto.VideoListQuery) (*dto.VideoListData, error) {
	page, pageSize := normalizePage(query.Page, query.PageSize)
	skip := (page - 1) * pageSize

	var (
		videos []model.Video
		total  int64
		err    error
	)
	if query.Q != "" && !query.OnlyFavorite && s.search != nil {
		videos, total, err = s.search.Search(ctx, query.Q, page, pageSize)
	} else {
		filter := repository.VideoFilter{Search: query.Q}
		if query.OnlyFavorite {
			filter.FavoriteOfUser = userID
		}
		videos, total, err = s.videos.List(ctx, filter, skip, pageSize)
	}
	if err != nil {
		return nil, err
	}

	items, err := s.presenter.toInfos(ctx, userID, videos)
	if err != nil {
		return nil, err
	}
	return buildVideoListData(items, total, page, pageSize), nil
}

// Count 视频总数
func (s *VideoService) Count(ctx context.Context) (*dto.VideoCountData, error) {
	total, err := s.videos.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.VideoCountData{Total: total}, nil
}

// PlaybackURL 返回原始视频的签名播放地址
func (s *VideoService) PlaybackURL(ctx context.Context, videoID int64) (*dto.SignedURLData, error) {
	video, err := s.getVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return s.presenter.signedURL(ctx, video.RawObjectKey)
}

// ThumbnailURL 返回封面的签名地址
func (s *VideoService) ThumbnailURL(ctx context.Context, videoID int64) (*dto.SignedURLData, error) {
	video, err := s.getVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return s.presenter.signedURL(ctx, video.ThumbnailObjectKey)
}

func (s *VideoService) getVideo(ctx context.Context, videoID int64) (*model.Video, error) {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return video, nil
}

// publish 事件发送失败只记日志，已提交的入库结果不回滚
func (s *VideoService) publish(ctx context.Context, eventType string, videoID int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishVideoEvent(ctx, eventType, videoID); err != nil {
		metrics.VideoEventsTotal.WithLabelValues("publish", "failed").Inc()
		logger.Error("Publish video event failed",
			zap.String("type", eventType),
			zap.Int64("video_id", videoID),
			zap.Error(err),
		)
		return
	}
	metrics.VideoEventsTotal.WithLabelValues("publish", "ok").Inc()
}

func toVideoDetail(v *model.Video) *dto.VideoDetail {
	return &dto.VideoDetail{
		ID:                 v.ID,
		OriginalName:       v.OriginalName,
		Title:              v.Title,
		Category:           v.Category,
		Description:        v.Description,
		RawObjectKey:       v.RawObjectKey,
		ThumbnailObjectKey: v.ThumbnailObjectKey,
		DurationSeconds:    v.DurationSeconds,
		UploadedAt:         v.UploadedAt,
		CreatedAt:          v.CreatedAt,
		UpdatedAt:          v.UpdatedAt,
	}
}

func buildVideoListData(items []dto.VideoInfo, total int64, page, pageSize int) *dto.VideoListData {
	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)

	return &dto.VideoListData{
		Videos:     items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func wrapSignError(key string, err error) error {
	return fmt.Errorf("%w: sign %s: %w", ingest.ErrStorage, key, err)
}
