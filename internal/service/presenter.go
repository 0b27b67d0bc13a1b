package service

import (
	"context"
	"errors"
	"time"

	"clubvid/internal/api/dto"
	"clubvid/internal/model"
	"clubvid/internal/storage"
	"clubvid/pkg/logger"

	"go.uber.org/zap"
)

// URLSigner 签名 URL（带缓存）
type URLSigner interface {
	SignedURL(ctx context.Context, objectKey string) (string, error)
	Invalidate(ctx context.Context, objectKeys ...string)
	TTL() time.Duration
}

// FavoriteLookup 批量查询收藏状态
type FavoriteLookup interface {
	BatchCheckFavorited(ctx context.Context, userID int64, videoIDs []int64) (map[int64]bool, error)
}

// videoPresenter 把记录转换为会员可见的视图：对象键换成签名 URL
type videoPresenter struct {
	signer    URLSigner
	favorites FavoriteLookup
}

func (p *videoPresenter) toInfos(ctx context.Context, userID int64, videos []model.Video) ([]dto.VideoInfo, error) {
	items := make([]dto.VideoInfo, 0, len(videos))
	if len(videos) == 0 {
		return items, nil
	}

	ids := make([]int64, 0, len(videos))
	for i := range videos {
		ids = append(ids, videos[i].ID)
	}
	favSet := map[int64]bool{}
	if p.favorites != nil && userID != 0 {
		set, err := p.favorites.BatchCheckFavorited(ctx, userID, ids)
		if err != nil {
			return nil, err
		}
		favSet = set
	}

	for i := range videos {
		v := &videos[i]
		thumbURL, err := p.signer.SignedURL(ctx, v.ThumbnailObjectKey)
		if err != nil {
			// 单个封面缺失不影响整个列表
			logger.Warn("Failed to sign thumbnail",
				zap.Int64("video_id", v.ID),
				zap.String("key", v.ThumbnailObjectKey),
				zap.Error(err),
			)
			thumbURL = ""
		}
		items = append(items, dto.VideoInfo{
			ID:              v.ID,
			OriginalName:    v.OriginalName,
			Title:           v.Title,
			Category:        v.Category,
			Description:     v.Description,
			DurationSeconds: v.DurationSeconds,
			UploadedAt:      v.UploadedAt,
			ThumbnailURL:    thumbURL,
			IsFavorite:      favSet[v.ID],
		})
	}
	return items, nil
}

func (p *videoPresenter) signedURL(ctx context.Context, key string) (*dto.SignedURLData, error) {
	url, err := p.signer.SignedURL(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrMediaMissing
		}
		return nil, wrapSignError(key, err)
	}
	return &dto.SignedURLData{URL: url, ExpiresIn: int(p.signer.TTL().Seconds())}, nil
}

func (p *videoPresenter) invalidate(ctx context.Context, keys ...string) {
	p.signer.Invalidate(ctx, keys...)
}
