package service

import (
	"context"
	"errors"

	"clubvid/internal/api/dto"
	"clubvid/internal/model"

	"gorm.io/gorm"
)

// FavoriteStore 收藏记录存储
type FavoriteStore interface {
	Toggle(ctx context.Context, userID, videoID int64) (bool, error)
	Exists(ctx context.Context, userID, videoID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64, skip, limit int) ([]model.Favorite, int64, error)
}

type FavoriteService struct {
	favorites FavoriteStore
	videos    VideoStore
	presenter *videoPresenter
}

func NewFavoriteService(favorites FavoriteStore, videos VideoStore, signer URLSigner) *FavoriteService {
	return &FavoriteService{
		favorites: favorites,
		videos:    videos,
		presenter: &videoPresenter{signer: signer},
	}
}

// Toggle 切换收藏状态
func (s *FavoriteService) Toggle(ctx context.Context, userID, videoID int64) (*dto.FavoriteStatusData, error) {
	if err := s.ensureVideo(ctx, videoID); err != nil {
		return nil, err
	}

	favorited, err := s.favorites.Toggle(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}
	return &dto.FavoriteStatusData{VideoID: videoID, IsFavorite: favorited}, nil
}

// GetStatus 查询收藏状态
func (s *FavoriteService) GetStatus(ctx context.Context, userID, videoID int64) (*dto.FavoriteStatusData, error) {
	if err := s.ensureVideo(ctx, videoID); err != nil {
		return nil, err
	}

	isFav, err := s.favorites.Exists(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}
	return &dto.FavoriteStatusData{VideoID: videoID, IsFavorite: isFav}, nil
}

// MyVideos 当前用户收藏的视频，按收藏时间倒序
func (s *FavoriteService) MyVideos(ctx context.Context, userID int64, page, pageSize int) (*dto.VideoListData, error) {
	page, pageSize = normalizePage(page, pageSize)
	favorites, total, err := s.favorites.ListByUser(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}

	videos := make([]model.Video, 0, len(favorites))
	for i := range favorites {
		videos = append(videos, favorites[i].Video)
	}

	items, err := s.presenter.toInfos(ctx, 0, videos)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].IsFavorite = true
	}
	return buildVideoListData(items, total, page, pageSize), nil
}

func (s *FavoriteService) ensureVideo(ctx context.Context, videoID int64) error {
	if _, err := s.videos.GetByID(ctx, videoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVideoNotFound
		}
		return err
	}
	return nil
}
