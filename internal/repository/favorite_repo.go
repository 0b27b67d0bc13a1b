package repository

import (
	"context"

	"clubvid/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Toggle 切换收藏状态，返回切换后的状态
func (r *FavoriteRepository) Toggle(ctx context.Context, userID, videoID int64) (bool, error) {
	favorited := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND video_id = ?", userID, videoID).Delete(&model.Favorite{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
		// 并发请求可能已经插入，冲突时视为已收藏
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.Favorite{UserID: userID, VideoID: videoID}).Error
		if err != nil {
			return err
		}
		favorited = true
		return nil
	})
	return favorited, err
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, videoID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Favorite{}).
		Where("user_id = ? AND video_id = ?", userID, videoID).Count(&count).Error
	return count > 0, err
}

// ListByUser 获取用户的收藏列表（含视频）
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID int64, skip, limit int) ([]model.Favorite, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Favorite{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var favorites []model.Favorite
	err := query.Preload("Video").Order("created_at DESC").Offset(skip).Limit(limit).Find(&favorites).Error
	if err != nil {
		return nil, 0, err
	}
	return favorites, total, nil
}

// BatchCheckFavorited 批量查询收藏状态
func (r *FavoriteRepository) BatchCheckFavorited(ctx context.Context, userID int64, videoIDs []int64) (map[int64]bool, error) {
	if len(videoIDs) == 0 {
		return map[int64]bool{}, nil
	}

	var favVideoIDs []int64
	err := r.db.WithContext(ctx).Model(&model.Favorite{}).
		Where("user_id = ? AND video_id IN ?", userID, videoIDs).
		Pluck("video_id", &favVideoIDs).Error
	if err != nil {
		return nil, err
	}

	result := make(map[int64]bool, len(videoIDs))
	for _, id := range favVideoIDs {
		result[id] = true
	}
	return result, nil
}
