package repository

import (
	"context"

	"clubvid/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VideoFilter 列表筛选条件
type VideoFilter struct {
	Search         string // 标题/分类/描述模糊匹配
	FavoriteOfUser int64  // 非 0 时只返回该用户收藏的视频
	IDs            []int64
}

type VideoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// GetByID 根据 ID 获取视频
func (r *VideoRepository) GetByID(ctx context.Context, id int64) (*model.Video, error) {
	var video model.Video
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&video).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

// GetByIDs 批量查询，按传入 ID 的顺序返回（搜索结果排序用），不存在的 ID 跳过
func (r *VideoRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var videos []model.Video
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&videos).Error; err != nil {
		return nil, err
	}

	byID := make(map[int64]model.Video, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}
	ordered := make([]model.Video, 0, len(videos))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			ordered = append(ordered, v)
		}
	}
	return ordered, nil
}

// Create 创建视频记录（单行原子写入）
func (r *VideoRepository) Create(ctx context.Context, video *model.Video) error {
	return r.db.WithContext(ctx).Create(video).Error
}

// Update 更新视频字段
func (r *VideoRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) (*model.Video, error) {
	result := r.db.WithContext(ctx).Model(&model.Video{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

// ReplaceObjects 在 SELECT ... FOR UPDATE 行锁内写入新的对象键。
// 返回更新后的记录与更新前的记录，调用方只删除 previous 上的对象。
func (r *VideoRepository) ReplaceObjects(ctx context.Context, id int64, updates map[string]interface{}) (*model.Video, *model.Video, error) {
	var previous, current model.Video
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&previous).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Video{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&current).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &current, &previous, nil
}

// Delete 删除视频及其收藏记录，返回被删除的记录（调用方据此清理对象存储）
func (r *VideoRepository) Delete(ctx context.Context, id int64) (*model.Video, error) {
	var video model.Video
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&video).Error; err != nil {
			return err
		}
		if err := tx.Where("video_id = ?", id).Delete(&model.Favorite{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Video{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// List 视频列表查询（分页、筛选，按上传时间倒序）
func (r *VideoRepository) List(ctx context.Context, filter VideoFilter, skip, limit int) ([]model.Video, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Video{})

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR category ILIKE ? OR description ILIKE ?", like, like, like)
	}
	if filter.FavoriteOfUser != 0 {
		query = query.Where("id IN (?)",
			r.db.Model(&model.Favorite{}).Select("video_id").Where("user_id = ?", filter.FavoriteOfUser))
	}
	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var videos []model.Video
	if err := query.Order("uploaded_at DESC, id DESC").Offset(skip).Limit(limit).Find(&videos).Error; err != nil {
		return nil, 0, err
	}

	return videos, total, nil
}

// Count 视频总数
func (r *VideoRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Video{}).Count(&count).Error
	return count, err
}
