package model

import "time"

// Favorite 收藏记录，(user_id, video_id) 唯一，存在即已收藏
type Favorite struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;comment:收藏记录ID" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:uq_user_video_favorite;index:idx_favorites_user_id;comment:收藏用户ID" json:"user_id"`
	VideoID   int64     `gorm:"not null;uniqueIndex:uq_user_video_favorite;index:idx_favorites_video_id;comment:被收藏视频ID" json:"video_id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_favorites_created_at;comment:收藏时间" json:"created_at"`

	Video Video `gorm:"foreignKey:VideoID" json:"video,omitempty"`
}

func (Favorite) TableName() string {
	return "favorites"
}
