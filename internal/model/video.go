package model

import "time"

// Video 视频资源。RawObjectKey / ThumbnailObjectKey 只在整条入库流水线成功后写入，
// 二者要么同时存在，要么同时为空。
type Video struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement;comment:视频标识" json:"id"`
	OriginalName       string    `gorm:"size:255;not null;comment:上传时的原始文件名" json:"original_name"`
	Title              string    `gorm:"size:200;not null;comment:视频标题" json:"title"`
	Category           string    `gorm:"size:100;not null;index:idx_videos_category;comment:视频分类" json:"category"`
	Description        string    `gorm:"type:text;comment:视频描述" json:"description"`
	RawObjectKey       string    `gorm:"size:500;not null;uniqueIndex:uq_videos_raw_key;comment:原始视频对象键" json:"raw_object_key"`
	ThumbnailObjectKey string    `gorm:"size:500;not null;comment:封面对象键" json:"thumbnail_object_key"`
	DurationSeconds    float64   `gorm:"not null;default:0;comment:视频时长（秒）" json:"duration_seconds"`
	UploadedAt         time.Time `gorm:"not null;index:idx_videos_uploaded_at;comment:上传时间" json:"uploaded_at"`
	CreatedAt          time.Time `gorm:"autoCreateTime;comment:创建时间" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime;comment:更新时间" json:"updated_at"`

	Favorites []Favorite `gorm:"foreignKey:VideoID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Video) TableName() string {
	return "videos"
}
