package dto

import "time"

// VideoUploadRequest 视频上传请求（multipart/form-data，文件字段为 file）
type VideoUploadRequest struct {
	Title       string `form:"title" binding:"required,min=1,max=200"`
	Category    string `form:"category" binding:"required,min=1,max=100"`
	Description string `form:"description" binding:"omitempty"`
}

// VideoUpdateRequest 视频更新请求（multipart/form-data，file 可选）
type VideoUpdateRequest struct {
	Title       *string `form:"title" binding:"omitempty,min=1,max=200"`
	Category    *string `form:"category" binding:"omitempty,min=1,max=100"`
	Description *string `form:"description"`
}

// VideoListQuery 视频列表查询参数
type VideoListQuery struct {
	Q            string `form:"q"`
	OnlyFavorite bool   `form:"only_favorite"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
}

// VideoDetail 管理端视频详情，包含对象键
type VideoDetail struct {
	ID                 int64     `json:"id"`
	OriginalName       string    `json:"original_name"`
	Title              string    `json:"title"`
	Category           string    `json:"category"`
	Description        string    `json:"description"`
	RawObjectKey       string    `json:"raw_object_key"`
	ThumbnailObjectKey string    `json:"thumbnail_object_key"`
	DurationSeconds    float64   `json:"duration_seconds"`
	UploadedAt         time.Time `json:"uploaded_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// VideoInfo 会员可见的视频信息，封面以签名 URL 给出，不暴露对象键
type VideoInfo struct {
	ID              int64     `json:"id"`
	OriginalName    string    `json:"original_name"`
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	Description     string    `json:"description"`
	DurationSeconds float64   `json:"duration_seconds"`
	UploadedAt      time.Time `json:"uploaded_at"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	IsFavorite      bool      `json:"is_favorite"`
}

// VideoListData 视频列表响应数据
type VideoListData struct {
	Videos     []VideoInfo `json:"videos"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int64       `json:"total_pages"`
}

// SignedURLData 签名 URL
type SignedURLData struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"` // 秒
}

// VideoCountData 视频总数
type VideoCountData struct {
	Total int64 `json:"total"`
}
