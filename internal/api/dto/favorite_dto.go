package dto

// FavoriteStatusData 收藏状态
type FavoriteStatusData struct {
	VideoID    int64 `json:"video_id"`
	IsFavorite bool  `json:"is_favorite"`
}
