package router

import (
	"clubvid/internal/api/handler"
	"clubvid/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

// Setup 注册所有业务路由
func Setup(
	r *gin.Engine,
	authHandler *handler.AuthHandler,
	videoHandler *handler.VideoHandler,
	favoriteHandler *handler.FavoriteHandler,
) {
	v1 := r.Group("/api/v1")

	// --- 认证模块 ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
	}

	// --- 视频模块（会员可读，管理员可写）---
	videos := v1.Group("/videos", middleware.AuthRequired())
	{
		videos.GET("", videoHandler.List)
		videos.GET("/:id", videoHandler.GetDetail)
		videos.GET("/:id/url", videoHandler.PlaybackURL)
		videos.GET("/:id/thumbnail-url", videoHandler.ThumbnailURL)

		admin := videos.Group("", middleware.AdminRequired())
		{
			admin.POST("", videoHandler.Upload)
			admin.GET("/count", videoHandler.Count)
			admin.PUT("/:id", videoHandler.Update)
			admin.DELETE("/:id", videoHandler.Delete)
		}
	}

	// --- 收藏模块 ---
	favorites := v1.Group("/favorites", middleware.AuthRequired())
	{
		favorites.POST("/:video_id/toggle", favoriteHandler.Toggle)
		favorites.GET("/:video_id/status", favoriteHandler.GetStatus)
		favorites.GET("/my/videos", favoriteHandler.MyVideos)
	}
}
