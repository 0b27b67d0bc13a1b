package handler

import (
	"errors"
	"strconv"

	"clubvid/internal/api/middleware"
	"clubvid/internal/api/response"
	"clubvid/internal/service"
	"clubvid/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FavoriteHandler struct {
	favoriteService *service.FavoriteService
}

func NewFavoriteHandler(favoriteService *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService}
}

// Toggle 切换收藏
// @Summary 切换收藏
// @Description 已收藏则取消，未收藏则收藏
// @Tags 收藏
// @Produce json
// @Security BearerAuth
// @Param video_id path int true "视频ID"
// @Success 200 {object} response.Response{data=dto.FavoriteStatusData} "操作成功"
// @Failure 404 {object} response.ErrorResponse "视频不存在"
// @Router /favorites/{video_id}/toggle [post]
func (h *FavoriteHandler) Toggle(c *gin.Context) {
	videoID, err := strconv.ParseInt(c.Param("video_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的视频ID")
		return
	}

	userID, _ := middleware.GetCurrentUserID(c)

	data, err := h.favoriteService.Toggle(c.Request.Context(), userID, videoID)
	if err != nil {
		handleFavoriteError(c, err)
		return
	}

	msg := "已取消收藏"
	if data.IsFavorite {
		msg = "收藏成功"
	}
	response.OK(c, msg, data)
}

// GetStatus 获取收藏状态
// @Summary 获取收藏状态
// @Tags 收藏
// @Produce json
// @Security BearerAuth
// @Param video_id path int true "视频ID"
// @Success 200 {object} response.Response{data=dto.FavoriteStatusData} "查询成功"
// @Failure 404 {object} response.ErrorResponse "视频不存在"
// @Router /favorites/{video_id}/status [get]
func (h *FavoriteHandler) GetStatus(c *gin.Context) {
	videoID, err := strconv.ParseInt(c.Param("video_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的视频ID")
		return
	}

	userID, _ := middleware.GetCurrentUserID(c)

	data, err := h.favoriteService.GetStatus(c.Request.Context(), userID, videoID)
	if err != nil {
		handleFavoriteError(c, err)
		return
	}

	response.OK(c, "查询收藏状态成功", data)
}

// MyVideos 获取我收藏的视频
// @Summary 获取我收藏的视频
// @Description 按收藏时间倒序返回当前用户收藏的视频
// @Tags 收藏
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=dto.VideoListData} "获取成功"
// @Router /favorites/my/videos [get]
func (h *FavoriteHandler) MyVideos(c *gin.Context) {
	userID, _ := middleware.GetCurrentUserID(c)
	page, pageSize := parsePagination(c)

	data, err := h.favoriteService.MyVideos(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		logger.Error("Get my favorite videos failed", zap.Error(err))
		response.InternalError(c, "获取收藏视频列表失败")
		return
	}

	response.OK(c, "获取收藏视频列表成功", data)
}

func handleFavoriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrVideoNotFound):
		response.NotFound(c, "视频不存在")
	default:
		logger.Error("Favorite operation failed", zap.Error(err))
		response.InternalError(c, "操作失败，请稍后重试")
	}
}
