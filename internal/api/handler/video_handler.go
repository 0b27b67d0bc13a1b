package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"clubvid/internal/api/dto"
	"clubvid/internal/api/middleware"
	"clubvid/internal/api/response"
	"clubvid/internal/ingest"
	"clubvid/internal/media"
	"clubvid/internal/service"
	"clubvid/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type VideoHandler struct {
	videoService *service.VideoService
}

func NewVideoHandler(videoService *service.VideoService) *VideoHandler {
	return &VideoHandler{videoService: videoService}
}

// Upload 上传视频
// @Summary 上传视频
// @Description 上传原始视频，生成封面并写入元数据。任一步骤失败都不会留下记录或对象。
// @Tags 视频
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "视频文件（mp4/mov/mkv/webm/avi）"
// @Param title formData string true "标题"
// @Param category formData string true "分类"
// @Param description formData string false "描述"
// @Success 201 {object} response.Response{data=dto.VideoDetail} "上传成功"
// @Failure 400 {object} response.ErrorResponse "请求参数无效"
// @Failure 403 {object} response.ErrorResponse "需要管理员权限"
// @Failure 422 {object} response.ErrorResponse "无法读取的视频文件"
// @Failure 502 {object} response.ErrorResponse "对象存储不可用"
// @Router /videos [post]
func (h *VideoHandler) Upload(c *gin.Context) {
	var req dto.VideoUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "请上传视频文件")
		return
	}

	up, f, err := openUpload(fh)
	if err != nil {
		response.BadRequest(c, "无法读取上传文件")
		return
	}
	defer f.Close()

	detail, err := h.videoService.Upload(c.Request.Context(), *up, &req)
	if err != nil {
		handleVideoError(c, err)
		return
	}

	response.Created(c, "视频上传成功", detail)
}

// Update 更新视频
// @Summary 更新视频
// @Description 更新标题/分类/描述；携带 file 时替换视频文件并重新生成封面，失败时保留原版本
// @Tags 视频
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "视频ID"
// @Param file formData file false "新的视频文件"
// @Param title formData string false "标题"
// @Param category formData string false "分类"
// @Param description formData string false "描述"
// @Success 200 {object} response.Response{data=dto.VideoDetail} "更新成功"
// @Failure 400 {object} response.ErrorResponse "请求参数无效"
// @Failure 404 {object} response.ErrorResponse "视频不存在"
// @Failure 422 {object} response.ErrorResponse "无法读取的视频文件"
// @Router /videos/{id} [put]
func (h *VideoHandler) Update(c *gin.Context) {
	videoID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "无效的视频ID")
		return
	}

	var req dto.VideoUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	var up *ingest.Upload
	fh, err := c.FormFile("file")
	switch {
	case err == nil:
		opened, f, openErr := openUpload(fh)
		if openErr != nil {
			response.BadRequest(c, "无法读取上传文件")
			return
		}
		defer f.Close()
		up = opened
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// 只更新元数据
	default:
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	detail, err := h.videoService.Update(c.Request.Context(), videoID, up, &req)
	if err != nil {
		handleVideoError(c, err)
		return
	}

	response.OK(c, "更新视频成功", detail)
}

// Delete 删除视频
// @Summary 删除视频
// @Description 删除记录及收藏，随后删除原始文件和封面
// @Tags 视频
// @Produce json
// @Security BearerAuth
// @Param id path int true "视频ID"
// @Success 200 {object} response.Response "删除成功"
// @Failure 404 {object} response.ErrorResponse "视频不存在"
// @Router /videos/{id} [delete]
func (h *VideoHandler) Delete(c *gin.Context) {
	videoID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "无效的视频ID")
		return
	}

	if err := h.videoService.Delete(c.Request.Context(), videoID); err != nil {
		handleVideoError(c, err)
		return
	}

	response.OK(c, "删除视频成功", nil)
}

// List 视频列表
// @Summary 视频列表
// @Description 分页浏览视频，q 在标题/分类/描述中搜索，only_favorite 只看收藏
// @Tags 视频
// @Produce json
// @Security BearerAuth
// @Param q query string false "搜索关键词"
// @Param only_favorite query bool false "只看收藏"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=dto.VideoListData} "获取成功"
// @Router /videos [get]
func (h *VideoHandler) List(c *gin.Context) {
	var query dto.VideoListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	userID, _ := middleware.GetCurrentUserID(c)

	data, err := h.videoService.List(c.Request.Context(), userID, &query)
	if err != nil {
		logger.Error("List videos failed", zap.Error(err))
		response.InternalError(c, "获取视频列表失败")
		return
	}

	response.OK(c, "获取视频列表成功", data)
}

// Count 视频总数
// @Summary 视频总数
// @Tags 视频
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=dto.VideoCountData} "获取成功"
// @Router /videos/count [get]
func (h *VideoHandler) Count(c *gin.Context) {
	data, err := h.videoService.Count(c.Request.Context())
	if err != nil {
		logger.Error("Count videos failed", zap.Error(err))
		response.InternalError(c, "获取视频总数失败")
		return
	}

	response.OK(c, "获取视频总数成功", data)
}

// GetDetail 视频详情
// @Summary 视频详情
// @Tags 视频
// @Produce json
// @Security BearerAuth
// @Param id path int true "视频ID"
// @Success 200 {object} response.Response{data=dto.VideoInfo} "获取成功"
// @Failure 404 {object} response.ErrorResponse "视频不存在"
// @Router /videos/{id} [get]
func (h *VideoHandler) GetDetail(c *gin.Context) {
	videoID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "无效的视频ID")
		return
	}

	userID, _ := middleware.GetCurrentUserID(c)

	info, err := h.videoService.GetDetail(c.Request.Context(), userID, videoID)
	if err != nil {
		handleVideoError(c, err)
		return
	}

	response.OK(c, "获取视频详情成功", info)
}

// PlaybackURL 播放地址
// @Summary 获取播放地址
// @Description 返回原始视频的限时签名 URL
// @Tags 视频
// @Produce json
// @Security BearerAuth
// @Param id path int true "视频ID"
// @Success 200 {object} response.Response{data=dto.SignedURLData} "获取成功"
// @Failure 404 {object} response.ErrorResponse "视频不存在"
// @Router /videos/{id}/url [get]
func (h *VideoHandler) PlaybackURL(c *gin.Context) {
	videoID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "无效的视频ID")
		return
	}

	data, err := h.videoService.PlaybackURL(c.Request.Context(), videoID)
	if err != nil {
		handleVideoError(c, err)
		return
	}

	response.OK(c, "获取播放地址成功", data)
}

// ThumbnailURL 封面地址
// @Summary 获取封面地址
// @Tags 视频
// @Produce json
// @Security BearerAuth
// @Param id path int true "视频ID"
// @Success 200 {object} response.Response{data=dto.SignedURLData} "获取成功"
// @Failure 404 {object} response.ErrorResponse "视频不存在"
// @Router /videos/{id}/thumbnail-url [get]
func (h *VideoHandler) ThumbnailURL(c *gin.Context) {
	videoID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "无效的视频ID")
		return
	}

	data, err := h.videoService.ThumbnailURL(c.Request.Context(), videoID)
	if err != nil {
		handleVideoError(c, err)
		return
	}

	response.OK(c, "获取封面地址成功", data)
}

func openUpload(fh *multipart.FileHeader) (*ingest.Upload, multipart.File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &ingest.Upload{
		Reader:       f,
		Size:         fh.Size,
		OriginalName: fh.Filename,
		ContentType:  fh.Header.Get("Content-Type"),
	}, f, nil
}

func handleVideoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ingest.ErrInvalidUpload):
		response.BadRequest(c, "上传文件无效: "+err.Error())
	case errors.Is(err, service.ErrNoFieldsToUpdate):
		response.BadRequest(c, "没有需要更新的字段")
	case errors.Is(err, service.ErrVideoNotFound):
		response.NotFound(c, "视频不存在")
	case errors.Is(err, service.ErrMediaMissing):
		response.NotFound(c, err.Error())
	case errors.Is(err, media.ErrTimestampOutOfRange):
		logger.Error("Thumbnail timestamp outside clip duration", zap.Error(err))
		response.InternalError(c, "生成封面失败，请稍后重试")
	case errors.Is(err, media.ErrUnreadableMedia):
		response.UnprocessableEntity(c, "无法读取视频文件，请确认文件完整且格式受支持")
	case errors.Is(err, ingest.ErrStorage):
		logger.Error("Object storage failure", zap.Error(err))
		response.BadGateway(c, "对象存储暂不可用，请稍后重试")
	case errors.Is(err, ingest.ErrPersistence):
		logger.Error("Video persistence failure", zap.Error(err))
		response.InternalError(c, "保存视频信息失败，请稍后重试")
	default:
		logger.Error("Video operation failed", zap.Error(err))
		response.InternalError(c, "操作失败，请稍后重试")
	}
}

func parseIDParam(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
