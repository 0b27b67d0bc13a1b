package handler

import (
	"errors"

	"clubvid/internal/api/dto"
	"clubvid/internal/api/middleware"
	"clubvid/internal/api/response"
	"clubvid/internal/service"
	"clubvid/pkg/logger"
	"clubvid/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler 会员账号：注册、登录换取访问令牌、查看当前身份
type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register 注册俱乐部账号
// @Summary 注册账号
// @Description 注册俱乐部账号，未指定 user_role 时为 member；admin 可以上传和删除视频
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "账号信息"
// @Success 201 {object} response.Response{data=dto.UserInfo}
// @Failure 400 {object} response.ErrorResponse "参数无效或用户名已被占用"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "register", err)
		return
	}

	logger.Info("Member registered", zap.Int64("user_id", user.ID), zap.String("role", user.UserRole))
	response.Created(c, "注册成功", user)
}

// Login 登录并签发访问令牌
// @Summary 登录
// @Description 校验用户名密码，返回 Bearer 令牌，访问视频接口时放在 Authorization 头
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "登录信息"
// @Success 200 {object} response.Response{data=dto.TokenData}
// @Failure 400 {object} response.ErrorResponse "参数无效"
// @Failure 401 {object} response.ErrorResponse "用户名或密码错误"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "login", err)
		return
	}
	response.OK(c, "登录成功", token)
}

// Me 当前令牌对应的账号
// @Summary 当前账号
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=dto.UserInfo}
// @Failure 401 {object} response.ErrorResponse "未登录或账号已删除"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}

	user, err := h.authService.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "me", err)
		return
	}
	response.OK(c, "获取成功", user)
}

// fail 账号相关错误的统一出口，未识别的错误记日志后返回 500
func (h *AuthHandler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrUsernameExists):
		response.BadRequest(c, "用户名已被占用")
	case errors.Is(err, utils.ErrPasswordTooLong):
		response.BadRequest(c, "密码不能超过 72 字节")
	case errors.Is(err, service.ErrInvalidCredential):
		response.Unauthorized(c, "用户名或密码错误")
	case errors.Is(err, service.ErrUserNotFound):
		response.Unauthorized(c, "账号不存在，请重新登录")
	default:
		logger.Error("Auth request failed", zap.String("op", op), zap.Error(err))
		response.InternalError(c, "服务暂时不可用，请稍后重试")
	}
}

func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return false
	}
	return true
}
