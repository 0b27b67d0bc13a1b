package middleware

import (
	"strings"

	"clubvid/internal/api/response"
	"clubvid/internal/model"
	"clubvid/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	ContextKeyUserID   = "currentUserID"
	ContextKeyUserRole = "currentUserRole"
)

// AuthRequired 校验 Bearer 令牌，把用户 ID 与角色写入 Context。
// 失败时响应 401 并中止，后续 handler 不会执行。
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "缺少认证令牌")
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, "无效或过期的认证令牌")
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUserRole, claims.Role)
		c.Next()
	}
}

// GetCurrentUserID 从 Gin Context 中获取当前登录用户 ID
func GetCurrentUserID(c *gin.Context) (int64, bool) {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0, false
	}
	userID, ok := val.(int64)
	return userID, ok
}

// GetCurrentUserRole 从 Gin Context 中获取当前用户角色
func GetCurrentUserRole(c *gin.Context) string {
	return c.GetString(ContextKeyUserRole)
}

// AdminRequired 管理员权限中间件（必须在 AuthRequired 之后使用）。
// 角色取自 Token，角色变更需重新登录后生效。
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetCurrentUserID(c); !ok {
			response.Unauthorized(c, "缺少认证信息")
			return
		}

		if GetCurrentUserRole(c) != model.RoleAdmin {
			response.Forbidden(c, "需要管理员权限")
			return
		}

		c.Next()
	}
}

// extractToken 从 Authorization 头中提取 Bearer Token
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
