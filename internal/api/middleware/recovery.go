package middleware

import (
	"io"

	"clubvid/internal/api/response"
	"clubvid/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery 基于 gin.CustomRecovery：panic 写入 zap 日志并返回统一 500 响应，
// gin 自带的 stderr 输出关闭
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Stack("stack"),
		)
		response.InternalError(c, "服务器内部错误")
	})
}
