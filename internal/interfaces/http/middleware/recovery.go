package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"seo-ai-api/internal/interfaces/http/dto"
	apperrors "seo-ai-api/pkg/errors"
	"seo-ai-api/pkg/logger"
)

// Recovery Panic 恢复中间件
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error(c.Request.Context(), "panic recovered",
				fmt.Errorf("%v", rec),
				"stack", string(debug.Stack()),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
			// 流式响应已写出头部时只能中断
			if c.Writer.Written() {
				c.Abort()
				return
			}
			dto.AppError(c, apperrors.ErrInternalError)
			c.Abort()
		}()

		c.Next()
	}
}
