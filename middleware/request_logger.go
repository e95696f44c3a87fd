package middleware

import (
	"net/http"
	"time"

	"docshelf/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger logs every request at debug level. Server errors are logged at warn
// regardless of level.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		rawQuery := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusInternalServerError && !logger.IsDebugEnabled() {
			return
		}
		if rawQuery != "" {
			path = path + "?" + rawQuery
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Uint("user_id", c.GetUint(ContextUserID)),
			zap.String("path", path),
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny).String(); errs != "" {
			fields = append(fields, zap.String("errors", errs))
		}

		if status >= http.StatusInternalServerError {
			logger.L().Warn("request failed", fields...)
			return
		}
		logger.L().Debug("request", fields...)
	}
}
