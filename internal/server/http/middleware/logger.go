package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sku-codemong/codemong-Backend-02/internal/logging"
)

// RequestLogger writes one access log line per request.
func RequestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		kv := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		}
		if uid, ok := UserID(c); ok {
			kv = append(kv, "user_id", uid)
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error(c.Request.Context(), "http request", kv...)
		case status >= 400:
			log.Warn(c.Request.Context(), "http request", kv...)
		default:
			log.Info(c.Request.Context(), "http request", kv...)
		}
	}
}
