package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vm-transcriber/internal/app/logging"
)

// StructuredLogging logs one line per request. Health and metrics scrapes
// are logged at debug.
func StructuredLogging(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("client_ip", c.ClientIP()),
		}
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			fields = append(fields, zap.String("error", msg))
		}

		switch c.Request.URL.Path {
		case "/health", "/metrics":
			logger.Debug("HTTP Request", fields...)
		default:
			logger.Info("HTTP Request", fields...)
		}
	}
}
