package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"event-tickets/internal/logger"
)

// RequestLogger assigns a request id and logs every request after it completes
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = logger.NewRequestID()
		}
		c.Header("X-Request-ID", reqID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), reqID))

		c.Next()

		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}

		log := logger.WithContext(c.Request.Context())
		switch {
		case c.Writer.Status() >= 500:
			log.Error("HTTP request", logFields...)
		case c.Writer.Status() >= 400:
			log.Warn("HTTP request", logFields...)
		default:
			log.Info("HTTP request", logFields...)
		}
	}
}
