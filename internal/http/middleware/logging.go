package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func httpLogger() *slog.Logger {
	return slog.Default().With(
		"service", "taskconsole",
		"module", "http",
	)
}

// RequestID propagates X-Request-Id, generating one when absent
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header("X-Request-Id", reqID)
		c.Set(CtxRequestID, reqID)
		c.Next()
	}
}

// RequestLogger logs one record per request
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		statusCode := c.Writer.Status()
		outcome := "success"
		if statusCode >= 400 {
			outcome = "failure"
		}
		fields := []any{
			"operation", "http_request",
			"outcome", outcome,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", statusCode,
			"bytes", c.Writer.Size(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(CtxRequestID),
		}
		if slot := SlotID(c); slot != "" {
			fields = append(fields, "slot_id", slot)
		}

		ctx := c.Request.Context()
		switch {
		case statusCode >= 500:
			httpLogger().ErrorContext(ctx, "http request completed", fields...)
		case statusCode >= 400:
			httpLogger().WarnContext(ctx, "http request completed", fields...)
		default:
			httpLogger().InfoContext(ctx, "http request completed", fields...)
		}
	}
}
