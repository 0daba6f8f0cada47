package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/internal/shared/util"
)

// Logging emits a structured log per request. Session keys are logged hashed.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		sessionHash := ""
		if key := SessionFromContext(c); key != "" {
			sessionHash = util.HashSessionKey(key)[:12]
		}
		statusTransition := c.GetString("statusTransition")
		errorKind := c.GetString("errorKind")

		telemetry.Info("request.complete", map[string]any{
			"request_id":        reqID,
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"status":            status,
			"status_transition": statusTransition,
			"error_kind":        errorKind,
			"duration_ms":       float64(latency.Microseconds()) / 1000.0,
			"session":           sessionHash,
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
		})
	}
}
