package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marcalaing/gpt-rank-sub000/internal/shared/telemetry"
)

// Logging emits a structured log per request.
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

		fields := map[string]any{
			"request_id":  reqID,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		for _, key := range []string{"orgId", "projectId", "promptId", "runId", "jobId"} {
			if v, ok := c.Get(key); ok {
				fields[camelToSnake(key)] = v
			}
		}

		telemetry.Info("request.complete", fields)
	}
}

func camelToSnake(key string) string {
	switch key {
	case "orgId":
		return "org_id"
	case "projectId":
		return "project_id"
	case "promptId":
		return "prompt_id"
	case "runId":
		return "run_id"
	case "jobId":
		return "job_id"
	default:
		return key
	}
}
