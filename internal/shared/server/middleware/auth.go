package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/marcalaing/gpt-rank-sub000/internal/shared/server/respond"
)

const principalKey = "principal"

// Auth validates the static API key and stores the calling principal in
// context. Session management lives in front of this service; the API itself
// only distinguishes "holds the key" from "does not".
func Auth(apiKey, env string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		if apiKey == "" {
			if env == "production" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "API key auth is not configured", nil)
				return
			}
			c.Set(principalKey, "dev")
			c.Next()
			return
		}

		presented := strings.TrimSpace(c.GetHeader("X-Api-Key"))
		if presented == "" {
			authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
			if strings.HasPrefix(authHeader, "Bearer ") {
				presented = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			}
		}
		if presented == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing API key", nil)
			return
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Invalid API key", nil)
			return
		}

		c.Set(principalKey, "api")
		c.Next()
	}
}

// PrincipalFromContext fetches the principal set by the auth middleware.
func PrincipalFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(principalKey)
	if p, ok := val.(string); ok {
		return p
	}
	return ""
}

// CronAuth guards the cron tick endpoint with a shared secret header. An
// empty secret disables the check outside production.
func CronAuth(secret, env string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			if env == "production" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "Cron secret is not configured", nil)
				return
			}
			c.Next()
			return
		}
		presented := strings.TrimSpace(c.GetHeader("X-Cron-Secret"))
		if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Invalid cron secret", nil)
			return
		}
		c.Next()
	}
}
