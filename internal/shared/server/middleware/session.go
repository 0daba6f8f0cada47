package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/server/respond"
)

const (
	sessionKey       = "sessionKey"
	sessionHeader    = "X-Session-Id"
	maxSessionKeyLen = 128
)

// Session stores the caller's session key in context. Clients send an opaque
// X-Session-Id; requests without one share a key derived from the client IP.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		key := strings.TrimSpace(c.GetHeader(sessionHeader))
		if key == "" {
			c.Set(sessionKey, "ip:"+c.ClientIP())
			c.Next()
			return
		}
		if len(key) > maxSessionKeyLen || !validSessionKey(key) {
			respond.Error(c, http.StatusBadRequest, "invalid_session", "X-Session-Id must be at most 128 letters, digits, '-' or '_'", nil)
			return
		}
		c.Set(sessionKey, "session:"+key)
		c.Next()
	}
}

// SessionFromContext fetches the session key stored by Session middleware.
func SessionFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(sessionKey)
	if key, ok := val.(string); ok {
		return key
	}
	return ""
}

func validSessionKey(key string) bool {
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
