package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	adminTokenHeader = "X-Admin-Token"
	adminIDHeader    = "X-Admin-ID"
)

// AdminAuth returns middleware that guards admin routes. Requests must carry
// the shared admin token and an admin identity; the identity is propagated to
// handlers so resolutions are attributed to a person, not to "admin".
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			// No token configured: admin surface is disabled outright.
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access not configured"})
			return
		}

		provided := c.GetHeader(adminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}

		adminID := c.GetHeader(adminIDHeader)
		if adminID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin identity required"})
			return
		}
		c.Set("adminID", adminID)

		c.Next()
	}
}

// AdminID returns the authenticated admin identity set by AdminAuth.
func AdminID(c *gin.Context) string {
	return c.GetString("adminID")
}
