package api

import (
	"net/http"
	"strings"

	"docmind/internal/auth"

	"github.com/gin-gonic/gin"
)

// ContextUserIDKey is the gin context key holding the authenticated user ID.
const ContextUserIDKey = "userID"

// AuthMiddleware verifies the Bearer access token and stores the user ID in
// the request context.
func AuthMiddleware(authMgr *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			c.Abort()
			return
		}

		userID, err := authMgr.ParseToken(parts[1], auth.TokenTypeAccess)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}
