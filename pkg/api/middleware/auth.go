package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"scout-sync-go/pkg/models"

	"github.com/gin-gonic/gin"
)

// UserLookup resolves API keys to users
type UserLookup interface {
	GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
}

// adminUser stands in for callers presenting the configured admin key.
var adminUser = &models.User{Email: "admin", IsAdmin: true}

// RequireAuth accepts a per-user API key, or adminKey when it is set.
func RequireAuth(users UserLookup, adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "missing authorization header"})
			return
		}

		// Extract API key from "Bearer <key>" or just "<key>"
		apiKey := strings.TrimPrefix(authHeader, "Bearer ")
		apiKey = strings.TrimSpace(apiKey)

		if adminKey != "" && subtle.ConstantTimeCompare([]byte(apiKey), []byte(adminKey)) == 1 {
			c.Set("user", adminUser)
			c.Next()
			return
		}

		if users == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid API key"})
			return
		}
		user, err := users.GetUserByAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid API key"})
			return
		}

		c.Set("userID", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("user")
		user, _ := v.(*models.User)
		if !ok || user == nil || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "admin privileges required"})
			return
		}
		c.Next()
	}
}
