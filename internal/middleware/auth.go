package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/comment-board/backend/internal/auth"
)

const (
	UserIDKey   = "user_id"
	UsernameKey = "username"
)

// TokenVerifier resolves a bearer token to the caller's identity.
type TokenVerifier interface {
	VerifyToken(token string) (auth.Identity, error)
}

// AuthMiddleware rejects requests without a valid "Authorization: Bearer"
// token and stores the caller's identity in the gin context.
func AuthMiddleware(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}

		id, err := v.VerifyToken(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(UserIDKey, id.ID)
		c.Set(UsernameKey, id.Username)
		c.Next()
	}
}

// Identity returns the caller stored by AuthMiddleware.
func Identity(c *gin.Context) (auth.Identity, bool) {
	id, ok := c.Get(UserIDKey)
	if !ok {
		return auth.Identity{}, false
	}
	userID, ok := id.(uint)
	if !ok || userID == 0 {
		return auth.Identity{}, false
	}
	return auth.Identity{ID: userID, Username: c.GetString(UsernameKey)}, true
}
