// Package middleware provides Gin HTTP middleware for authentication, rate
// limiting, security headers, and actor extraction for the audit trail.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RateLimit → Auth → Actor → Handler
//
// Security headers run first so they appear on all responses including errors.
// Rate limiting runs before auth to block brute-force attacks before any
// cryptographic work. Auth populates the user identity; the actor middleware
// packages it with client details for audit recording.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/portfolio-cms/portfolio-cms/internal/auth"
)

const (
	// UserIDKey is the gin.Context key holding the authenticated user's id.
	UserIDKey = "user_id"

	// UserEmailKey is the gin.Context key holding the authenticated user's email.
	UserEmailKey = "user_email"
)

// AuthMiddleware validates the bearer token and stores the acting user in the
// request context. Tokens are issued by the main application; this service only
// verifies them.
func AuthMiddleware(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing authorization header",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header must start with 'Bearer '",
			})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is empty",
			})
			return
		}

		claims, err := verifier.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)

		c.Next()
	}
}
