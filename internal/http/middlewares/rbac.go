package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func abortForbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error": gin.H{
			"code":    "forbidden",
			"message": message,
		},
	})
}

// RequireAdmin allows only users with the admin flag set.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserIDFromContext(c); !ok {
			abortUnauthorized(c, "Missing identity context")
			return
		}
		if !IsAdminFromContext(c) {
			abortForbidden(c, "Admin privileges required")
			return
		}
		c.Next()
	}
}

// RequireRole allows the named role. Admins pass regardless of role;
// they are allowed everywhere an official is.
func (m *AuthMiddleware) RequireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)
		if !ok || role == "" {
			abortUnauthorized(c, "Missing identity context")
			return
		}
		if role != required && !IsAdminFromContext(c) {
			abortForbidden(c, "Insufficient role")
			return
		}
		c.Next()
	}
}
