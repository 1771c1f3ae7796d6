package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps request body size; oversized bodies surface as read
// errors during binding rather than being buffered in full.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// RequireJSON rejects mutating requests whose Content-Type is not JSON.
// GET/DELETE and bodyless requests pass through untouched.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !methodCarriesBody(c.Request.Method) {
			c.Next()
			return
		}

		// ContentType() strips parameters like "; charset=utf-8".
		if ct := c.ContentType(); !strings.EqualFold(ct, "application/json") {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
				"error": gin.H{
					"code":    "unsupported_media_type",
					"message": "Content-Type must be application/json",
				},
			})
			return
		}
		c.Next()
	}
}

func methodCarriesBody(m string) bool {
	return m == http.MethodPost || m == http.MethodPut || m == http.MethodPatch
}
