package router

import (
	"net/http"

	"neuroscreen/internal/handlers"

	"github.com/gin-gonic/gin"
)

// NonceMiddleware creates a fresh CSP nonce for each request and adds it to
// the Gin context for use in headers and templates.
func NonceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce, err := GenerateSecureToken(16)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(handlers.NonceContextKey, nonce)
		c.Next()
	}
}
