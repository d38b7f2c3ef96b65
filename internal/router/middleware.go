package router

import (
	"fmt"

	"neuroscreen/internal/handlers"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
)

// ContentSecurityPolicy sets the CSP header on full page loads. HTMX
// fragments inherit the policy of the page that requested them.
func ContentSecurityPolicy() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("HX-Request") != "true" {
			nonce := c.GetString(handlers.NonceContextKey)
			csp := fmt.Sprintf(
				"default-src 'self'; script-src 'self' https://unpkg.com https://cdn.jsdelivr.net 'nonce-%s'; style-src 'self' 'unsafe-inline'; img-src 'self' data:",
				nonce,
			)
			c.Header("Content-Security-Policy", csp)
		}
		c.Next()
	}
}

// SecureHeaders adapts unrolled/secure to gin.
func SecureHeaders(opts secure.Options) gin.HandlerFunc {
	secureMiddleware := secure.New(opts)
	return func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	}
}
