package middleware

import "github.com/gin-gonic/gin"

// NoStore keeps responses to capability-link requests out of caches and
// stops the token leaking through the Referer header.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Referrer-Policy", "no-referrer")
		c.Next()
	}
}
