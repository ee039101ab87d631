package middleware

import "github.com/gin-gonic/gin"

// NoStore keeps edge/CDN caches from staling API responses.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Cache-Control", "no-store")
		c.Next()
	}
}
