package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore keeps clients and proxies from caching responses that carry personal records.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
