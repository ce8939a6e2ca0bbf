package middlewares

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// Identity resolves the authenticated caller. Authentication itself happens
// upstream (the identity provider validates the token at the edge and
// forwards the subject id in the "sub" header), this middleware only
// requires the id to be present and exposes it to handlers. It returns 401
// when no caller identity was forwarded.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		sub := c.Request.Header.Get("sub")
		if sub == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "missing caller identity",
			})
			c.Abort()
			return
		}

		c.Set("sub", sub)
		c.Next()
	}
}

// CronAuth guards the scheduler-facing endpoints with the shared secret from
// CRON_SECRET. Comparison is constant time. An unset secret fails closed.
func CronAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := os.Getenv("CRON_SECRET")
		auth := c.GetHeader("Authorization")

		if secret == "" || subtle.ConstantTimeCompare([]byte(auth), []byte("Bearer "+secret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
