package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionMiddleware rejects API calls from slots without a session
func SessionMiddleware(mw *AuthMW) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := mw.Load(c)
		if s == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "code": "AUTH_REQUIRED"})
			c.Abort()
			return
		}
		setSession(c, s)
		c.Next()
	}
}
