package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/taskconsole/domain"
)

// CasbinMiddleware defines the interface for Casbin authorization middleware
type CasbinMiddleware interface {
	Enforce() gin.HandlerFunc
}

// CasbinMW authorizes API calls by the session role against casbin policies
type CasbinMW struct {
	enforcer domain.CasbinEnforcer
	audit    domain.AuditLogger
}

// NewCasbinMW creates new casbin middleware wrapper
func NewCasbinMW(enforcer domain.CasbinEnforcer, audit domain.AuditLogger) *CasbinMW {
	return &CasbinMW{enforcer: enforcer, audit: audit}
}

// Enforce returns the casbin authorization middleware. It must run after SessionMiddleware.
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(CtxUserID)
		role := c.GetString(CtxUserRole)
		if userID == "" || role == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "code": "AUTH_REQUIRED"})
			c.Abort()
			return
		}

		path := c.Request.URL.Path
		method := c.Request.Method
		allowed, err := mw.enforcer.Enforce(domain.Role(role).Subject(), path, method)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed", "code": "INTERNAL_ERROR"})
			c.Abort()
			return
		}

		if !allowed {
			mw.audit.LogEvent(c.Request.Context(), domain.NewAuditEvent(domain.AccessDeniedEvent).
				WithUser(userID).
				WithSlot(SlotID(c)).
				WithMetadata("path", path).
				WithMetadata("method", method).
				WithError(nil))
			c.JSON(http.StatusForbidden, gin.H{"error": "Access Denied", "code": "FORBIDDEN"})
			c.Abort()
			return
		}

		c.Next()
	}
}
