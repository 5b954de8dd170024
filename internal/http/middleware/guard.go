package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/taskconsole/domain"
	"github.com/you/taskconsole/internal/config"
	"github.com/you/taskconsole/internal/guard"
)

// GuardMW applies the route guard to every role-scoped area
type GuardMW struct {
	auth  *AuthMW
	areas []config.AreaRule
	audit domain.AuditLogger
}

// NewGuardMW creates the guard middleware for areas
func NewGuardMW(auth *AuthMW, areas []config.AreaRule, audit domain.AuditLogger) *GuardMW {
	return &GuardMW{auth: auth, areas: areas, audit: audit}
}

// Enforce redirects navigations the guard does not allow
func (mw *GuardMW) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		required, guarded := config.MatchArea(mw.areas, c.Request.URL.Path)
		if !guarded {
			c.Next()
			return
		}

		s := mw.auth.Load(c)
		d := guard.Decide(s, required, c.Request.URL.RequestURI())

		event := domain.NewAuditEvent(domain.AccessGrantedEvent).
			WithSlot(SlotID(c)).
			WithMetadata("path", c.Request.URL.Path).
			WithMetadata("required_role", string(required))
		if s != nil {
			event.WithUser(s.UserID)
		}

		if !d.Allow {
			event.EventType = domain.AccessDeniedEvent
			event.Success = false
			event.WithMetadata("redirect", d.RedirectTo)
			mw.audit.LogEvent(c.Request.Context(), event)
			c.Redirect(http.StatusFound, d.RedirectTo)
			c.Abort()
			return
		}

		mw.audit.LogEvent(c.Request.Context(), event)
		setSession(c, s)
		c.Next()
	}
}
