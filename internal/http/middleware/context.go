package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/you/taskconsole/domain"
)

// Keys set on the gin context
const (
	CtxSlotID    = "slot_id"
	CtxSession   = "session"
	CtxUserID    = "user_id"
	CtxUserRole  = "user_role"
	CtxRequestID = "request_id"
)

// SlotID returns the browser slot attached by SlotMW
func SlotID(c *gin.Context) string {
	return c.GetString(CtxSlotID)
}

// CurrentSession returns the session attached by the guard or session middleware
func CurrentSession(c *gin.Context) *domain.Session {
	if v, ok := c.Get(CtxSession); ok {
		if s, ok := v.(*domain.Session); ok {
			return s
		}
	}
	return nil
}

func setSession(c *gin.Context, s *domain.Session) {
	c.Set(CtxSession, s)
	c.Set(CtxUserID, s.UserID)
	c.Set(CtxUserRole, string(s.Role))
}
