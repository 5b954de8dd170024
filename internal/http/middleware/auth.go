package middleware

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/you/taskconsole/domain"
)

// AuthMW resolves the session stored for the request's slot
type AuthMW struct {
	sessions domain.SessionProvider
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(sessions domain.SessionProvider) *AuthMW {
	return &AuthMW{sessions: sessions}
}

// Store returns the session store of the request's slot
func (mw *AuthMW) Store(c *gin.Context) domain.SessionStore {
	return mw.sessions.Slot(SlotID(c))
}

// Load returns the slot's session or nil. Store failures are logged and count as no session.
func (mw *AuthMW) Load(c *gin.Context) *domain.Session {
	slot := SlotID(c)
	if slot == "" {
		return nil
	}
	s, err := mw.sessions.Slot(slot).Load(c.Request.Context())
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			slog.Default().WarnContext(c.Request.Context(), "session load failed",
				"module", "http", "operation", "session_load", "outcome", "failure", "slot_id", slot, "error", err)
		}
		return nil
	}
	return s
}

// WithSession returns the session-required middleware
func (mw *AuthMW) WithSession() gin.HandlerFunc {
	return SessionMiddleware(mw)
}
