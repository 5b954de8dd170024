package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/you/taskconsole/domain"
)

// SlotMW gives every browser a signed slot cookie naming its session storage
type SlotMW struct {
	tokens domain.SlotTokenService
	cookie string
	maxAge int
	secure bool
	newID  func() string
}

// NewSlotMW creates the slot cookie middleware
func NewSlotMW(tokens domain.SlotTokenService, cookieName string, ttl time.Duration, secure bool) *SlotMW {
	return &SlotMW{
		tokens: tokens,
		cookie: cookieName,
		maxAge: int(ttl / time.Second),
		secure: secure,
		newID:  uuid.NewString,
	}
}

// Attach resolves the slot from the cookie, issuing a fresh one when it is missing or invalid
func (mw *SlotMW) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(mw.cookie); err == nil {
			if slot, err := mw.tokens.Validate(raw); err == nil {
				c.Set(CtxSlotID, slot)
				c.Next()
				return
			}
		}
		if _, err := mw.Rotate(c); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "INTERNAL_ERROR"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Rotate moves the browser to a brand new slot and returns its id
func (mw *SlotMW) Rotate(c *gin.Context) (string, error) {
	slot := mw.newID()
	token, err := mw.tokens.Issue(slot)
	if err != nil {
		slog.Default().ErrorContext(c.Request.Context(), "failed to issue slot cookie",
			"module", "http", "operation", "slot_issue", "outcome", "failure", "error", err)
		return "", err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(mw.cookie, token, mw.maxAge, "/", "", mw.secure, true)
	c.Set(CtxSlotID, slot)
	return slot, nil
}
