package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/you/taskconsole/domain"
	"github.com/you/taskconsole/internal/guard"
	"github.com/you/taskconsole/internal/http/middleware"
)

// AuthHandlers serves login, logout and password recovery
type AuthHandlers struct {
	flow  domain.AuthFlowService
	auth  *middleware.AuthMW
	slots *middleware.SlotMW
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(flow domain.AuthFlowService, auth *middleware.AuthMW, slots *middleware.SlotMW) *AuthHandlers {
	return &AuthHandlers{flow: flow, auth: auth, slots: slots}
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Next     string `json:"next,omitempty"`
}

// EmailRequest starts or repeats a recovery
type EmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// OTPVerifyRequest represents OTP verification request
type OTPVerifyRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp"`
}

// ResetPasswordRequest completes a recovery
type ResetPasswordRequest struct {
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	Token           string `json:"token,omitempty"`
}

func sessionView(s *domain.Session) gin.H {
	return gin.H{
		"id":    s.UserID,
		"role":  s.Role,
		"name":  s.DisplayName,
		"home":  guard.HomeFor(s.Role),
		"state": domain.StateAuthenticated,
	}
}

// landingFor honors next only when it stays inside the role's own area
func landingFor(role domain.Role, next string) string {
	home := guard.HomeFor(role)
	target := guard.SafeNext(next, home)
	if target == home || strings.HasPrefix(target, home+"/") || strings.HasPrefix(target, home+"?") {
		return target
	}
	return home
}

// LoginPage sends signed-in visitors to their home
func (h *AuthHandlers) LoginPage(c *gin.Context) {
	if s := h.auth.Load(c); s != nil {
		c.Redirect(http.StatusFound, guard.HomeFor(s.Role))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"page": "login", "next": c.Query("next")}})
}

// Login handles user login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	s, err := h.flow.Login(c.Request.Context(), h.auth.Store(c), req.Email, req.Password)
	if err != nil {
		respondErrorWith(c, "login", err, gin.H{"state": domain.StateLoginFailed})
		return
	}

	next := req.Next
	if next == "" {
		next = c.Query("next")
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"user": sessionView(s),
			"home": landingFor(s.Role, next),
		},
	})
}

// Logout clears the slot's session and moves the browser to a new slot
func (h *AuthHandlers) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.flow.Logout(ctx, h.auth.Store(c)); err != nil {
		respondError(c, "logout", err)
		return
	}
	if err := h.flow.Abandon(ctx, middleware.SlotID(c)); err != nil {
		httpLogger().WarnContext(ctx, "failed to drop recovery flow on logout", "operation", "logout", "error", err)
	}
	if _, err := h.slots.Rotate(c); err != nil {
		respondError(c, "logout", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Logged out successfully", "redirect": guard.LoginPath}})
}

// Session returns the slot's session
func (h *AuthHandlers) Session(c *gin.Context) {
	s := h.auth.Load(c)
	if s == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not signed in", "code": "AUTH_REQUIRED", "state": domain.StateAnonymous})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sessionView(s)})
}

// RequestOTP sends (or re-sends) the recovery code
func (h *AuthHandlers) RequestOTP(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	status, err := h.flow.RequestOTP(c.Request.Context(), middleware.SlotID(c), req.Email)
	if err != nil {
		respondError(c, "otp_request", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}

// VerifyOTP checks the recovery code
func (h *AuthHandlers) VerifyOTP(c *gin.Context) {
	var req OTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	slot := middleware.SlotID(c)
	if err := h.flow.VerifyOTP(ctx, slot, req.Email, req.OTP); err != nil {
		respondError(c, "otp_verify", err)
		return
	}
	status, err := h.flow.Status(ctx, slot)
	if err != nil {
		respondError(c, "otp_verify", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}

// ResetPassword sets the new password once the flow allows it
func (h *AuthHandlers) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	slot := middleware.SlotID(c)
	if req.Password != req.ConfirmPassword {
		// an out-of-order reset is reported as such, even with a typo in the form
		status, err := h.flow.Status(ctx, slot)
		if err != nil {
			respondError(c, "reset_password", err)
			return
		}
		if req.Token == "" && status.State != domain.StateOTPVerified {
			respondError(c, "reset_password", domain.NewPreconditionError("verify the code sent to your email first"))
			return
		}
		respondError(c, "reset_password", domain.NewValidationError("passwords do not match"))
		return
	}

	if err := h.flow.ResetPassword(ctx, slot, req.Email, req.Password, req.Token); err != nil {
		respondError(c, "reset_password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"message":  "Password updated",
		"state":    domain.StatePasswordReset,
		"redirect": guard.LoginPath,
	}})
}

// RecoveryStatus reports the slot's recovery state and resend countdown
func (h *AuthHandlers) RecoveryStatus(c *gin.Context) {
	status, err := h.flow.Status(c.Request.Context(), middleware.SlotID(c))
	if err != nil {
		respondError(c, "recovery_status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}

// AbandonRecovery drops the slot's recovery flow
func (h *AuthHandlers) AbandonRecovery(c *gin.Context) {
	if err := h.flow.Abandon(c.Request.Context(), middleware.SlotID(c)); err != nil {
		respondError(c, "recovery_abandon", err)
		return
	}
	c.Status(http.StatusNoContent)
}
