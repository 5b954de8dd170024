package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/you/taskconsole/domain"
)

// RecoveryEntry is where out-of-order recovery steps are sent back to
const RecoveryEntry = "/auth/forgot-password"

func httpLogger() *slog.Logger {
	return slog.Default().With(
		"service", "taskconsole",
		"module", "http",
	)
}

// statusFor maps an error to its HTTP status and machine readable code
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, domain.ErrAuth):
		return http.StatusUnauthorized, "AUTH_ERROR"
	case errors.Is(err, domain.ErrCooldownActive):
		return http.StatusTooManyRequests, "COOLDOWN_ACTIVE"
	case errors.Is(err, domain.ErrPreconditionFailed):
		return http.StatusConflict, "PRECONDITION_FAILED"
	case errors.Is(err, domain.ErrSuperseded):
		return http.StatusConflict, "SUPERSEDED"
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway, "TRANSPORT_ERROR"
	}
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status, "BACKEND_REJECTED"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// respondError writes the failure body for err and logs it
func respondError(c *gin.Context, operation string, err error) {
	respondErrorWith(c, operation, err, nil)
}

// respondErrorWith is respondError with extra fields merged into the body
func respondErrorWith(c *gin.Context, operation string, err error, extra gin.H) {
	status, code := statusFor(err)
	body := gin.H{"error": domain.UserMessage(err), "code": code}
	for k, v := range extra {
		body[k] = v
	}

	var fe *domain.FlowError
	if errors.As(err, &fe) && errors.Is(fe.Kind, domain.ErrCooldownActive) {
		body["resend_in"] = fe.RetryAfter
		c.Header("Retry-After", strconv.Itoa(fe.RetryAfter))
	}
	if errors.Is(err, domain.ErrPreconditionFailed) {
		body["redirect"] = RecoveryEntry
	}

	fields := []any{
		"operation", operation,
		"outcome", "failure",
		"status_code", status,
		"error_code", code,
		"error", err.Error(),
	}
	ctx := c.Request.Context()
	if status >= 500 {
		httpLogger().ErrorContext(ctx, "http operation failed", fields...)
	} else {
		httpLogger().WarnContext(ctx, "http operation failed", fields...)
	}
	c.JSON(status, body)
}

// respondBindError answers a malformed request body
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
}
