package domain

import (
	"errors"
	"fmt"
)

// Flow error kinds. Match them with errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrAuth               = errors.New("authentication rejected")
	ErrCooldownActive     = errors.New("otp resend cooldown active")
	ErrPreconditionFailed = errors.New("flow precondition failed")
	ErrTransport          = errors.New("transport error")
	ErrSuperseded         = errors.New("response superseded by a newer flow")
)

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionInvalid  = errors.New("session is incomplete")
)

// Slot token errors
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("malformed token")
)

// FlowError carries one of the kind sentinels plus a user-facing message
type FlowError struct {
	Kind    error
	Message string
	// RetryAfter is the remaining cooldown in seconds, set for ErrCooldownActive
	RetryAfter int
	Cause      error
}

func (e *FlowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

// Is matches the kind sentinel
func (e *FlowError) Is(target error) bool {
	return e.Kind == target
}

func (e *FlowError) Unwrap() error {
	return e.Cause
}

func NewValidationError(message string) *FlowError {
	return &FlowError{Kind: ErrValidation, Message: message}
}

func NewAuthError(message string, cause error) *FlowError {
	return &FlowError{Kind: ErrAuth, Message: message, Cause: cause}
}

func NewCooldownError(retryAfter int) *FlowError {
	return &FlowError{
		Kind:       ErrCooldownActive,
		Message:    fmt.Sprintf("resend available in %ds", retryAfter),
		RetryAfter: retryAfter,
	}
}

func NewPreconditionError(message string) *FlowError {
	return &FlowError{Kind: ErrPreconditionFailed, Message: message}
}

func NewSupersededError(message string) *FlowError {
	return &FlowError{Kind: ErrSuperseded, Message: message}
}

func NewTransportError(cause error) *FlowError {
	return &FlowError{Kind: ErrTransport, Message: "internal error", Cause: cause}
}

// APIError is a structured non-auth failure reported by the backend
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// UserMessage returns the message safe to show for err
func UserMessage(err error) string {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Message
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal error"
}
