package domain

import (
	"encoding/json"
	"time"
)

// Role is the console area a session belongs to
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// PolicySubjectPrefix marks a casbin subject as a console role
const PolicySubjectPrefix = "role_"

// Subject is the casbin policy subject for the role
func (r Role) Subject() string {
	return PolicySubjectPrefix + string(r)
}

// Session represents the authenticated identity held for one slot
type Session struct {
	UserID      string
	Role        Role
	Token       string
	DisplayName string
}

// Complete reports whether all core fields are populated.
// A session that is not complete must never be persisted.
func (s *Session) Complete() bool {
	return s != nil && s.UserID != "" && s.Token != "" && s.Role.Valid()
}

// AuthState names a position in the login / recovery state machine
type AuthState string

const (
	StateAnonymous     AuthState = "ANONYMOUS"
	StateLoginPending  AuthState = "LOGIN_PENDING"
	StateAuthenticated AuthState = "AUTHENTICATED"
	StateLoginFailed   AuthState = "LOGIN_FAILED"
	StateOTPRequested  AuthState = "OTP_REQUESTED"
	StateOTPVerified   AuthState = "OTP_VERIFIED"
	StatePasswordReset AuthState = "PASSWORD_RESET"
)

// AuthFlowState is one in-progress password recovery attempt
type AuthFlowState struct {
	Nonce             string    `json:"nonce"`
	Email             string    `json:"email"`
	OTPRequested      bool      `json:"otp_requested"`
	OTPVerified       bool      `json:"otp_verified"`
	ResendAvailableAt time.Time `json:"resend_available_at"`
	StartedAt         time.Time `json:"started_at"`
	// ResendAfter remembers the cooldown of every email this slot asked a
	// code for, so switching emails does not reset an earlier countdown.
	ResendAfter map[string]time.Time `json:"resend_after,omitempty"`
}

// State derives the recovery state from the flags
func (f *AuthFlowState) State() AuthState {
	switch {
	case f == nil:
		return StateAnonymous
	case f.OTPVerified:
		return StateOTPVerified
	case f.OTPRequested:
		return StateOTPRequested
	default:
		return StateAnonymous
	}
}

// ResendIn returns the whole seconds left before another code may be requested.
// It never goes negative and reaches zero exactly at ResendAvailableAt.
func (f *AuthFlowState) ResendIn(now time.Time) int {
	if f == nil {
		return 0
	}
	return secondsUntil(f.ResendAvailableAt, now)
}

// CooldownFor returns the whole seconds left before email may be sent
// another code from this slot, whichever flow requested the last one.
func (f *AuthFlowState) CooldownFor(email string, now time.Time) int {
	if f == nil {
		return 0
	}
	secs := secondsUntil(f.ResendAfter[email], now)
	if f.Email == email && f.OTPRequested {
		if cur := f.ResendIn(now); cur > secs {
			secs = cur
		}
	}
	return secs
}

// WithResendAt returns a copy of the cooldown map with email set to at and
// lapsed entries dropped.
func (f *AuthFlowState) WithResendAt(email string, at, now time.Time) map[string]time.Time {
	out := map[string]time.Time{email: at}
	if f == nil {
		return out
	}
	for e, t := range f.ResendAfter {
		if e != email && now.Before(t) {
			out[e] = t
		}
	}
	return out
}

func secondsUntil(deadline, now time.Time) int {
	if !now.Before(deadline) {
		return 0
	}
	remaining := deadline.Sub(now)
	secs := int(remaining / time.Second)
	if remaining%time.Second != 0 {
		secs++
	}
	return secs
}

// FlowStatus is the externally visible view of a recovery flow
type FlowStatus struct {
	State    AuthState `json:"state"`
	Email    string    `json:"email,omitempty"`
	ResendIn int       `json:"resend_in"`
}

// LoginResult is the backend response to a successful credential exchange
type LoginResult struct {
	Token string
	User  User
}

// User is a console-managed account as returned by the backend
type User struct {
	ID           string `json:"_id,omitempty"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	Email        string `json:"email,omitempty"`
	MobileNumber string `json:"mobileNumber,omitempty"`
	Role         string `json:"role,omitempty"`
	Address      string `json:"address,omitempty"`
	Status       *bool  `json:"status,omitempty"`
}

// Task is a unit of work assigned to a user
type Task struct {
	ID           string        `json:"_id,omitempty"`
	TaskName     string        `json:"taskName,omitempty"`
	Description  string        `json:"description,omitempty"`
	StartDate    string        `json:"startDate,omitempty"`
	EndDate      string        `json:"endDate,omitempty"`
	CompleteDate string        `json:"completeDate,omitempty"`
	AssignUser   *TaskAssignee `json:"assignUser,omitempty"`
	Assignee     string        `json:"assignee,omitempty"`
	Status       *bool         `json:"status,omitempty"`
	TaskStatus   string        `json:"taskStatus,omitempty"`
}

// TaskAssignee is the embedded user reference on a task
type TaskAssignee struct {
	ID        string `json:"_id,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// UnmarshalJSON accepts either a bare user id or an embedded user object
func (a *TaskAssignee) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		a.ID = id
		return nil
	}
	type plain TaskAssignee
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*a = TaskAssignee(p)
	return nil
}

// TaskInput is the create/update payload sent to the backend
type TaskInput struct {
	TaskName    string `json:"taskName" binding:"required"`
	Description string `json:"description,omitempty" binding:"max=1250"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	AssignUser  string `json:"assignUser,omitempty"`
	Status      *bool  `json:"status,omitempty"`
}

// UserInput is the create/update payload sent to the backend
type UserInput struct {
	UserID       string `json:"userId,omitempty"`
	FirstName    string `json:"firstName" binding:"required"`
	LastName     string `json:"lastName" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	MobileNumber string `json:"mobileNumber" binding:"required,mobile"`
	Role         string `json:"role" binding:"required,oneof=admin user"`
	Address      string `json:"address,omitempty"`
	Status       *bool  `json:"status,omitempty"`
}

// Page bounds a list request
type Page struct {
	Limit int
	Page  int
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Normalize applies defaults and caps
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	return p
}

// UserFilter narrows a user listing
type UserFilter struct {
	FirstName string
	LastName  string
	Role      string
	Address   string
	Status    *bool
	Page      Page
}

// TaskFilter narrows a task listing
type TaskFilter struct {
	TaskName     string
	AssignUser   string
	Status       *bool
	Description  string
	StartDate    string
	EndDate      string
	CompleteDate string
	FirstName    string
	Page         Page
}
