package domain

import "context"

// SessionStore holds the session of exactly one slot
type SessionStore interface {
	// Save overwrites the slot. The session must be Complete.
	Save(ctx context.Context, session *Session) error
	// Load returns ErrSessionNotFound when the slot is empty or its entry is corrupt.
	// A corrupt entry is cleared as a side effect.
	Load(ctx context.Context) (*Session, error)
	Clear(ctx context.Context) error
}

// SessionProvider hands out slot-scoped session stores
type SessionProvider interface {
	Slot(slotID string) SessionStore
}

// FlowRepository keeps ephemeral recovery flow state per slot
type FlowRepository interface {
	Get(ctx context.Context, flowID string) (*AuthFlowState, error)
	Put(ctx context.Context, flowID string, state *AuthFlowState) error
	Delete(ctx context.Context, flowID string) error
}

// AuthAPI is the authentication part of the backend
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, password, resetToken string) error
}

// UserAPI is the user CRUD part of the backend
type UserAPI interface {
	ListUsers(ctx context.Context, token string, filter UserFilter) ([]User, error)
	ListUserNames(ctx context.Context, token string) ([]User, error)
	CreateUser(ctx context.Context, token string, input UserInput) (*User, error)
	UpdateUser(ctx context.Context, token string, input UserInput) (*User, error)
	DeleteUser(ctx context.Context, token, id string) error
}

// TaskAPI is the task CRUD part of the backend
type TaskAPI interface {
	ListTasks(ctx context.Context, token string, filter TaskFilter) ([]Task, error)
	CreateTask(ctx context.Context, token string, input TaskInput) (*Task, error)
	UpdateTask(ctx context.Context, token, id string, input TaskInput) (*Task, error)
	DeleteTask(ctx context.Context, token, id string) error
}

// AuthFlowService defines the login and recovery business logic
type AuthFlowService interface {
	Login(ctx context.Context, store SessionStore, email, password string) (*Session, error)
	Logout(ctx context.Context, store SessionStore) error
	RequestOTP(ctx context.Context, flowID, email string) (*FlowStatus, error)
	VerifyOTP(ctx context.Context, flowID, email, code string) error
	ResetPassword(ctx context.Context, flowID, email, newPassword, resetToken string) error
	Status(ctx context.Context, flowID string) (*FlowStatus, error)
	Abandon(ctx context.Context, flowID string) error
}

// SlotTokenService signs and validates the browser slot cookie
type SlotTokenService interface {
	Issue(slotID string) (string, error)
	Validate(token string) (string, error)
}

// PolicyService defines authorization policy operations
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	GetPolicies() [][]string
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}
