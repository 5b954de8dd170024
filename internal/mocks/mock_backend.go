package mocks

import (
	"context"

	"github.com/you/taskconsole/domain"
)

// MockAuthAPI implements domain.AuthAPI for testing
type MockAuthAPI struct {
	LoginFunc         func(ctx context.Context, email, password string) (*domain.LoginResult, error)
	RequestOTPFunc    func(ctx context.Context, email string) error
	VerifyOTPFunc     func(ctx context.Context, email, code string) error
	ResetPasswordFunc func(ctx context.Context, email, password, resetToken string) error

	Calls []string
}

// NewMockAuthAPI creates a MockAuthAPI whose calls all succeed
func NewMockAuthAPI() *MockAuthAPI {
	return &MockAuthAPI{}
}

// Login defaults to a "user" account with token "token-1"
func (m *MockAuthAPI) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	m.Calls = append(m.Calls, "login")
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return &domain.LoginResult{
		Token: "token-1",
		User:  domain.User{ID: "u1", Role: "user", Email: email, FirstName: "Test", LastName: "User"},
	}, nil
}

func (m *MockAuthAPI) RequestOTP(ctx context.Context, email string) error {
	m.Calls = append(m.Calls, "otp_request")
	if m.RequestOTPFunc != nil {
		return m.RequestOTPFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthAPI) VerifyOTP(ctx context.Context, email, code string) error {
	m.Calls = append(m.Calls, "otp_verify")
	if m.VerifyOTPFunc != nil {
		return m.VerifyOTPFunc(ctx, email, code)
	}
	return nil
}

func (m *MockAuthAPI) ResetPassword(ctx context.Context, email, password, resetToken string) error {
	m.Calls = append(m.Calls, "reset_password")
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, email, password, resetToken)
	}
	return nil
}

// MockUserAPI implements domain.UserAPI for testing
type MockUserAPI struct {
	ListUsersFunc     func(ctx context.Context, token string, filter domain.UserFilter) ([]domain.User, error)
	ListUserNamesFunc func(ctx context.Context, token string) ([]domain.User, error)
	CreateUserFunc    func(ctx context.Context, token string, input domain.UserInput) (*domain.User, error)
	UpdateUserFunc    func(ctx context.Context, token string, input domain.UserInput) (*domain.User, error)
	DeleteUserFunc    func(ctx context.Context, token, id string) error
}

func (m *MockUserAPI) ListUsers(ctx context.Context, token string, filter domain.UserFilter) ([]domain.User, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx, token, filter)
	}
	return []domain.User{}, nil
}

func (m *MockUserAPI) ListUserNames(ctx context.Context, token string) ([]domain.User, error) {
	if m.ListUserNamesFunc != nil {
		return m.ListUserNamesFunc(ctx, token)
	}
	return []domain.User{}, nil
}

func (m *MockUserAPI) CreateUser(ctx context.Context, token string, input domain.UserInput) (*domain.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, token, input)
	}
	return &domain.User{ID: "new", FirstName: input.FirstName, LastName: input.LastName, Email: input.Email, Role: input.Role}, nil
}

func (m *MockUserAPI) UpdateUser(ctx context.Context, token string, input domain.UserInput) (*domain.User, error) {
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, token, input)
	}
	return &domain.User{ID: input.UserID, FirstName: input.FirstName, LastName: input.LastName, Email: input.Email, Role: input.Role}, nil
}

func (m *MockUserAPI) DeleteUser(ctx context.Context, token, id string) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, token, id)
	}
	return nil
}

// MockTaskAPI implements domain.TaskAPI for testing
type MockTaskAPI struct {
	ListTasksFunc  func(ctx context.Context, token string, filter domain.TaskFilter) ([]domain.Task, error)
	CreateTaskFunc func(ctx context.Context, token string, input domain.TaskInput) (*domain.Task, error)
	UpdateTaskFunc func(ctx context.Context, token, id string, input domain.TaskInput) (*domain.Task, error)
	DeleteTaskFunc func(ctx context.Context, token, id string) error
}

func (m *MockTaskAPI) ListTasks(ctx context.Context, token string, filter domain.TaskFilter) ([]domain.Task, error) {
	if m.ListTasksFunc != nil {
		return m.ListTasksFunc(ctx, token, filter)
	}
	return []domain.Task{}, nil
}

func (m *MockTaskAPI) CreateTask(ctx context.Context, token string, input domain.TaskInput) (*domain.Task, error) {
	if m.CreateTaskFunc != nil {
		return m.CreateTaskFunc(ctx, token, input)
	}
	return &domain.Task{ID: "new", TaskName: input.TaskName, Description: input.Description}, nil
}

func (m *MockTaskAPI) UpdateTask(ctx context.Context, token, id string, input domain.TaskInput) (*domain.Task, error) {
	if m.UpdateTaskFunc != nil {
		return m.UpdateTaskFunc(ctx, token, id, input)
	}
	return &domain.Task{ID: id, TaskName: input.TaskName, Description: input.Description}, nil
}

func (m *MockTaskAPI) DeleteTask(ctx context.Context, token, id string) error {
	if m.DeleteTaskFunc != nil {
		return m.DeleteTaskFunc(ctx, token, id)
	}
	return nil
}

// Compile-time interface compliance verification
var (
	_ domain.AuthAPI = (*MockAuthAPI)(nil)
	_ domain.UserAPI = (*MockUserAPI)(nil)
	_ domain.TaskAPI = (*MockTaskAPI)(nil)
)
