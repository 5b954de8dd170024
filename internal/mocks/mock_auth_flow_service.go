package mocks

import (
	"context"

	"github.com/you/taskconsole/domain"
)

// MockAuthFlowService implements domain.AuthFlowService for handler tests
type MockAuthFlowService struct {
	LoginFunc         func(ctx context.Context, store domain.SessionStore, email, password string) (*domain.Session, error)
	LogoutFunc        func(ctx context.Context, store domain.SessionStore) error
	RequestOTPFunc    func(ctx context.Context, flowID, email string) (*domain.FlowStatus, error)
	VerifyOTPFunc     func(ctx context.Context, flowID, email, code string) error
	ResetPasswordFunc func(ctx context.Context, flowID, email, newPassword, resetToken string) error
	StatusFunc        func(ctx context.Context, flowID string) (*domain.FlowStatus, error)
	AbandonFunc       func(ctx context.Context, flowID string) error
}

// NewMockAuthFlowService creates a new MockAuthFlowService with default behaviors
func NewMockAuthFlowService() *MockAuthFlowService {
	return &MockAuthFlowService{}
}

// Login saves a fixed user session into store by default
func (m *MockAuthFlowService) Login(ctx context.Context, store domain.SessionStore, email, password string) (*domain.Session, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, store, email, password)
	}
	sess := &domain.Session{UserID: "u1", Role: domain.RoleUser, Token: "token-1", DisplayName: email}
	if err := store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (m *MockAuthFlowService) Logout(ctx context.Context, store domain.SessionStore) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, store)
	}
	return store.Clear(ctx)
}

func (m *MockAuthFlowService) RequestOTP(ctx context.Context, flowID, email string) (*domain.FlowStatus, error) {
	if m.RequestOTPFunc != nil {
		return m.RequestOTPFunc(ctx, flowID, email)
	}
	return &domain.FlowStatus{State: domain.StateOTPRequested, Email: email, ResendIn: 30}, nil
}

func (m *MockAuthFlowService) VerifyOTP(ctx context.Context, flowID, email, code string) error {
	if m.VerifyOTPFunc != nil {
		return m.VerifyOTPFunc(ctx, flowID, email, code)
	}
	return nil
}

func (m *MockAuthFlowService) ResetPassword(ctx context.Context, flowID, email, newPassword, resetToken string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, flowID, email, newPassword, resetToken)
	}
	return nil
}

func (m *MockAuthFlowService) Status(ctx context.Context, flowID string) (*domain.FlowStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, flowID)
	}
	return &domain.FlowStatus{State: domain.StateAnonymous}, nil
}

func (m *MockAuthFlowService) Abandon(ctx context.Context, flowID string) error {
	if m.AbandonFunc != nil {
		return m.AbandonFunc(ctx, flowID)
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.AuthFlowService = (*MockAuthFlowService)(nil)
