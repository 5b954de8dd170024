package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/you/taskconsole/domain"
	"github.com/you/taskconsole/internal/session"
)

// FlowConfig tunes the recovery flow
type FlowConfig struct {
	OTPLength      int
	ResendCooldown time.Duration
}

// DefaultFlowConfig returns the stock recovery settings
func DefaultFlowConfig() FlowConfig {
	return FlowConfig{OTPLength: 6, ResendCooldown: 30 * time.Second}
}

// AuthFlowServiceImpl implements domain.AuthFlowService
type AuthFlowServiceImpl struct {
	authAPI  domain.AuthAPI
	flows    domain.FlowRepository
	audit    domain.AuditLogger
	validate *validator.Validate
	config   FlowConfig
	nowFn    func() time.Time
	newNonce func() string
	logger   *slog.Logger
}

var _ domain.AuthFlowService = (*AuthFlowServiceImpl)(nil)

// NewAuthFlowService creates a new auth flow service
func NewAuthFlowService(authAPI domain.AuthAPI, flows domain.FlowRepository, audit domain.AuditLogger, config FlowConfig) *AuthFlowServiceImpl {
	if config.OTPLength <= 0 {
		config.OTPLength = DefaultFlowConfig().OTPLength
	}
	if config.ResendCooldown <= 0 {
		config.ResendCooldown = DefaultFlowConfig().ResendCooldown
	}
	return &AuthFlowServiceImpl{
		authAPI:  authAPI,
		flows:    flows,
		audit:    audit,
		validate: NewValidator(),
		config:   config,
		nowFn:    time.Now,
		newNonce: uuid.NewString,
		logger:   slog.Default().With("module", "auth_flow"),
	}
}

// NewValidator returns a validator with the console's custom rules registered
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return ValidPassword(fl.Field().String())
	})
	return v
}

// ValidPassword enforces the reset policy: at least 8 characters with an
// upper case letter, a lower case letter and a digit.
func ValidPassword(pw string) bool {
	if len([]rune(pw)) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// Login implements domain.AuthFlowService
func (s *AuthFlowServiceImpl) Login(ctx context.Context, store domain.SessionStore, email, password string) (*domain.Session, error) {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, domain.NewValidationError("a valid email is required")
	}
	if password == "" {
		return nil, domain.NewValidationError("password is required")
	}

	before, err := loadSession(ctx, store)
	if err != nil {
		return nil, domain.NewTransportError(err)
	}

	s.logger.DebugContext(ctx, "login started", "operation", "login", "state", domain.StateLoginPending)
	res, err := s.authAPI.Login(ctx, email, password)
	if err != nil {
		err = kinded(err)
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent).WithEmail(email).WithError(err))
		return nil, err
	}

	sess, err := session.FromLogin(res)
	if err != nil {
		err = domain.NewTransportError(fmt.Errorf("unusable login response: %w", err))
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent).WithEmail(email).WithError(err))
		return nil, err
	}

	// Another login or a logout in the same slot finished while we waited.
	after, err := loadSession(ctx, store)
	if err != nil {
		return nil, domain.NewTransportError(err)
	}
	if !sameSession(before, after) {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.StaleResponseEvent).
			WithEmail(email).
			WithMetadata("operation", "login"))
		return nil, domain.NewSupersededError("a newer sign-in replaced this one")
	}

	if err := store.Save(ctx, sess); err != nil {
		return nil, domain.NewTransportError(fmt.Errorf("failed to save session: %w", err))
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLoginEvent).
		WithUser(sess.UserID).
		WithEmail(email).
		WithMetadata("role", string(sess.Role)))
	return sess, nil
}

// Logout implements domain.AuthFlowService
func (s *AuthFlowServiceImpl) Logout(ctx context.Context, store domain.SessionStore) error {
	current, _ := loadSession(ctx, store)
	if err := store.Clear(ctx); err != nil {
		return domain.NewTransportError(fmt.Errorf("failed to clear session: %w", err))
	}
	if current != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLogoutEvent).WithUser(current.UserID))
	}
	return nil
}

// RequestOTP implements domain.AuthFlowService
func (s *AuthFlowServiceImpl) RequestOTP(ctx context.Context, flowID, email string) (*domain.FlowStatus, error) {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, domain.NewValidationError("a valid email is required")
	}

	flow, err := s.getFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}
	observed := nonceOf(flow)

	if remaining := flow.CooldownFor(email, s.nowFn()); remaining > 0 {
		return nil, domain.NewCooldownError(remaining)
	}
	if flow == nil || flow.Email != email {
		previous := flow
		flow = &domain.AuthFlowState{Nonce: s.newNonce(), Email: email, StartedAt: s.nowFn()}
		if previous != nil {
			flow.ResendAfter = previous.ResendAfter
		}
	}

	if err := s.authAPI.RequestOTP(ctx, email); err != nil {
		err = kinded(err)
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.OTPRequestEvent).WithEmail(email).WithSlot(flowID).WithError(err))
		return nil, err
	}

	if err := s.ensureCurrent(ctx, flowID, observed, "request_otp"); err != nil {
		return nil, err
	}

	now := s.nowFn()
	flow.OTPRequested = true
	flow.OTPVerified = false
	flow.ResendAvailableAt = now.Add(s.config.ResendCooldown)
	flow.ResendAfter = flow.WithResendAt(email, flow.ResendAvailableAt, now)
	if err := s.flows.Put(ctx, flowID, flow); err != nil {
		return nil, domain.NewTransportError(fmt.Errorf("failed to store flow: %w", err))
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.OTPRequestEvent).WithEmail(email).WithSlot(flowID))
	return statusOf(flow, now), nil
}

// VerifyOTP implements domain.AuthFlowService
func (s *AuthFlowServiceImpl) VerifyOTP(ctx context.Context, flowID, email, code string) error {
	if err := s.validate.Var(code, fmt.Sprintf("len=%d", s.config.OTPLength)); err != nil {
		return domain.NewValidationError(fmt.Sprintf("the code must be exactly %d characters", s.config.OTPLength))
	}

	flow, err := s.getFlow(ctx, flowID)
	if err != nil {
		return err
	}
	if flow == nil || !flow.OTPRequested || flow.Email != email {
		return domain.NewPreconditionError("request a code before verifying")
	}

	if err := s.authAPI.VerifyOTP(ctx, email, code); err != nil {
		err = kinded(err)
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.OTPFailureEvent).WithEmail(email).WithSlot(flowID).WithError(err))
		return err
	}

	if err := s.ensureCurrent(ctx, flowID, flow.Nonce, "verify_otp"); err != nil {
		return err
	}

	flow.OTPVerified = true
	if err := s.flows.Put(ctx, flowID, flow); err != nil {
		return domain.NewTransportError(fmt.Errorf("failed to store flow: %w", err))
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.OTPVerifyEvent).WithEmail(email).WithSlot(flowID))
	return nil
}

// ResetPassword implements domain.AuthFlowService.
// A reset token stands in for a verified flow.
func (s *AuthFlowServiceImpl) ResetPassword(ctx context.Context, flowID, email, newPassword, resetToken string) error {
	flow, err := s.getFlow(ctx, flowID)
	if err != nil {
		return err
	}
	if resetToken == "" && (flow == nil || !flow.OTPVerified || flow.Email != email) {
		return domain.NewPreconditionError("verify the code sent to your email first")
	}
	if resetToken != "" {
		if err := s.validate.Var(email, "required,email"); err != nil {
			return domain.NewValidationError("a valid email is required")
		}
	}

	if err := s.validate.Var(newPassword, "password"); err != nil {
		return domain.NewValidationError("password must be at least 8 characters and contain upper case, lower case and a digit")
	}

	if err := s.authAPI.ResetPassword(ctx, email, newPassword, resetToken); err != nil {
		err = kinded(err)
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordResetEvent).WithEmail(email).WithSlot(flowID).WithError(err))
		return err
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordResetEvent).WithEmail(email).WithSlot(flowID))

	// The backend has applied the reset. A flow restarted meanwhile is left alone.
	current, err := s.flows.Get(ctx, flowID)
	if err != nil || nonceOf(current) != nonceOf(flow) {
		s.logger.InfoContext(ctx, "flow changed during reset, keeping it", "operation", "reset_password", "slot_id", flowID)
		return nil
	}
	if err := s.flows.Delete(ctx, flowID); err != nil {
		s.logger.WarnContext(ctx, "failed to discard finished flow", "operation", "reset_password", "outcome", "failure", "error", err)
	}
	return nil
}

// Status implements domain.AuthFlowService
func (s *AuthFlowServiceImpl) Status(ctx context.Context, flowID string) (*domain.FlowStatus, error) {
	flow, err := s.getFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}
	return statusOf(flow, s.nowFn()), nil
}

// Abandon implements domain.AuthFlowService
func (s *AuthFlowServiceImpl) Abandon(ctx context.Context, flowID string) error {
	flow, err := s.getFlow(ctx, flowID)
	if err != nil {
		return err
	}
	if flow == nil {
		return nil
	}
	if err := s.flows.Delete(ctx, flowID); err != nil {
		return domain.NewTransportError(fmt.Errorf("failed to delete flow: %w", err))
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.RecoveryAbandonEvent).WithEmail(flow.Email).WithSlot(flowID))
	return nil
}

func (s *AuthFlowServiceImpl) getFlow(ctx context.Context, flowID string) (*domain.AuthFlowState, error) {
	flow, err := s.flows.Get(ctx, flowID)
	if err != nil {
		return nil, domain.NewTransportError(fmt.Errorf("failed to load flow: %w", err))
	}
	return flow, nil
}

// ensureCurrent fails with ErrSuperseded when the slot's flow changed since observed
func (s *AuthFlowServiceImpl) ensureCurrent(ctx context.Context, flowID, observed, operation string) error {
	current, err := s.getFlow(ctx, flowID)
	if err != nil {
		return err
	}
	if nonceOf(current) != observed {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.StaleResponseEvent).
			WithSlot(flowID).
			WithMetadata("operation", operation))
		return domain.NewSupersededError("this recovery attempt is no longer active")
	}
	return nil
}

func loadSession(ctx context.Context, store domain.SessionStore) (*domain.Session, error) {
	sess, err := store.Load(ctx)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, nil
	}
	return sess, err
}

func sameSession(a, b *domain.Session) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Token == b.Token && a.UserID == b.UserID
}

func nonceOf(flow *domain.AuthFlowState) string {
	if flow == nil {
		return ""
	}
	return flow.Nonce
}

func statusOf(flow *domain.AuthFlowState, now time.Time) *domain.FlowStatus {
	if flow == nil {
		return &domain.FlowStatus{State: domain.StateAnonymous}
	}
	return &domain.FlowStatus{
		State:    flow.State(),
		Email:    flow.Email,
		ResendIn: flow.ResendIn(now),
	}
}

// kinded makes sure adapter errors that carry no kind surface as transport failures
func kinded(err error) error {
	var fe *domain.FlowError
	if errors.As(err, &fe) {
		return err
	}
	return domain.NewTransportError(err)
}
