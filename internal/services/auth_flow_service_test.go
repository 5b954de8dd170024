package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/taskconsole/domain"
	"github.com/you/taskconsole/internal/mocks"
)

type flowFixture struct {
	svc   *AuthFlowServiceImpl
	api   *mocks.MockAuthAPI
	flows *mocks.MockFlowRepository
	audit *mocks.MockAuditLogger
	now   time.Time
}

func (f *flowFixture) advance(d time.Duration) { f.now = f.now.Add(d) }

// newFlowFixture wires the service to mocks and a controllable clock
func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()
	f := &flowFixture{
		api:   mocks.NewMockAuthAPI(),
		flows: mocks.NewMockFlowRepository(),
		audit: mocks.NewMockAuditLogger(),
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewAuthFlowService(f.api, f.flows, f.audit, DefaultFlowConfig())
	f.svc.nowFn = func() time.Time { return f.now }
	n := 0
	f.svc.newNonce = func() string {
		n++
		return "nonce-" + string(rune('0'+n))
	}
	return f
}

func TestLogin_ScenarioA(t *testing.T) {
	f := newFlowFixture(t)
	f.api.LoginFunc = func(ctx context.Context, email, password string) (*domain.LoginResult, error) {
		assert.Equal(t, "user@x.com", email)
		assert.Equal(t, "secret1", password)
		return &domain.LoginResult{Token: "abc", User: domain.User{ID: "2", Role: "user", Email: email}}, nil
	}
	store := mocks.NewMockSessionStore(nil)

	sess, err := f.svc.Login(context.Background(), store, "user@x.com", "secret1")
	require.NoError(t, err)

	want := &domain.Session{UserID: "2", Role: domain.RoleUser, Token: "abc", DisplayName: "user@x.com"}
	assert.Equal(t, want, sess)
	assert.Equal(t, want, store.Current())
	assert.Equal(t, []domain.AuditEventType{domain.UserLoginEvent}, f.audit.Types())
}

func TestLogin_LocalValidation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "secret1"},
		{"malformed email", "not-an-email", "secret1"},
		{"empty password", "user@x.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFlowFixture(t)
			store := mocks.NewMockSessionStore(nil)

			_, err := f.svc.Login(context.Background(), store, tt.email, tt.password)

			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Empty(t, f.api.Calls)
			assert.Nil(t, store.Current())
		})
	}
}

func TestLogin_FailuresLeaveStoreUntouched(t *testing.T) {
	existing := &domain.Session{UserID: "9", Role: domain.RoleAdmin, Token: "old"}

	tests := []struct {
		name     string
		apiErr   error
		result   *domain.LoginResult
		wantKind error
	}{
		{
			name:     "backend rejects credentials",
			apiErr:   domain.NewAuthError("Invalid credentials", nil),
			wantKind: domain.ErrAuth,
		},
		{
			name:     "transport failure",
			apiErr:   domain.NewTransportError(errors.New("connection refused")),
			wantKind: domain.ErrTransport,
		},
		{
			name:     "unkinded adapter error is transport",
			apiErr:   errors.New("boom"),
			wantKind: domain.ErrTransport,
		},
		{
			name:     "incomplete login response",
			result:   &domain.LoginResult{Token: "", User: domain.User{ID: "2", Role: "user"}},
			wantKind: domain.ErrTransport,
		},
		{
			name:     "unknown role",
			result:   &domain.LoginResult{Token: "abc", User: domain.User{ID: "2", Role: "guest"}},
			wantKind: domain.ErrTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFlowFixture(t)
			f.api.LoginFunc = func(ctx context.Context, email, password string) (*domain.LoginResult, error) {
				return tt.result, tt.apiErr
			}
			store := mocks.NewMockSessionStore(existing)

			_, err := f.svc.Login(context.Background(), store, "user@x.com", "secret1")

			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, existing, store.Current())
			assert.Equal(t, []domain.AuditEventType{domain.UserLoginFailureEvent}, f.audit.Types())
		})
	}
}

func TestLogin_IsRetriableAfterFailure(t *testing.T) {
	f := newFlowFixture(t)
	attempts := 0
	f.api.LoginFunc = func(ctx context.Context, email, password string) (*domain.LoginResult, error) {
		attempts++
		if attempts == 1 {
			return nil, domain.NewAuthError("Invalid credentials", nil)
		}
		return &domain.LoginResult{Token: "abc", User: domain.User{ID: "2", Role: "admin"}}, nil
	}
	store := mocks.NewMockSessionStore(nil)

	_, err := f.svc.Login(context.Background(), store, "a@x.com", "wrong")
	require.ErrorIs(t, err, domain.ErrAuth)

	sess, err := f.svc.Login(context.Background(), store, "a@x.com", "right")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, sess.Role)
}

func TestLogin_LateResponseDoesNotClobberNewerSession(t *testing.T) {
	f := newFlowFixture(t)
	store := mocks.NewMockSessionStore(nil)
	newer := &domain.Session{UserID: "7", Role: domain.RoleAdmin, Token: "newer"}

	f.api.LoginFunc = func(ctx context.Context, email, password string) (*domain.LoginResult, error) {
		// a second login completes while this one is in flight
		store.Set(newer)
		return &domain.LoginResult{Token: "stale", User: domain.User{ID: "2", Role: "user"}}, nil
	}

	_, err := f.svc.Login(context.Background(), store, "user@x.com", "secret1")

	assert.ErrorIs(t, err, domain.ErrSuperseded)
	assert.Equal(t, newer, store.Current())
	assert.Contains(t, f.audit.Types(), domain.StaleResponseEvent)
}

func TestLogin_LateResponseAfterLogout(t *testing.T) {
	f := newFlowFixture(t)
	store := mocks.NewMockSessionStore(&domain.Session{UserID: "1", Role: domain.RoleUser, Token: "t"})

	f.api.LoginFunc = func(ctx context.Context, email, password string) (*domain.LoginResult, error) {
		require.NoError(t, f.svc.Logout(ctx, store))
		return &domain.LoginResult{Token: "abc", User: domain.User{ID: "2", Role: "user"}}, nil
	}

	_, err := f.svc.Login(context.Background(), store, "user@x.com", "secret1")

	assert.ErrorIs(t, err, domain.ErrSuperseded)
	assert.Nil(t, store.Current())
}

func TestLogout(t *testing.T) {
	f := newFlowFixture(t)
	store := mocks.NewMockSessionStore(&domain.Session{UserID: "1", Role: domain.RoleUser, Token: "t"})

	require.NoError(t, f.svc.Logout(context.Background(), store))
	assert.Nil(t, store.Current())
	assert.Equal(t, []domain.AuditEventType{domain.UserLogoutEvent}, f.audit.Types())

	// logging out an empty slot is fine and not audited
	require.NoError(t, f.svc.Logout(context.Background(), store))
	assert.Len(t, f.audit.Types(), 1)
}

func TestRequestOTP_CooldownIdempotence(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	status, err := f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, domain.StateOTPRequested, status.State)
	assert.Equal(t, 30, status.ResendIn)

	f.advance(10 * time.Second)
	_, err = f.svc.RequestOTP(ctx, "slot-1", "a@b.com")

	require.ErrorIs(t, err, domain.ErrCooldownActive)
	var fe *domain.FlowError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 20, fe.RetryAfter)
	assert.Equal(t, []string{"otp_request"}, f.api.Calls)
}

func TestRequestOTP_CooldownSurvivesEmailSwitch(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
	require.NoError(t, err)

	f.advance(2 * time.Second)
	status, err := f.svc.RequestOTP(ctx, "slot-1", "c@d.com")
	require.NoError(t, err)
	assert.Equal(t, "c@d.com", status.Email)

	f.advance(2 * time.Second)
	_, err = f.svc.RequestOTP(ctx, "slot-1", "a@b.com")

	require.ErrorIs(t, err, domain.ErrCooldownActive)
	var fe *domain.FlowError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 26, fe.RetryAfter)
	assert.Equal(t, []string{"otp_request", "otp_request"}, f.api.Calls)

	status, err = f.svc.Status(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, "c@d.com", status.Email, "a rejected switch keeps the current flow")

	f.advance(26 * time.Second)
	status, err = f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", status.Email)
	assert.Equal(t, 30, status.ResendIn)

	flow, err := f.flows.Get(ctx, "slot-1")
	require.NoError(t, err)
	assert.Len(t, flow.ResendAfter, 2, "c@d.com still cooling down")

	f.advance(5 * time.Second)
	_, err = f.svc.RequestOTP(ctx, "slot-1", "c@d.com")
	require.NoError(t, err)
	flow, err = f.flows.Get(ctx, "slot-1")
	require.NoError(t, err)
	assert.Len(t, flow.ResendAfter, 2)
}

func TestRequestOTP_CooldownCountdown(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
	require.NoError(t, err)

	steps := []struct {
		after time.Duration
		want  int
	}{
		{0, 30},
		{500 * time.Millisecond, 30},
		{time.Second, 29},
		{29 * time.Second, 1},
		{29*time.Second + 999*time.Millisecond, 1},
		{30 * time.Second, 0},
		{time.Hour, 0},
	}
	start := f.now
	for _, s := range steps {
		f.now = start.Add(s.after)
		status, err := f.svc.Status(ctx, "slot-1")
		require.NoError(t, err)
		assert.Equal(t, s.want, status.ResendIn, "after %s", s.after)
	}

	// once the countdown hits zero a resend goes through and restarts it
	f.now = start.Add(30 * time.Second)
	status, err := f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, 30, status.ResendIn)
	assert.Equal(t, []string{"otp_request", "otp_request"}, f.api.Calls)
}

func TestRequestOTP_DifferentEmailStartsNewFlow(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
	require.NoError(t, err)

	status, err := f.svc.RequestOTP(ctx, "slot-1", "other@b.com")
	require.NoError(t, err)
	assert.Equal(t, "other@b.com", status.Email)

	flow, err := f.flows.Get(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, "nonce-2", flow.Nonce)
}

func TestRequestOTP_FailureKeepsState(t *testing.T) {
	f := newFlowFixture(t)
	f.api.RequestOTPFunc = func(ctx context.Context, email string) error {
		return domain.NewAuthError("No account for this email", nil)
	}

	_, err := f.svc.RequestOTP(context.Background(), "slot-1", "a@b.com")
	assert.ErrorIs(t, err, domain.ErrAuth)

	status, err := f.svc.Status(context.Background(), "slot-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateAnonymous, status.State)
}

func TestRequestOTP_InvalidEmail(t *testing.T) {
	f := newFlowFixture(t)
	_, err := f.svc.RequestOTP(context.Background(), "slot-1", "nope")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, f.api.Calls)
}

func TestVerifyOTP_ScenarioB(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()
	f.api.VerifyOTPFunc = func(ctx context.Context, email, code string) error {
		return domain.NewAuthError("Invalid OTP", nil)
	}

	status, err := f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, 30, status.ResendIn)

	err = f.svc.VerifyOTP(ctx, "slot-1", "a@b.com", "123456")
	assert.ErrorIs(t, err, domain.ErrAuth)

	status, err = f.svc.Status(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateOTPRequested, status.State)

	err = f.svc.ResetPassword(ctx, "slot-1", "a@b.com", "NewPass1", "")
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
	assert.NotContains(t, f.api.Calls, "reset_password")
}

func TestVerifyOTP_ScenarioC(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()
	_, err := f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
	require.NoError(t, err)

	for _, code := range []string{"12345", "1234567", ""} {
		err := f.svc.VerifyOTP(ctx, "slot-1", "a@b.com", code)
		assert.ErrorIs(t, err, domain.ErrValidation, "code %q", code)
	}
	assert.Equal(t, []string{"otp_request"}, f.api.Calls)
}

func TestVerifyOTP_WithoutRequest(t *testing.T) {
	f := newFlowFixture(t)

	err := f.svc.VerifyOTP(context.Background(), "slot-1", "a@b.com", "123456")

	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
	assert.Empty(t, f.api.Calls)
}

func TestVerifyOTP_EmailMismatch(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()
	_, err := f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
	require.NoError(t, err)

	err = f.svc.VerifyOTP(ctx, "slot-1", "c@d.com", "123456")
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestResetPassword_OrderingProperty(t *testing.T) {
	for requests := 0; requests <= 3; requests++ {
		f := newFlowFixture(t)
		ctx := context.Background()
		for i := 0; i < requests; i++ {
			_, err := f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
			require.NoError(t, err)
			f.advance(31 * time.Second)
		}

		err := f.svc.ResetPassword(ctx, "slot-1", "a@b.com", "NewPass1", "")
		assert.ErrorIs(t, err, domain.ErrPreconditionFailed, "after %d requests", requests)
		assert.NotContains(t, f.api.Calls, "reset_password")
	}
}

func TestResetPassword_FullRecovery(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
	require.NoError(t, err)
	require.NoError(t, f.svc.VerifyOTP(ctx, "slot-1", "a@b.com", "123456"))

	status, err := f.svc.Status(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateOTPVerified, status.State)

	// policy violations are local and keep the flow verified
	for _, pw := range []string{"short1A", "alllowercase1", "ALLUPPERCASE1", "NoDigitsHere"} {
		err := f.svc.ResetPassword(ctx, "slot-1", "a@b.com", pw, "")
		assert.ErrorIs(t, err, domain.ErrValidation, pw)
	}
	assert.NotContains(t, f.api.Calls, "reset_password")

	require.NoError(t, f.svc.ResetPassword(ctx, "slot-1", "a@b.com", "NewPass1", ""))

	status, err = f.svc.Status(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateAnonymous, status.State)
	assert.Equal(t, []string{"otp_request", "otp_verify", "reset_password"}, f.api.Calls)
	assert.Equal(t, []domain.AuditEventType{
		domain.OTPRequestEvent,
		domain.OTPVerifyEvent,
		domain.PasswordResetEvent,
	}, f.audit.Types())
}

func TestResetPassword_WithResetToken(t *testing.T) {
	f := newFlowFixture(t)
	f.api.ResetPasswordFunc = func(ctx context.Context, email, password, resetToken string) error {
		assert.Equal(t, "tok-1", resetToken)
		return nil
	}

	err := f.svc.ResetPassword(context.Background(), "slot-1", "a@b.com", "NewPass1", "tok-1")
	require.NoError(t, err)
}

func TestResetPassword_BackendRejectionKeepsFlow(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()
	f.api.ResetPasswordFunc = func(ctx context.Context, email, password, resetToken string) error {
		return domain.NewAuthError("Password was used recently", nil)
	}
	_, err := f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
	require.NoError(t, err)
	require.NoError(t, f.svc.VerifyOTP(ctx, "slot-1", "a@b.com", "123456"))

	err = f.svc.ResetPassword(ctx, "slot-1", "a@b.com", "NewPass1", "")
	assert.ErrorIs(t, err, domain.ErrAuth)

	status, err := f.svc.Status(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateOTPVerified, status.State)
}

func TestVerifyOTP_LateResponseAfterAbandon(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()
	_, err := f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
	require.NoError(t, err)

	f.api.VerifyOTPFunc = func(ctx context.Context, email, code string) error {
		require.NoError(t, f.svc.Abandon(ctx, "slot-1"))
		return nil
	}

	err = f.svc.VerifyOTP(ctx, "slot-1", "a@b.com", "123456")
	assert.ErrorIs(t, err, domain.ErrSuperseded)

	flow, err := f.flows.Get(ctx, "slot-1")
	require.NoError(t, err)
	assert.Nil(t, flow)
}

func TestRequestOTP_LateResponseAfterRestart(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()
	_, err := f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
	require.NoError(t, err)
	f.advance(31 * time.Second)

	first := true
	f.api.RequestOTPFunc = func(ctx context.Context, email string) error {
		if first {
			first = false
			// the user started over with another address meanwhile
			_, err := f.svc.RequestOTP(ctx, "slot-1", "other@b.com")
			require.NoError(t, err)
		}
		return nil
	}

	_, err = f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
	assert.ErrorIs(t, err, domain.ErrSuperseded)

	status, err := f.svc.Status(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, "other@b.com", status.Email)
}

func TestResetPassword_LateSuccessKeepsNewerFlow(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()
	_, err := f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
	require.NoError(t, err)
	require.NoError(t, f.svc.VerifyOTP(ctx, "slot-1", "a@b.com", "123456"))

	f.api.ResetPasswordFunc = func(ctx context.Context, email, password, resetToken string) error {
		require.NoError(t, f.svc.Abandon(ctx, "slot-1"))
		_, err := f.svc.RequestOTP(ctx, "slot-1", "other@b.com")
		require.NoError(t, err)
		return nil
	}

	require.NoError(t, f.svc.ResetPassword(ctx, "slot-1", "a@b.com", "NewPass1", ""))

	status, err := f.svc.Status(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateOTPRequested, status.State)
	assert.Equal(t, "other@b.com", status.Email)
}

func TestAbandon(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	// nothing to abandon
	require.NoError(t, f.svc.Abandon(ctx, "slot-1"))
	assert.Empty(t, f.audit.Types())

	_, err := f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
	require.NoError(t, err)
	require.NoError(t, f.svc.Abandon(ctx, "slot-1"))

	status, err := f.svc.Status(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, &domain.FlowStatus{State: domain.StateAnonymous}, status)

	// a fresh request right after abandoning is not held back by the old cooldown
	_, err = f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
	require.NoError(t, err)
}

func TestFlowsAreIsolatedPerSlot(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestOTP(ctx, "slot-1", "a@b.com")
	require.NoError(t, err)
	_, err = f.svc.RequestOTP(ctx, "slot-2", "a@b.com")
	require.NoError(t, err)

	require.NoError(t, f.svc.VerifyOTP(ctx, "slot-1", "a@b.com", "123456"))

	s2, err := f.svc.Status(ctx, "slot-2")
	require.NoError(t, err)
	assert.Equal(t, domain.StateOTPRequested, s2.State)
}

func TestFlowRepositoryFailureIsTransport(t *testing.T) {
	f := newFlowFixture(t)
	f.flows.GetFunc = func(ctx context.Context, flowID string) (*domain.AuthFlowState, error) {
		return nil, errors.New("redis down")
	}

	_, err := f.svc.RequestOTP(context.Background(), "slot-1", "a@b.com")
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, "internal error", domain.UserMessage(err))
}

func TestValidPassword(t *testing.T) {
	tests := []struct {
		pw   string
		want bool
	}{
		{"NewPass1", true},
		{"Ünïcode9x", true},
		{"Short1A", false},
		{"nouppercase1", false},
		{"NOLOWERCASE1", false},
		{"NoDigitsAtAll", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidPassword(tt.pw), tt.pw)
	}
}
