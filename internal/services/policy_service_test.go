package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/taskconsole/domain"
	"github.com/you/taskconsole/internal/mocks"
)

// createPolicyServiceForTest creates a PolicyService with mock Casbin enforcer
func createPolicyServiceForTest(t *testing.T) (domain.PolicyService, *mocks.MockCasbinEnforcer) {
	t.Helper()
	enforcer := mocks.NewMockCasbinEnforcer()
	return NewPolicyServiceWithEnforcer(enforcer), enforcer
}

func TestPolicyServiceImpl_AddPolicy(t *testing.T) {
	errStore := errors.New("store down")

	tests := []struct {
		name          string
		role          string
		resource      string
		action        string
		setupMock     func(*mocks.MockCasbinEnforcer)
		expectedKind  error
		expectedError error
		expectedSaves int
	}{
		{
			name:          "successful policy addition",
			role:          "role_user",
			resource:      "/api/users",
			action:        "GET",
			expectedSaves: 1,
		},
		{
			name:          "policy already exists still saves",
			role:          "role_admin",
			resource:      "/api/*",
			action:        "GET|POST|PUT|DELETE",
			expectedSaves: 1,
		},
		{
			name:         "bare role name rejected",
			role:         "admin",
			resource:     "/api/users",
			action:       "GET",
			expectedKind: domain.ErrValidation,
		},
		{
			name:         "relative resource rejected",
			role:         "role_user",
			resource:     "api/users",
			action:       "GET",
			expectedKind: domain.ErrValidation,
		},
		{
			name:     "add policy fails",
			role:     "role_user",
			resource: "/api/tasks",
			action:   "DELETE",
			setupMock: func(e *mocks.MockCasbinEnforcer) {
				e.AddPolicyFunc = func(params ...interface{}) (bool, error) { return false, errStore }
			},
			expectedError: errStore,
		},
		{
			name:     "save policy fails",
			role:     "role_user",
			resource: "/api/tasks",
			action:   "POST",
			setupMock: func(e *mocks.MockCasbinEnforcer) {
				e.SavePolicyFunc = func() error { return errStore }
			},
			expectedError: errStore,
			expectedSaves: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, enforcer := createPolicyServiceForTest(t)
			if tt.setupMock != nil {
				tt.setupMock(enforcer)
			}

			err := svc.AddPolicy(tt.role, tt.resource, tt.action)

			switch {
			case tt.expectedKind != nil:
				assert.ErrorIs(t, err, tt.expectedKind)
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
			default:
				require.NoError(t, err)
				ok, err := svc.CheckPermission(tt.role, tt.resource, "GET")
				require.NoError(t, err)
				assert.True(t, ok)
			}
			assert.Equal(t, tt.expectedSaves, enforcer.SaveCalls)
		})
	}
}

func TestPolicyServiceImpl_RemovePolicy(t *testing.T) {
	svc, enforcer := createPolicyServiceForTest(t)

	ok, err := svc.CheckPermission("role_user", "/api/tasks", "GET")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.RemovePolicy("role_user", "/api/tasks", "GET"))
	assert.Equal(t, 1, enforcer.SaveCalls)

	ok, err = svc.CheckPermission("role_user", "/api/tasks", "GET")
	require.NoError(t, err)
	assert.False(t, ok)

	// removing a missing rule is not an error
	require.NoError(t, svc.RemovePolicy("role_user", "/api/tasks", "GET"))
	assert.ErrorIs(t, svc.RemovePolicy("", "/api/tasks", "GET"), domain.ErrValidation)
}

func TestPolicyServiceImpl_CheckPermission(t *testing.T) {
	tests := []struct {
		role, resource, action string
		want                   bool
	}{
		{"role_admin", "/api/users", "DELETE", true},
		{"role_admin", "/api/tasks/t1", "PUT", true},
		{"role_user", "/api/tasks", "GET", true},
		{"role_user", "/api/users", "GET", false},
		{"role_unknown", "/api/tasks", "GET", false},
	}

	svc, _ := createPolicyServiceForTest(t)
	for _, tt := range tests {
		t.Run(tt.role+" "+tt.action+" "+tt.resource, func(t *testing.T) {
			ok, err := svc.CheckPermission(tt.role, tt.resource, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestPolicyServiceImpl_GetPolicies(t *testing.T) {
	t.Run("returns enforcer policies", func(t *testing.T) {
		svc, _ := createPolicyServiceForTest(t)
		assert.Len(t, svc.GetPolicies(), 2)
	})

	t.Run("enforcer failure yields nil", func(t *testing.T) {
		svc, enforcer := createPolicyServiceForTest(t)
		enforcer.GetPolicyFunc = func() ([][]string, error) { return nil, errors.New("boom") }
		assert.Nil(t, svc.GetPolicies())
	})
}

func TestAddPolicy_AcceptsRoleSubjects(t *testing.T) {
	svc, _ := createPolicyServiceForTest(t)
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleUser} {
		assert.NoError(t, svc.AddPolicy(role.Subject(), "/api/tasks", "GET"))
	}
	assert.Error(t, svc.AddPolicy(string(domain.RoleUser), "/api/tasks", "GET"))
}
