package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/you/taskconsole/domain"
)

func TestDecide(t *testing.T) {
	admin := &domain.Session{UserID: "1", Role: domain.RoleAdmin, Token: "a"}
	user := &domain.Session{UserID: "2", Role: domain.RoleUser, Token: "b"}

	tests := []struct {
		name     string
		session  *domain.Session
		required domain.Role
		path     string
		want     Decision
	}{
		{
			name:     "absent session needs login",
			session:  nil,
			required: domain.RoleAdmin,
			path:     "/admin",
			want:     Decision{RedirectTo: "/auth/login?next=%2Fadmin"},
		},
		{
			name:     "incomplete session counts as absent",
			session:  &domain.Session{UserID: "2", Role: domain.RoleUser},
			required: domain.RoleUser,
			path:     "/users/tasks",
			want:     Decision{RedirectTo: "/auth/login?next=%2Fusers%2Ftasks"},
		},
		{
			name:     "user in admin area goes to user home",
			session:  user,
			required: domain.RoleAdmin,
			path:     "/admin/users",
			want:     Decision{RedirectTo: "/users"},
		},
		{
			name:     "admin in admin area is allowed",
			session:  admin,
			required: domain.RoleAdmin,
			path:     "/admin",
			want:     Decision{Allow: true},
		},
		{
			name:     "admin in user area goes to admin home",
			session:  admin,
			required: domain.RoleUser,
			path:     "/users",
			want:     Decision{RedirectTo: "/admin"},
		},
		{
			name:     "user in user area is allowed",
			session:  user,
			required: domain.RoleUser,
			path:     "/users",
			want:     Decision{Allow: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.session, tt.required, tt.path)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, !tt.want.Allow, got.Redirecting())
		})
	}
}

func TestDecide_DoesNotMutateSession(t *testing.T) {
	s := &domain.Session{UserID: "2", Role: domain.RoleUser, Token: "b", DisplayName: "Bo"}
	before := *s

	Decide(s, domain.RoleAdmin, "/admin")
	Decide(s, domain.RoleAdmin, "/admin")

	assert.Equal(t, before, *s)
}

func TestHomeFor(t *testing.T) {
	assert.Equal(t, "/admin", HomeFor(domain.RoleAdmin))
	assert.Equal(t, "/users", HomeFor(domain.RoleUser))
	assert.Equal(t, "/auth/login", HomeFor("guest"))
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"/admin/users":       "/admin/users",
		"":                   "/users",
		"https://evil.test/": "/users",
		"//evil.test/x":      "/users",
		"admin":              "/users",
	}
	for next, want := range tests {
		assert.Equal(t, want, SafeNext(next, "/users"), next)
	}
}
