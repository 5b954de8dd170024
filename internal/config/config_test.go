package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/taskconsole/domain"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.yml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "redis", cfg.SessionDriver)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 6, cfg.OTPLength)
	assert.Equal(t, 30*time.Second, cfg.OTPResendCooldown)
	assert.Equal(t, 15*time.Minute, cfg.FlowTTL)
	assert.Equal(t, "console_slot", cfg.SlotCookie)
	assert.Equal(t, DefaultAreas(), cfg.Areas)
	assert.True(t, filepath.IsAbs(cfg.SessionFile))
}

func TestLoadFrom_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yml", `
app:
  port: 9090
backend:
  url: http://backend.internal/api
  timeout: 3s
session:
  driver: postgres
  ttl: 1h
database:
  dsn: postgres://console@db/console
otp:
  length: 6
  resend_cooldown: 45s
`)
	t.Setenv("CONSOLE_OTP_RESEND_COOLDOWN", "60s")
	t.Setenv("CONSOLE_SLOT_SECRET", "0123456789abcdef")
	t.Setenv("CONSOLE_SESSION_FILE", "/tmp/console-session.json")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "http://backend.internal/api", cfg.BackendURL)
	assert.Equal(t, 3*time.Second, cfg.BackendTimeout)
	assert.Equal(t, "postgres", cfg.SessionDriver)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, 60*time.Second, cfg.OTPResendCooldown)
	assert.Equal(t, "/tmp/console-session.json", cfg.SessionFile)
	assert.NoError(t, cfg.ValidateServe())
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "bad yaml", body: "app: [::"},
		{name: "bad duration", body: "session:\n  ttl: forever\n"},
		{name: "negative duration", body: "flow:\n  ttl: -1m\n"},
		{name: "unknown driver", body: "session:\n  driver: mongo\n"},
		{name: "postgres without dsn", body: "session:\n  driver: postgres\n"},
		{name: "bad env port", body: "", env: map[string]string{"CONSOLE_PORT": "http"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeConfig(t, t.TempDir(), "config.yml", tt.body)
			_, err := LoadFrom(path)
			assert.Error(t, err)
		})
	}
}

func TestValidateServe_RequiresSecret(t *testing.T) {
	cfg := &Config{SlotSecret: "short"}
	assert.Error(t, cfg.ValidateServe())
}

func TestAreaRules(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "areas.yml", `
areas:
  - prefix: /users
    role: user
  - prefix: /admin
    role: admin
  - prefix: /admin/reports/user
    role: user
`)
	cfg, err := LoadFrom(filepath.Join(dir, "config.yml"))
	require.NoError(t, err)

	tests := []struct {
		path  string
		role  domain.Role
		found bool
	}{
		{"/admin", domain.RoleAdmin, true},
		{"/admin/users", domain.RoleAdmin, true},
		{"/admin/reports/user/7", domain.RoleUser, true},
		{"/users", domain.RoleUser, true},
		{"/usersettings", "", false},
		{"/auth/login", "", false},
	}
	for _, tt := range tests {
		role, found := MatchArea(cfg.Areas, tt.path)
		assert.Equal(t, tt.found, found, tt.path)
		assert.Equal(t, tt.role, role, tt.path)
	}
}

func TestAreaRules_RejectUnknownRole(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "areas.yml", "areas:\n  - prefix: /ops\n    role: operator\n")

	_, err := LoadFrom(filepath.Join(dir, "config.yml"))
	assert.Error(t, err)
}
