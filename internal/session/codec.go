// Package session converts sessions to and from their persisted form.
//
// The persisted form is the backend's login payload,
// {"token": "...", "user": {"id": "...", "role": "...", ...}}, so a value written
// by an older console build or copied from the browser stays readable.
package session

import (
	"encoding/json"
	"strings"

	"github.com/you/taskconsole/domain"
)

// Status tags the outcome of Decode
type Status int

const (
	// Absent means nothing was stored
	Absent Status = iota
	// OK means the entry decoded into a complete session
	OK
	// Corrupt means something was stored but it is not a usable session
	Corrupt
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case Corrupt:
		return "corrupt"
	default:
		return "absent"
	}
}

// Result is the tagged outcome of decoding a persisted entry.
// Session is non-nil only when Status is OK.
type Result struct {
	Status  Status
	Session *domain.Session
}

type storedUser struct {
	ID        string `json:"id,omitempty"`
	LegacyID  string `json:"_id,omitempty"`
	Role      string `json:"role"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
}

type stored struct {
	Token string      `json:"token"`
	User  *storedUser `json:"user"`
}

// Encode serializes a complete session
func Encode(s *domain.Session) ([]byte, error) {
	if !s.Complete() {
		return nil, domain.ErrSessionInvalid
	}
	return json.Marshal(stored{
		Token: s.Token,
		User: &storedUser{
			ID:   s.UserID,
			Role: string(s.Role),
			Name: s.DisplayName,
		},
	})
}

// Decode never fails: every input maps to Absent, OK or Corrupt
func Decode(raw []byte) Result {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Result{Status: Absent}
	}

	var v stored
	if err := json.Unmarshal(raw, &v); err != nil || v.User == nil {
		return Result{Status: Corrupt}
	}

	id := v.User.ID
	if id == "" {
		id = v.User.LegacyID
	}
	s := &domain.Session{
		UserID:      id,
		Role:        domain.Role(v.User.Role),
		Token:       v.Token,
		DisplayName: displayName(v.User),
	}
	if !s.Complete() {
		return Result{Status: Corrupt}
	}
	return Result{Status: OK, Session: s}
}

// FromLogin builds the session for a backend login result
func FromLogin(res *domain.LoginResult) (*domain.Session, error) {
	if res == nil {
		return nil, domain.ErrSessionInvalid
	}
	s := &domain.Session{
		UserID: res.User.ID,
		Role:   domain.Role(res.User.Role),
		Token:  res.Token,
		DisplayName: displayName(&storedUser{
			FirstName: res.User.FirstName,
			LastName:  res.User.LastName,
			Email:     res.User.Email,
		}),
	}
	if !s.Complete() {
		return nil, domain.ErrSessionInvalid
	}
	return s, nil
}

func displayName(u *storedUser) string {
	if u.Name != "" {
		return u.Name
	}
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full != "" {
		return full
	}
	return u.Email
}
