package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/you/taskconsole/domain"
)

type loginUser struct {
	ID        string `json:"id"`
	LegacyID  string `json:"_id"`
	Role      string `json:"role"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  loginUser `json:"user"`
}

// Login implements domain.AuthAPI (POST /login)
func (c *Client) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	var out loginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", nil, "", body, &out); err != nil {
		return nil, asAuthError(err)
	}

	id := out.User.ID
	if id == "" {
		id = out.User.LegacyID
	}
	return &domain.LoginResult{
		Token: out.Token,
		User: domain.User{
			ID:        id,
			Role:      out.User.Role,
			FirstName: out.User.FirstName,
			LastName:  out.User.LastName,
			Email:     out.User.Email,
		},
	}, nil
}

// RequestOTP implements domain.AuthAPI (GET /otp/req?email=)
func (c *Client) RequestOTP(ctx context.Context, email string) error {
	q := url.Values{}
	q.Set("email", email)
	return asAuthError(c.do(ctx, http.MethodGet, "/otp/req", q, "", nil, nil))
}

// VerifyOTP implements domain.AuthAPI (POST /otp/verify)
func (c *Client) VerifyOTP(ctx context.Context, email, code string) error {
	body := map[string]string{"email": email, "otp": code}
	return asAuthError(c.do(ctx, http.MethodPost, "/otp/verify", nil, "", body, nil))
}

// ResetPassword implements domain.AuthAPI (PUT /reset-password)
func (c *Client) ResetPassword(ctx context.Context, email, password, resetToken string) error {
	body := map[string]string{"email": email, "password": password}
	if resetToken != "" {
		body["token"] = resetToken
	}
	return asAuthError(c.do(ctx, http.MethodPut, "/reset-password", nil, "", body, nil))
}
