package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/you/taskconsole/domain"
)

// ListUsers implements domain.UserAPI
func (c *Client) ListUsers(ctx context.Context, token string, f domain.UserFilter) ([]domain.User, error) {
	q := url.Values{}
	setIf(q, "firstName", f.FirstName)
	setIf(q, "lastName", f.LastName)
	setIf(q, "role", f.Role)
	setIf(q, "address", f.Address)
	setBool(q, "status", f.Status)
	setPage(q, f.Page)

	var users []domain.User
	if err := c.do(ctx, http.MethodGet, "/users", q, token, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListUserNames implements domain.UserAPI; it feeds the task assignee dropdown
func (c *Client) ListUserNames(ctx context.Context, token string) ([]domain.User, error) {
	var users []domain.User
	if err := c.do(ctx, http.MethodGet, "/users/all-ie", nil, token, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser implements domain.UserAPI
func (c *Client) CreateUser(ctx context.Context, token string, input domain.UserInput) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodPost, "/users", nil, token, input, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser implements domain.UserAPI. The backend identifies the user by userId in the body.
func (c *Client) UpdateUser(ctx context.Context, token string, input domain.UserInput) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodPut, "/users", nil, token, input, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser implements domain.UserAPI
func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	q := url.Values{}
	q.Set("id", id)
	return c.do(ctx, http.MethodDelete, "/users", q, token, nil, nil)
}
