// Package backend is the HTTP adapter for the task-management REST API.
//
// Every call that acts on behalf of a user carries "Authorization: Bearer <token>".
// Responses are wrapped as {"data": ...}; failures carry {"message": "..."}.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/you/taskconsole/domain"
)

// Client implements domain.AuthAPI, domain.UserAPI and domain.TaskAPI
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a backend client rooted at baseURL
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: scheme and host required", baseURL)
	}
	return &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default().With("module", "backend"),
	}, nil
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// do issues one request and decodes the data envelope into out (when non-nil)
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, body, out interface{}) error {
	u := *c.baseURL
	u.Path = u.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "backend call failed", "operation", method+" "+path, "outcome", "failure", "error", err)
		return domain.NewTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return domain.NewTransportError(err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 500 {
		c.logger.WarnContext(ctx, "backend call failed", "operation", method+" "+path, "outcome", "failure", "status_code", resp.StatusCode)
		return domain.NewTransportError(fmt.Errorf("backend status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &domain.APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if decodeErr != nil {
		return domain.NewTransportError(fmt.Errorf("unreadable backend response: %w", decodeErr))
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return domain.NewTransportError(fmt.Errorf("unexpected backend payload: %w", err))
	}
	return nil
}

// asAuthError turns a structured backend rejection into an AuthError
func asAuthError(err error) error {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return domain.NewAuthError(apiErr.Message, apiErr)
	}
	return err
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func setBool(q url.Values, key string, value *bool) {
	if value != nil {
		q.Set(key, fmt.Sprintf("%t", *value))
	}
}

func setPage(q url.Values, p domain.Page) {
	p = p.Normalize()
	q.Set("limit", fmt.Sprintf("%d", p.Limit))
	q.Set("page", fmt.Sprintf("%d", p.Page))
}
