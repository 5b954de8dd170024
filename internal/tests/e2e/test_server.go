package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"

	"github.com/you/taskconsole/internal/app"
	"github.com/you/taskconsole/internal/config"
)

// TestServer runs the fully wired console against miniredis and a fake backend
type TestServer struct {
	Server    *httptest.Server
	Backend   *FakeBackend
	Redis     *miniredis.Miniredis
	Container *app.Container
	Config    *config.Config
}

// TestConfig returns a serve configuration using redis sessions and flows
func TestConfig(backendURL, redisAddr string) *config.Config {
	return &config.Config{
		Port:              "0",
		GinMode:           gin.TestMode,
		BackendURL:        backendURL,
		BackendTimeout:    5 * time.Second,
		SessionDriver:     "redis",
		SessionTTL:        time.Hour,
		RedisAddr:         redisAddr,
		SlotSecret:        "e2e-slot-secret-0123456789",
		SlotIssuer:        "taskconsole",
		SlotTTL:           time.Hour,
		SlotCookie:        "console_slot",
		OTPLength:         6,
		OTPResendCooldown: 30 * time.Second,
		FlowDriver:        "redis",
		FlowTTL:           15 * time.Minute,
		Areas:             config.DefaultAreas(),
	}
}

// NewTestServer boots the console the way serve does, minus the listener
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := NewFakeBackend(t)
	mr := miniredis.RunT(t)
	cfg := TestConfig(backend.URL(), mr.Addr())
	if err := cfg.ValidateServe(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	c, err := app.NewContainer(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("Failed to build container: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	srv := httptest.NewServer(app.NewRouter(c))
	t.Cleanup(srv.Close)

	return &TestServer{Server: srv, Backend: backend, Redis: mr, Container: c, Config: cfg}
}

// Browser is one user agent with its own cookie jar
type Browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

// NewBrowser returns a browser that does not follow redirects
func (s *TestServer) NewBrowser(t *testing.T) *Browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &Browser{
		t:    t,
		base: s.Server.URL,
		client: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Response is a decoded console response
type Response struct {
	Status   int
	Location string
	Body     map[string]interface{}
	Header   http.Header
}

// Data returns the "data" object of a success body
func (r *Response) Data() map[string]interface{} {
	d, _ := r.Body["data"].(map[string]interface{})
	return d
}

// Do sends a JSON request and decodes the JSON reply if there is one
func (b *Browser) Do(method, path string, body interface{}) *Response {
	b.t.Helper()
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			b.t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, b.base+path, rdr)
	if err != nil {
		b.t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := &Response{Status: resp.StatusCode, Location: resp.Header.Get("Location"), Header: resp.Header}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out.Body)
	}
	return out
}

// Login signs the browser in and fails the test on anything but 200
func (b *Browser) Login(acc Account) *Response {
	b.t.Helper()
	resp := b.Do(http.MethodPost, "/auth/login", map[string]string{"email": acc.Email, "password": acc.Password})
	if resp.Status != http.StatusOK {
		b.t.Fatalf("login %s: status %d body %v", acc.Email, resp.Status, resp.Body)
	}
	return resp
}
