package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Account is a backend user the fake backend accepts
type Account struct {
	ID       string
	Email    string
	Password string
	Role     string
	First    string
}

// Test fixtures
var (
	AdminAccount = Account{ID: "1", Email: "admin@example.com", Password: "AdminPass1", Role: "admin", First: "Ada"}
	UserAccount  = Account{ID: "2", Email: "user@x.com", Password: "secret1", Role: "user", First: "Una"}
)

// ValidOTP is the only code the fake backend accepts
const ValidOTP = "123456"

// FakeBackend is an in-process stand-in for the task management API
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	accounts map[string]*Account
	otpSent  map[string]int
}

// NewFakeBackend starts the fake API with the admin and user fixtures
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	admin, user := AdminAccount, UserAccount
	b := &FakeBackend{
		accounts: map[string]*Account{admin.Email: &admin, user.Email: &user},
		otpSent:  map[string]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", b.login)
	mux.HandleFunc("/api/otp/req", b.requestOTP)
	mux.HandleFunc("/api/otp/verify", b.verifyOTP)
	mux.HandleFunc("/api/reset-password", b.resetPassword)
	mux.HandleFunc("/api/tasks", b.tasks)
	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the API base the console is configured with
func (b *FakeBackend) URL() string {
	return b.Server.URL + "/api"
}

// OTPRequests returns how many codes were sent to email
func (b *FakeBackend) OTPRequests(email string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.otpSent[email]
}

func reply(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	acc, ok := b.accounts[body["email"]]
	b.mu.Unlock()
	if !ok || acc.Password != body["password"] {
		reply(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}
	reply(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"token": "token-" + acc.ID,
			"user":  map[string]string{"_id": acc.ID, "role": acc.Role, "firstName": acc.First, "email": acc.Email},
		},
	})
}

func (b *FakeBackend) requestOTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.otpSent[r.URL.Query().Get("email")]++
	b.mu.Unlock()
	reply(w, http.StatusOK, map[string]string{"message": "OTP sent"})
}

func (b *FakeBackend) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body["otp"] != ValidOTP {
		reply(w, http.StatusBadRequest, map[string]string{"message": "Invalid OTP"})
		return
	}
	reply(w, http.StatusOK, map[string]string{"message": "OTP verified"})
}

func (b *FakeBackend) resetPassword(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[body["email"]]
	if !ok {
		reply(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}
	acc.Password = body["password"]
	reply(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

func (b *FakeBackend) tasks(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !strings.HasPrefix(token, "token-") {
		reply(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}
	reply(w, http.StatusOK, map[string]interface{}{
		"data": []map[string]string{{"_id": "t1", "taskName": "Ship", "assignUser": strings.TrimPrefix(token, "token-")}},
	})
}
