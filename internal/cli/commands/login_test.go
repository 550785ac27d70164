package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/campushire/campushire/internal/cli/auth"
	"github.com/campushire/campushire/internal/cli/config"
)

const testToken = "tok-123"

// mockAPIServer answers the campushire auth endpoints for one known account
func mockAPIServer(t *testing.T, email, password string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Email != email || req.Password != password {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"message":"Invalid email or password"}`))
			return
		}
		w.Write([]byte(`{"success":true,"data":{"token":"` + testToken + `","user":{"id":"u1","name":"Sam","email":"` + email + `","role":"student","isVerified":false,"isBlocked":false}}}`))
	})
	mux.HandleFunc("POST /api/register", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.FormValue("email") == email {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"success":false,"message":"Email already registered"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		if r.FormValue("role") == "recruiter" {
			w.Write([]byte(`{"success":true,"data":{"token":"` + testToken + `","user":{"id":"r1","name":"Rita","email":"rita@acme.test","role":"recruiter","isVerified":true}}}`))
			return
		}
		w.Write([]byte(`{"success":true,"message":"Registration successful. Your account is pending verification."}`))
	})
	mux.HandleFunc("GET /api/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"message":"Invalid or expired token"}`))
			return
		}
		w.Write([]byte(`{"success":true,"data":{"user":{"id":"u1","name":"Sam","email":"` + email + `","role":"student","isVerified":true}}}`))
	})
	mux.HandleFunc("POST /api/echo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	})
	mux.HandleFunc("GET /api/revoked", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// testEnv builds the options every command test shares
func testEnv(srv *httptest.Server, store auth.Store, out io.Writer) []Option {
	return []Option{
		WithServer(&config.Server{URL: srv.URL + "/api", Alias: "test"}),
		WithStore(store),
		WithOutput(out),
		WithInput(strings.NewReader("")),
	}
}

func storedToken(t *testing.T, store auth.Store) string {
	t.Helper()
	token, err := store.Get(context.Background(), auth.TokenKey)
	if err != nil {
		return ""
	}
	return token
}

func TestLoginCommand_SuccessfulLogin(t *testing.T) {
	srv := mockAPIServer(t, "sam@uni.edu", "secret")
	store := auth.NewMemoryStore()
	var out bytes.Buffer

	if err := runLogin(context.Background(), "sam@uni.edu", "secret", testEnv(srv, store, &out)...); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if got := storedToken(t, store); got != testToken {
		t.Errorf("expected stored token %q, got %q", testToken, got)
	}
	for _, want := range []string{"✓ Login successful!", "Role: Student", "pending verification"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestLoginCommand_InvalidCredentials(t *testing.T) {
	srv := mockAPIServer(t, "sam@uni.edu", "secret")
	store := auth.NewMemoryStore()

	err := runLogin(context.Background(), "sam@uni.edu", "wrong", testEnv(srv, store, io.Discard)...)
	if err == nil {
		t.Fatal("expected error for invalid credentials")
	}
	if !strings.Contains(err.Error(), "Invalid email or password") {
		t.Errorf("expected server message in error, got: %v", err)
	}
	if got := storedToken(t, store); got != "" {
		t.Errorf("no token should be stored, got %q", got)
	}
}

func TestLoginCommand_MissingEmail(t *testing.T) {
	t.Setenv("CAMPUSHIRE_EMAIL", "")

	err := runLogin(context.Background(), "", "secret")
	if err == nil || !strings.Contains(err.Error(), "email is required") {
		t.Fatalf("expected email required error, got %v", err)
	}
}

func TestLoginCommand_EnvVarCredentials(t *testing.T) {
	srv := mockAPIServer(t, "env@uni.edu", "envpass")
	store := auth.NewMemoryStore()

	t.Setenv("CAMPUSHIRE_EMAIL", "env@uni.edu")
	t.Setenv("CAMPUSHIRE_PASSWORD", "envpass")

	if err := runLogin(context.Background(), "", "", testEnv(srv, store, io.Discard)...); err != nil {
		t.Fatalf("login with env vars failed: %v", err)
	}
	if got := storedToken(t, store); got != testToken {
		t.Errorf("expected stored token %q, got %q", testToken, got)
	}
}

func TestLoginCommand_PasswordFromInput(t *testing.T) {
	srv := mockAPIServer(t, "sam@uni.edu", "piped")
	store := auth.NewMemoryStore()
	t.Setenv("CAMPUSHIRE_PASSWORD", "")

	opts := append(testEnv(srv, store, io.Discard), WithInput(strings.NewReader("piped\n")))
	if err := runLogin(context.Background(), "sam@uni.edu", "", opts...); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if got := storedToken(t, store); got != testToken {
		t.Errorf("expected stored token %q, got %q", testToken, got)
	}
}

func TestLoginCommand_NoConfigFile(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HOME", t.TempDir())

	err := runLogin(context.Background(), "sam@uni.edu", "secret", WithStore(auth.NewMemoryStore()), WithOutput(io.Discard))
	if err == nil || !strings.Contains(err.Error(), "campushire init") {
		t.Fatalf("expected missing config error, got %v", err)
	}
}

func TestLoginCommand_ServerFromConfig(t *testing.T) {
	srv := mockAPIServer(t, "sam@uni.edu", "secret")
	tempDir := chdirTemp(t)
	t.Setenv("HOME", t.TempDir())

	cfg := &config.Config{Servers: []config.Server{
		{URL: "http://127.0.0.1:1/api", Alias: "other"},
		{URL: srv.URL + "/api", Alias: "local"},
	}}
	if err := config.Save(filepath.Join(tempDir, config.ConfigFileName), cfg); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	store := auth.NewMemoryStore()
	var out bytes.Buffer
	err := runLogin(context.Background(), "sam@uni.edu", "secret",
		WithServerAlias("local"), WithStore(store), WithOutput(&out))
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !strings.Contains(out.String(), "Logging in to local") {
		t.Errorf("expected the aliased server to be used:\n%s", out.String())
	}
}

func TestLoginCommand_ReplacesExpiredSession(t *testing.T) {
	srv := mockAPIServer(t, "sam@uni.edu", "secret")
	store := auth.NewMemoryStore()
	store.Set(context.Background(), auth.TokenKey, "expired")

	if err := runLogin(context.Background(), "sam@uni.edu", "secret", testEnv(srv, store, io.Discard)...); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if got := storedToken(t, store); got != testToken {
		t.Errorf("expected stored token %q, got %q", testToken, got)
	}
}

func TestLogoutCommand(t *testing.T) {
	srv := mockAPIServer(t, "sam@uni.edu", "secret")
	store := auth.NewMemoryStore()
	store.Set(context.Background(), auth.TokenKey, testToken)

	var out bytes.Buffer
	if err := runLogout(testEnv(srv, store, &out)...); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if got := storedToken(t, store); got != "" {
		t.Errorf("token should be cleared, got %q", got)
	}
	if !strings.Contains(out.String(), "Logged out of test") {
		t.Errorf("unexpected output: %s", out.String())
	}

	// Logging out twice is fine
	if err := runLogout(testEnv(srv, store, io.Discard)...); err != nil {
		t.Fatalf("second logout failed: %v", err)
	}
}

func TestWhoamiCommand(t *testing.T) {
	srv := mockAPIServer(t, "sam@uni.edu", "secret")
	store := auth.NewMemoryStore()
	store.Set(context.Background(), auth.TokenKey, testToken)

	var out bytes.Buffer
	if err := runWhoami(context.Background(), testEnv(srv, store, &out)...); err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	for _, want := range []string{"sam@uni.edu", "Student", "VERIFIED", "true"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestWhoamiCommand_NotLoggedIn(t *testing.T) {
	srv := mockAPIServer(t, "sam@uni.edu", "secret")

	err := runWhoami(context.Background(), testEnv(srv, auth.NewMemoryStore(), io.Discard)...)
	if err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Fatalf("expected not logged in error, got %v", err)
	}
}

func TestWhoamiCommand_ExpiredTokenIsCleared(t *testing.T) {
	srv := mockAPIServer(t, "sam@uni.edu", "secret")
	store := auth.NewMemoryStore()
	store.Set(context.Background(), auth.TokenKey, "expired")

	if err := runWhoami(context.Background(), testEnv(srv, store, io.Discard)...); err == nil {
		t.Fatal("expected error for expired session")
	}
	if got := storedToken(t, store); got != "" {
		t.Errorf("expired token should be cleared, got %q", got)
	}
}

func TestRegisterCommand_StudentPendingVerification(t *testing.T) {
	srv := mockAPIServer(t, "taken@uni.edu", "secret")
	store := auth.NewMemoryStore()

	card := filepath.Join(t.TempDir(), "card.png")
	if err := os.WriteFile(card, []byte("png"), 0600); err != nil {
		t.Fatalf("failed to write id card: %v", err)
	}

	flags := &registerFlags{
		name: "Sam", email: "sam@uni.edu", password: "secret1", role: "Student",
		department: "CSE", batch: "2022", idCard: card,
	}
	reg, err := flags.registration()
	if err != nil {
		t.Fatalf("failed to build registration: %v", err)
	}

	var out bytes.Buffer
	if err := runRegister(context.Background(), reg, testEnv(srv, store, &out)...); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !strings.Contains(out.String(), "pending verification") {
		t.Errorf("expected pending verification message:\n%s", out.String())
	}
	if got := storedToken(t, store); got != "" {
		t.Errorf("no session should start for students, got token %q", got)
	}
}

func TestRegisterCommand_RecruiterStartsSession(t *testing.T) {
	srv := mockAPIServer(t, "taken@uni.edu", "secret")
	store := auth.NewMemoryStore()

	flags := &registerFlags{
		name: "Rita", email: "rita@acme.test", password: "secret1", role: "recruiter",
		company: "Acme", jobTitle: "Talent Lead",
	}
	reg, err := flags.registration()
	if err != nil {
		t.Fatalf("failed to build registration: %v", err)
	}

	var out bytes.Buffer
	if err := runRegister(context.Background(), reg, testEnv(srv, store, &out)...); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !strings.Contains(out.String(), "You are now logged in") {
		t.Errorf("expected logged in message:\n%s", out.String())
	}
	if got := storedToken(t, store); got != testToken {
		t.Errorf("expected stored token %q, got %q", testToken, got)
	}
}

func TestRegisterCommand_Duplicate(t *testing.T) {
	srv := mockAPIServer(t, "taken@uni.edu", "secret")

	flags := &registerFlags{
		name: "Rita", email: "taken@uni.edu", password: "secret1", role: "recruiter",
		company: "Acme", jobTitle: "Talent Lead",
	}
	reg, err := flags.registration()
	if err != nil {
		t.Fatalf("failed to build registration: %v", err)
	}

	err = runRegister(context.Background(), reg, testEnv(srv, auth.NewMemoryStore(), io.Discard)...)
	if err == nil || !strings.Contains(err.Error(), "Email already registered") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestRegisterCommand_RejectsAdmin(t *testing.T) {
	flags := &registerFlags{email: "root@uni.edu", password: "x", role: "admin"}
	reg, err := flags.registration()
	if err != nil {
		t.Fatalf("failed to build registration: %v", err)
	}

	if err := runRegister(context.Background(), reg); err == nil {
		t.Fatal("expected admin self-registration to be rejected")
	}
}

func TestAPICommand(t *testing.T) {
	srv := mockAPIServer(t, "sam@uni.edu", "secret")
	store := auth.NewMemoryStore()
	store.Set(context.Background(), auth.TokenKey, testToken)

	var out bytes.Buffer
	if err := runAPI(context.Background(), "post", "echo", `{"a":1}`, testEnv(srv, store, &out)...); err != nil {
		t.Fatalf("api failed: %v", err)
	}
	if out.String() != "{\n  \"a\": 1\n}\n" {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestAPICommand_UnauthorizedLogsOut(t *testing.T) {
	srv := mockAPIServer(t, "sam@uni.edu", "secret")
	store := auth.NewMemoryStore()
	store.Set(context.Background(), auth.TokenKey, testToken)

	err := runAPI(context.Background(), "GET", "/revoked", "", testEnv(srv, store, io.Discard)...)
	if err == nil || !strings.Contains(err.Error(), "session expired") {
		t.Fatalf("expected session expired error, got %v", err)
	}
	if got := storedToken(t, store); got != "" {
		t.Errorf("token should be cleared after 401, got %q", got)
	}
}

func TestAPICommand_InvalidInput(t *testing.T) {
	if err := runAPI(context.Background(), "TRACE", "/me", ""); err == nil {
		t.Error("expected unsupported method error")
	}
	if err := runAPI(context.Background(), "POST", "/me", "{not json"); err == nil {
		t.Error("expected invalid JSON error")
	}
}
