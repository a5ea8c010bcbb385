package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
)

func authServer(t *testing.T, validToken string, requests *atomic.Int64) *Client {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/auth/login":
			if err := r.ParseForm(); err != nil {
				t.Fatalf("parse form: %v", err)
			}
			if r.PostFormValue("username") == "student@example.lk" && r.PostFormValue("password") == "secret123" {
				json.NewEncoder(w).Encode(map[string]string{"access_token": validToken, "token_type": "bearer"})
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect email or password"})
		case r.Method == http.MethodGet && r.URL.Path == "/auth/me":
			if r.Header.Get("Authorization") == "Bearer "+validToken {
				json.NewEncoder(w).Encode(map[string]any{"id": 1, "full_name": "Student", "email": "student@example.lk"})
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	return c
}

func TestBootstrapNoToken(t *testing.T) {
	c := authServer(t, "tok-valid", nil)
	session := NewSession(c, &MemoryTokenStore{})

	if session.State() != StateUnknown {
		t.Fatalf("expected unknown before bootstrap, got %v", session.State())
	}
	if err := session.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if session.State() != StateAnonymous {
		t.Errorf("expected anonymous, got %v", session.State())
	}
}

func TestBootstrapValidToken(t *testing.T) {
	c := authServer(t, "tok-valid", nil)
	store := &MemoryTokenStore{}
	store.Save("tok-valid")
	session := NewSession(c, store)

	if err := session.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if session.State() != StateAuthenticated {
		t.Errorf("expected authenticated, got %v", session.State())
	}
	user := session.CurrentUser()
	if user == nil || user.Email != "student@example.lk" {
		t.Errorf("unexpected user: %+v", user)
	}
	if c.Token() != "tok-valid" {
		t.Errorf("expected token installed on client, got %q", c.Token())
	}
}

func TestBootstrapRejectedTokenClearsStore(t *testing.T) {
	c := authServer(t, "tok-valid", nil)
	store := &MemoryTokenStore{}
	store.Save("tok-stale")
	session := NewSession(c, store)

	if err := session.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap must not fail on rejection: %v", err)
	}
	if session.State() != StateAnonymous {
		t.Errorf("expected anonymous, got %v", session.State())
	}
	if persisted, _ := store.Load(); persisted != "" {
		t.Errorf("expected stale token cleared, still have %q", persisted)
	}
	if c.Token() != "" {
		t.Errorf("expected no token on client, got %q", c.Token())
	}
}

func TestLoginTransitionsAndPersists(t *testing.T) {
	c := authServer(t, "tok-valid", nil)
	store := &MemoryTokenStore{}
	session := NewSession(c, store)
	session.Bootstrap(context.Background())

	user, err := session.Login(context.Background(), "student@example.lk", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Email != "student@example.lk" {
		t.Errorf("unexpected user: %+v", user)
	}
	if session.State() != StateAuthenticated {
		t.Errorf("expected authenticated, got %v", session.State())
	}
	if persisted, _ := store.Load(); persisted != "tok-valid" {
		t.Errorf("expected token persisted, got %q", persisted)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	c := authServer(t, "tok-valid", nil)
	store := &MemoryTokenStore{}
	session := NewSession(c, store)
	session.Bootstrap(context.Background())

	_, err := session.Login(context.Background(), "student@example.lk", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsAuth(err) {
		t.Errorf("expected auth error, got %v", err)
	}
	if session.State() != StateAnonymous {
		t.Errorf("expected anonymous after failed login, got %v", session.State())
	}
	if persisted, _ := store.Load(); persisted != "" {
		t.Errorf("expected nothing persisted, got %q", persisted)
	}
}

// A token that authenticates the login call but fails the profile fetch
// must not be persisted.
func TestLoginDoesNotPersistHalfCommittedToken(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-broken", "token_type": "bearer"})
		case "/auth/me":
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
		}
	})
	store := &MemoryTokenStore{}
	session := NewSession(c, store)

	_, err := session.Login(context.Background(), "student@example.lk", "secret123")
	if err == nil {
		t.Fatal("expected error")
	}
	if persisted, _ := store.Load(); persisted != "" {
		t.Errorf("half-committed token was persisted: %q", persisted)
	}
	if c.Token() != "" {
		t.Errorf("half-committed token installed on client: %q", c.Token())
	}
}

func TestLogout(t *testing.T) {
	c := authServer(t, "tok-valid", nil)
	store := &MemoryTokenStore{}
	store.Save("tok-valid")
	session := NewSession(c, store)
	session.Bootstrap(context.Background())

	if err := session.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if session.State() != StateAnonymous {
		t.Errorf("expected anonymous, got %v", session.State())
	}
	if persisted, _ := store.Load(); persisted != "" {
		t.Errorf("expected token cleared, got %q", persisted)
	}
	if session.CurrentUser() != nil {
		t.Error("expected no current user")
	}
}

func TestRegisterValidatesBeforeNetwork(t *testing.T) {
	var requests atomic.Int64
	c := authServer(t, "tok-valid", &requests)
	session := NewSession(c, &MemoryTokenStore{})

	_, err := session.Register(context.Background(), "Student", "student@example.lk", "short")
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}

	_, err = session.Register(context.Background(), "S", "student@example.lk", "secret123")
	if !errors.Is(err, ErrNameTooShort) {
		t.Fatalf("expected ErrNameTooShort, got %v", err)
	}

	if requests.Load() != 0 {
		t.Errorf("expected no network calls, saw %d", requests.Load())
	}
}

func TestRegisterDoesNotChangeState(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/register" {
			t.Errorf("unexpected request %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"message": "Registration successful. Please check your email to verify your account.",
			"detail":  "A verification link has been sent to new@example.lk",
		})
	})
	store := &MemoryTokenStore{}
	session := NewSession(c, store)
	session.Bootstrap(context.Background())

	result, err := session.Register(context.Background(), "New Student", "new@example.lk", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.Message == "" {
		t.Error("expected backend message")
	}
	if result.Detail == "" {
		t.Error("expected backend detail")
	}
	if session.State() != StateAnonymous {
		t.Errorf("register must not change state, got %v", session.State())
	}
	if persisted, _ := store.Load(); persisted != "" {
		t.Errorf("register must not persist a token, got %q", persisted)
	}
}

func TestFileTokenStore(t *testing.T) {
	store := NewFileTokenStore(t.TempDir() + "/nested/token")

	if token, err := store.Load(); err != nil || token != "" {
		t.Fatalf("expected empty load, got %q, %v", token, err)
	}
	if err := store.Save("tok-abc"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if token, _ := store.Load(); token != "tok-abc" {
		t.Fatalf("expected tok-abc, got %q", token)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if token, _ := store.Load(); token != "" {
		t.Fatalf("expected cleared, got %q", token)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear on missing file: %v", err)
	}
}
