package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SessionState is the authentication lifecycle state.
type SessionState int

const (
	// StateUnknown is the state before Bootstrap has run.
	StateUnknown SessionState = iota
	// StateBootstrapping is the transient state while a persisted token is
	// being validated.
	StateBootstrapping
	// StateAuthenticated means a validated token and user are held.
	StateAuthenticated
	// StateAnonymous means no valid credentials are held.
	StateAnonymous
)

func (s SessionState) String() string {
	switch s {
	case StateBootstrapping:
		return "bootstrapping"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a file, created with owner-only
// permissions.
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// DefaultTokenStore stores the token under the user's config directory.
func DefaultTokenStore() (*FileTokenStore, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return NewFileTokenStore(filepath.Join(dir, "slnotes", "token")), nil
}

func (s *FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token), 0o600)
}

func (s *FileTokenStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemoryTokenStore holds the token in memory. Used in tests.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// Session drives the authentication state machine over a Client and a
// TokenStore. All methods are safe for concurrent use; the session is the
// single writer of the client's token.
type Session struct {
	client *Client
	store  TokenStore

	mu    sync.Mutex
	state SessionState
	user  *User
}

func NewSession(c *Client, store TokenStore) *Session {
	return &Session{
		client: c,
		store:  store,
		state:  StateUnknown,
	}
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentUser returns a copy of the authenticated user, or nil.
func (s *Session) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// Bootstrap resolves the initial state from the persisted token. No token
// means anonymous. A present token is validated against the backend; any
// failure clears it and lands in anonymous. Bootstrap never returns an
// error for a rejected token, only for a broken TokenStore.
func (s *Session) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.store.Load()
	if err != nil {
		s.state = StateAnonymous
		return err
	}
	if token == "" {
		s.state = StateAnonymous
		return nil
	}

	s.state = StateBootstrapping
	user, err := s.client.Auth.meWithToken(ctx, token)
	if err != nil {
		_ = s.store.Clear()
		s.client.SetToken("")
		s.state = StateAnonymous
		s.user = nil
		return nil
	}

	s.client.SetToken(token)
	s.user = user
	s.state = StateAuthenticated
	return nil
}

// Login authenticates and transitions to authenticated. The token is
// persisted only after both the login call and the profile fetch succeed,
// so a half-finished login never leaves a stale credential behind.
func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.client.Auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user, err := s.client.Auth.meWithToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(token); err != nil {
		return nil, err
	}
	s.client.SetToken(token)
	s.user = user
	s.state = StateAuthenticated

	userCopy := *user
	return &userCopy, nil
}

// Logout drops the credentials unconditionally. There is no server call and
// no failure mode beyond a broken TokenStore.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.Clear()
	s.client.SetToken("")
	s.user = nil
	s.state = StateAnonymous
	return err
}

// Register creates an account without changing the session state; the user
// still has to verify their email and log in.
func (s *Session) Register(ctx context.Context, fullName, email, password string) (*RegisterResult, error) {
	return s.client.Auth.Register(ctx, fullName, email, password)
}

// ErrNotAuthenticated is returned by operations that need a logged-in
// session.
var ErrNotAuthenticated = errors.New("not authenticated")

// RequireUser returns the authenticated user or ErrNotAuthenticated.
func (s *Session) RequireUser() (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticated || s.user == nil {
		return nil, ErrNotAuthenticated
	}
	user := *s.user
	return &user, nil
}
