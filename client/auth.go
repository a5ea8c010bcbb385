package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// Validation failures caught before any network call.
var (
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrNameTooShort     = errors.New("full name must be at least 2 characters")
)

// AuthService handles registration, login and the current account.
type AuthService struct {
	client *Client
}

// RegisterResult is the backend's registration acknowledgement.
type RegisterResult struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// Register creates an account. Password and name length are validated
// locally first, so obviously bad input never reaches the network.
func (s *AuthService) Register(ctx context.Context, fullName, email, password string) (*RegisterResult, error) {
	if len(password) < 6 {
		return nil, ErrPasswordTooShort
	}
	if len(fullName) < 2 {
		return nil, ErrNameTooShort
	}

	body := map[string]string{
		"full_name": fullName,
		"email":     email,
		"password":  password,
	}
	var result RegisterResult
	if err := s.client.post(ctx, "/auth/register", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a bearer token. It does not install the
// token on the client; Session.Login does that once the token has been
// validated.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{
		"username": {email},
		"password": {password},
	}
	var result tokenResponse
	if err := s.client.postForm(ctx, "/auth/login", form, &result); err != nil {
		return "", err
	}
	return result.AccessToken, nil
}

// Me returns the account behind the client's current token.
func (s *AuthService) Me(ctx context.Context) (*User, error) {
	return s.meWithToken(ctx, "")
}

func (s *AuthService) meWithToken(ctx context.Context, token string) (*User, error) {
	var user User
	if err := s.client.doRequest(ctx, http.MethodGet, "/auth/me", nil, &user, token); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateName changes the account's display name.
func (s *AuthService) UpdateName(ctx context.Context, fullName string) (*User, error) {
	if len(fullName) < 2 {
		return nil, ErrNameTooShort
	}
	var user User
	if err := s.client.put(ctx, "/auth/me", map[string]string{"full_name": fullName}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Verify confirms an email address with the token from the verification
// mail.
func (s *AuthService) Verify(ctx context.Context, token string) error {
	return s.client.get(ctx, "/auth/verify/"+url.PathEscape(token), nil)
}
