package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"slnotes/internal/auth"
	"slnotes/internal/crypto"
	"slnotes/internal/model"
)

type userResponse struct {
	ID         int64     `json:"id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
	IsAdmin    bool      `json:"is_admin"`
	CreatedAt  time.Time `json:"created_at"`
}

func toUserResponse(user model.User) userResponse {
	return userResponse{
		ID:         user.ID,
		FullName:   user.FullName,
		Email:      user.Email,
		IsVerified: user.IsVerified,
		IsAdmin:    user.IsAdmin,
		CreatedAt:  user.CreatedAt,
	}
}

type registerRequest struct {
	FullName string `json:"full_name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid registration data")
		return
	}

	if _, err := s.store.GetUserByEmail(r.Context(), req.Email); err == nil {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	token := crypto.NewVerificationToken()
	user, err := s.store.CreateUser(r.Context(), req.FullName, req.Email, hash, token)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Mail failure must not fail registration.
	verifyURL := fmt.Sprintf("%s/auth/verify/%s", s.cfg.FrontendURL, token)
	if err := s.mailer.SendVerification(user.Email, user.FullName, verifyURL); err != nil {
		s.logger.Error("verification mail failed", "email", user.Email, "error", err)
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Registration successful. Please check your email to verify your account.",
		"detail":  "A verification link has been sent to " + user.Email,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	email := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := s.store.GetUserByEmail(r.Context(), email)
	if err != nil || crypto.CheckPassword(user.PasswordHash, password) != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	if !user.IsVerified {
		writeDetail(w, http.StatusForbidden, "Please verify your email before logging in")
		return
	}

	token, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, user.ID, user.Email)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	user, err := s.store.GetUserByVerificationToken(r.Context(), token)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Invalid verification token")
		return
	}
	if err := s.store.MarkUserVerified(r.Context(), user.ID); err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Email verified successfully"})
}

// currentUser resolves the authenticated user from the request claims,
// writing the error response itself when that fails.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (model.User, bool) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return model.User{}, false
	}
	userID, err := claims.UserID()
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return model.User{}, false
	}
	user, err := s.store.GetUserByID(r.Context(), userID)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return model.User{}, false
	}
	return user, true
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

type updateMeRequest struct {
	FullName string `json:"full_name" validate:"required,min=2"`
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	var req updateMeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Name must be at least 2 characters")
		return
	}

	updated, err := s.store.UpdateUserName(r.Context(), user.ID, req.FullName)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(updated))
}
