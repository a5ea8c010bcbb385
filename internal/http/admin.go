package http

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
)

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"total_users":     stats.TotalUsers,
		"verified_users":  stats.VerifiedUsers,
		"total_notes":     stats.TotalNotes,
		"published_notes": stats.PublishedNotes,
		"total_subjects":  stats.TotalSubjects,
		"total_views":     stats.TotalViews,
	})
}

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, user := range users {
		out = append(out, toUserResponse(user))
	}
	writeJSON(w, http.StatusOK, out)
}

// Absent fields leave the corresponding flag untouched.
type adminUpdateUserRequest struct {
	IsVerified *bool `json:"is_verified"`
	IsAdmin    *bool `json:"is_admin"`
}

func (s *Server) handleAdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}

	var req adminUpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.store.UpdateUserFlags(r.Context(), userID, req.IsVerified, req.IsAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if userID == admin.ID {
		writeDetail(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	deleted, err := s.store.DeleteUser(r.Context(), userID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !deleted {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

func (s *Server) handleAdminListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.store.AllNotes(r.Context())
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponses(notes))
}

func (s *Server) handleAdminTogglePublish(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "noteID")
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Note not found")
		return
	}

	published, err := s.store.TogglePublish(r.Context(), noteID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeDetail(w, http.StatusNotFound, "Note not found")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           noteID,
		"is_published": published,
	})
}
