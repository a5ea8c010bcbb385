package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"slnotes/internal/model"
)

type subjectResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ExamType    string    `json:"exam_type"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func toSubjectResponse(subject model.Subject) subjectResponse {
	return subjectResponse{
		ID:          subject.ID,
		Name:        subject.Name,
		ExamType:    subject.ExamType,
		Description: subject.Description,
		IsActive:    subject.IsActive,
		CreatedAt:   subject.CreatedAt,
	}
}

func toSubjectResponses(subjects []model.Subject) []subjectResponse {
	out := make([]subjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		out = append(out, toSubjectResponse(subject))
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active_only") != "false"
	subjects, err := s.store.ListSubjects(r.Context(), queryStrPtr(r, "exam_type"), activeOnly)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toSubjectResponses(subjects))
}

func (s *Server) handleGetSubject(w http.ResponseWriter, r *http.Request) {
	subjectID, err := pathID(r, "subjectID")
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Subject not found")
		return
	}
	subject, err := s.store.GetSubject(r.Context(), subjectID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeDetail(w, http.StatusNotFound, "Subject not found")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toSubjectResponse(subject))
}

type subjectRequest struct {
	Name        string  `json:"name" validate:"required,min=2"`
	ExamType    string  `json:"exam_type" validate:"required"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (s *Server) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid subject data")
		return
	}

	subject, err := s.store.CreateSubject(r.Context(), req.Name, req.ExamType, req.Description)
	if isUniqueViolation(err) {
		writeDetail(w, http.StatusBadRequest, "Subject already exists for this exam type")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, toSubjectResponse(subject))
}

func (s *Server) handleUpdateSubject(w http.ResponseWriter, r *http.Request) {
	subjectID, err := pathID(r, "subjectID")
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Subject not found")
		return
	}

	var req subjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid subject data")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	subject, err := s.store.UpdateSubject(r.Context(), subjectID, req.Name, req.ExamType, req.Description, isActive)
	if errors.Is(err, pgx.ErrNoRows) {
		writeDetail(w, http.StatusNotFound, "Subject not found")
		return
	}
	if isUniqueViolation(err) {
		writeDetail(w, http.StatusBadRequest, "Subject already exists for this exam type")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toSubjectResponse(subject))
}

func (s *Server) handleDeleteSubject(w http.ResponseWriter, r *http.Request) {
	subjectID, err := pathID(r, "subjectID")
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Subject not found")
		return
	}
	deleted, err := s.store.DeleteSubject(r.Context(), subjectID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !deleted {
		writeDetail(w, http.StatusNotFound, "Subject not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Subject deleted"})
}
