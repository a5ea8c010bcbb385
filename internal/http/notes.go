package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"slnotes/internal/model"
	"slnotes/internal/repository"
)

type noteResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"content_html,omitempty"`
	SubjectID   int64     `json:"subject_id"`
	Topic       *string   `json:"topic"`
	AuthorID    int64     `json:"author_id"`
	FileURL     *string   `json:"file_url"`
	IsPublished bool      `json:"is_published"`
	ViewCount   int64     `json:"view_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toNoteResponse(note model.Note) noteResponse {
	return noteResponse{
		ID:          note.ID,
		Title:       note.Title,
		Content:     note.Content,
		SubjectID:   note.SubjectID,
		Topic:       note.Topic,
		AuthorID:    note.AuthorID,
		FileURL:     note.FileURL,
		IsPublished: note.IsPublished,
		ViewCount:   note.ViewCount,
		CreatedAt:   note.CreatedAt,
		UpdatedAt:   note.UpdatedAt,
	}
}

func toNoteResponses(notes []model.Note) []noteResponse {
	out := make([]noteResponse, 0, len(notes))
	for _, note := range notes {
		out = append(out, toNoteResponse(note))
	}
	return out
}

func queryInt(r *http.Request, name string, fallback int) int {
	if val := r.URL.Query().Get(name); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func queryInt64Ptr(r *http.Request, name string) *int64 {
	if val := r.URL.Query().Get(name); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return &parsed
		}
	}
	return nil
}

func queryStrPtr(r *http.Request, name string) *string {
	if val := r.URL.Query().Get(name); val != "" {
		return &val
	}
	return nil
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	filter := repository.NoteFilter{
		SubjectID:     queryInt64Ptr(r, "subject_id"),
		ExamType:      queryStrPtr(r, "exam_type"),
		Topic:         queryStrPtr(r, "topic"),
		PublishedOnly: r.URL.Query().Get("published_only") != "false",
		Page:          queryInt(r, "page", 1),
		PerPage:       queryInt(r, "per_page", 12),
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 || filter.PerPage > 100 {
		filter.PerPage = 12
	}

	notes, total, err := s.store.ListNotes(r.Context(), filter)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"notes":    toNoteResponses(notes),
		"total":    total,
		"page":     filter.Page,
		"per_page": filter.PerPage,
	})
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "noteID")
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Note not found")
		return
	}

	note, err := s.store.GetNoteIncrementingViews(r.Context(), noteID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeDetail(w, http.StatusNotFound, "Note not found")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := toNoteResponse(note)
	resp.ContentHTML = s.renderer.Render(note.Content)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMyNotes(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	notes, err := s.store.NotesByAuthor(r.Context(), user.ID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponses(notes))
}

type noteRequest struct {
	Title     string  `json:"title" validate:"required,min=3"`
	Content   string  `json:"content" validate:"required,min=10"`
	SubjectID int64   `json:"subject_id" validate:"required"`
	Topic     *string `json:"topic"`
	FileURL   *string `json:"file_url"`
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid note data")
		return
	}

	if _, err := s.store.GetSubject(r.Context(), req.SubjectID); err != nil {
		writeDetail(w, http.StatusBadRequest, "Subject not found")
		return
	}

	note, err := s.store.CreateNote(r.Context(), req.Title, req.Content, req.SubjectID, req.Topic, user.ID, req.FileURL)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, toNoteResponse(note))
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	noteID, err := pathID(r, "noteID")
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Note not found")
		return
	}

	note, err := s.store.GetNote(r.Context(), noteID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeDetail(w, http.StatusNotFound, "Note not found")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if note.AuthorID != user.ID && !user.IsAdmin {
		writeDetail(w, http.StatusForbidden, "Not authorized to edit this note")
		return
	}

	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid note data")
		return
	}
	if _, err := s.store.GetSubject(r.Context(), req.SubjectID); err != nil {
		writeDetail(w, http.StatusBadRequest, "Subject not found")
		return
	}

	updated, err := s.store.UpdateNote(r.Context(), noteID, req.Title, req.Content, req.SubjectID, req.Topic, req.FileURL)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(updated))
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	noteID, err := pathID(r, "noteID")
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Note not found")
		return
	}

	note, err := s.store.GetNote(r.Context(), noteID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeDetail(w, http.StatusNotFound, "Note not found")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if note.AuthorID != user.ID && !user.IsAdmin {
		writeDetail(w, http.StatusForbidden, "Not authorized to delete this note")
		return
	}

	if _, err := s.store.DeleteNote(r.Context(), noteID); err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted"})
}
