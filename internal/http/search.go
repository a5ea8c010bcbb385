package http

import (
	"net/http"
	"strings"

	"slnotes/internal/repository"
)

func (s *Server) handleSearchNotes(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < 2 {
		writeDetail(w, http.StatusBadRequest, "Search query must be at least 2 characters")
		return
	}

	filter := repository.SearchFilter{
		SubjectID: queryInt64Ptr(r, "subject_id"),
		ExamType:  queryStrPtr(r, "exam_type"),
		Limit:     queryInt(r, "limit", 20),
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	notes, err := s.store.SearchNotes(r.Context(), query, filter)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": toNoteResponses(notes),
		"query":   query,
	})
}

func (s *Server) handleSearchSubjects(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < 2 {
		writeDetail(w, http.StatusBadRequest, "Search query must be at least 2 characters")
		return
	}

	subjects, err := s.store.SearchSubjects(r.Context(), query)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": toSubjectResponses(subjects),
		"query":   query,
	})
}
