package http

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"slnotes/internal/storage"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadSize); err != nil {
		writeDetail(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	if header.Size > s.cfg.MaxUploadSize {
		writeDetail(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	name, err := s.uploads.Save(header.Filename, file)
	if errors.Is(err, storage.ErrUnsupportedType) {
		writeDetail(w, http.StatusBadRequest, "File type not allowed")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	fileURL := "/uploads/" + name

	// Optionally attach the upload to a note the caller owns. A missing or
	// foreign note is skipped, not an error.
	if noteID := queryInt64Ptr(r, "note_id"); noteID != nil {
		note, err := s.store.GetNote(r.Context(), *noteID)
		if err == nil && note.AuthorID == user.ID {
			if err := s.store.SetNoteFileURL(r.Context(), note.ID, fileURL); err != nil {
				writeDetail(w, http.StatusInternalServerError, "Internal server error")
				return
			}
		}
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"file_url": fileURL,
		"filename": name,
	})
}

func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	filename := filepath.Base(chi.URLParam(r, "filename"))

	inUse, err := s.store.FileURLInUse(r.Context(), "/uploads/"+filename)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if inUse {
		writeDetail(w, http.StatusBadRequest, "File is still referenced by a note")
		return
	}

	if err := s.uploads.Delete(filename); err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "File deleted"})
}

func (s *Server) handleServeUpload(w http.ResponseWriter, r *http.Request) {
	filename := filepath.Base(chi.URLParam(r, "filename"))
	http.ServeFile(w, r, filepath.Join(s.uploads.Dir(), filename))
}
