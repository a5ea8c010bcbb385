package client

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// NotesService handles note browsing, search, authoring and file
// attachments.
type NotesService struct {
	client *Client
}

// ListNotesOptions filter a note listing. Zero values are omitted.
type ListNotesOptions struct {
	SubjectID int64
	ExamType  string
	Topic     string
	Page      int
	PerPage   int
}

// List fetches one page of published notes. Pages is derived as
// ceil(Total/PerPage) because the backend omits it.
func (s *NotesService) List(ctx context.Context, opts ListNotesOptions) (*NotePage, error) {
	query := url.Values{}
	if opts.SubjectID > 0 {
		query.Set("subject_id", strconv.FormatInt(opts.SubjectID, 10))
	}
	if opts.ExamType != "" {
		query.Set("exam_type", opts.ExamType)
	}
	if opts.Topic != "" {
		query.Set("topic", opts.Topic)
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(opts.PerPage))
	}

	path := "/notes"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page NotePage
	if err := s.client.get(ctx, path, &page); err != nil {
		return nil, err
	}
	page.Pages = derivePages(page.Total, page.PerPage)
	return &page, nil
}

// derivePages computes ceil(total/perPage), with at least one page for an
// empty listing.
func derivePages(total int64, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	if pages < 1 {
		return 1
	}
	return pages
}

// Get fetches a single note. The backend counts the view and renders
// ContentHTML.
func (s *NotesService) Get(ctx context.Context, id int64) (*Note, error) {
	var note Note
	if err := s.client.get(ctx, fmt.Sprintf("/notes/%d", id), &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// Mine lists the caller's own notes, published or not.
func (s *NotesService) Mine(ctx context.Context) ([]Note, error) {
	var notes []Note
	if err := s.client.get(ctx, "/notes/user/me", &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// NoteInput is the payload for creating or updating a note.
type NoteInput struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	SubjectID int64   `json:"subject_id"`
	Topic     *string `json:"topic,omitempty"`
	FileURL   *string `json:"file_url,omitempty"`
}

func (s *NotesService) Create(ctx context.Context, input NoteInput) (*Note, error) {
	var note Note
	if err := s.client.post(ctx, "/notes", input, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *NotesService) Update(ctx context.Context, id int64, input NoteInput) (*Note, error) {
	var note Note
	if err := s.client.put(ctx, fmt.Sprintf("/notes/%d", id), input, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *NotesService) Delete(ctx context.Context, id int64) error {
	return s.client.delete(ctx, fmt.Sprintf("/notes/%d", id), nil)
}

// SearchOptions narrow a note search.
type SearchOptions struct {
	SubjectID int64
	ExamType  string
	Limit     int
}

type searchResponse struct {
	Results []Note `json:"results"`
	Query   string `json:"query"`
}

// Search runs a server-side relevance search. The query string is URL
// encoded exactly once, by url.Values.
func (s *NotesService) Search(ctx context.Context, q string, opts SearchOptions) ([]Note, error) {
	query := url.Values{}
	query.Set("q", q)
	if opts.SubjectID > 0 {
		query.Set("subject_id", strconv.FormatInt(opts.SubjectID, 10))
	}
	if opts.ExamType != "" {
		query.Set("exam_type", opts.ExamType)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}

	var resp searchResponse
	if err := s.client.get(ctx, "/search?"+query.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

type uploadResponse struct {
	FileURL  string `json:"file_url"`
	Filename string `json:"filename"`
}

// Upload stores a file attachment and returns its URL.
func (s *NotesService) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	var resp uploadResponse
	if err := s.client.postMultipart(ctx, "/upload", filename, file, &resp); err != nil {
		return "", err
	}
	return resp.FileURL, nil
}

// UploadToNote stores a file attachment and points an existing owned note
// at it in the same request.
func (s *NotesService) UploadToNote(ctx context.Context, noteID int64, filename string, file io.Reader) (string, error) {
	var resp uploadResponse
	path := fmt.Sprintf("/upload?note_id=%d", noteID)
	if err := s.client.postMultipart(ctx, path, filename, file, &resp); err != nil {
		return "", err
	}
	return resp.FileURL, nil
}

// DeleteFile removes an uploaded file by its URL or bare filename.
func (s *NotesService) DeleteFile(ctx context.Context, fileURL string) error {
	name := fileURL
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	return s.client.delete(ctx, "/upload/"+url.PathEscape(name), nil)
}

// CreateWithFile uploads the attachment, then creates the note referencing
// it. When the create fails, the orphaned upload is deleted best-effort so
// the two-phase write does not leak files.
func (s *NotesService) CreateWithFile(ctx context.Context, input NoteInput, filename string, file io.Reader) (*Note, error) {
	fileURL, err := s.Upload(ctx, filename, file)
	if err != nil {
		return nil, err
	}
	input.FileURL = &fileURL

	note, err := s.Create(ctx, input)
	if err != nil {
		_ = s.DeleteFile(ctx, fileURL)
		return nil, err
	}
	return note, nil
}
