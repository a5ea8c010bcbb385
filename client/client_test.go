package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	c := New()

	if c.baseURL != DefaultBaseURL {
		t.Errorf("expected baseURL %q, got %q", DefaultBaseURL, c.baseURL)
	}
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultTimeout, c.httpClient.Timeout)
	}
	if c.Auth == nil || c.Notes == nil || c.Subjects == nil || c.Admin == nil {
		t.Error("expected all services to be initialized")
	}
}

func TestNew_WithOptions(t *testing.T) {
	customClient := &http.Client{Timeout: 60 * time.Second}
	c := New(WithBaseURL("https://api.example.lk"), WithHTTPClient(customClient))

	if c.BaseURL() != "https://api.example.lk" {
		t.Errorf("unexpected baseURL %q", c.BaseURL())
	}
	if c.httpClient != customClient {
		t.Error("expected custom HTTP client to be set")
	}

	c = New(WithTimeout(5 * time.Second))
	if c.httpClient.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", c.httpClient.Timeout)
	}
}

// newTestServer creates a test server and client for testing.
func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	server := httptest.NewServer(handler)
	c := New(WithBaseURL(server.URL))
	t.Cleanup(server.Close)
	return server, c
}

func TestBearerAttachment(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("expected bearer header, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 1})
	})
	c.SetToken("tok-123")

	if _, err := c.Auth.Me(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNoBearerWhenAnonymous(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("expected no auth header, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"notes": []any{}, "total": 0, "page": 1, "per_page": 12})
	})

	if _, err := c.Notes.List(context.Background(), ListNotesOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		status int
		detail string
		check  func(error) bool
		name   string
	}{
		{http.StatusUnauthorized, "Could not validate credentials", IsAuth, "auth"},
		{http.StatusNotFound, "Note not found", IsNotFound, "not found"},
		{http.StatusBadRequest, "Email already registered", IsValidation, "validation"},
		{http.StatusForbidden, "Admin access required", IsValidation, "forbidden as validation"},
	}

	for _, tt := range tests {
		_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tt.status)
			json.NewEncoder(w).Encode(map[string]string{"detail": tt.detail})
		})

		_, err := c.Notes.Get(context.Background(), 1)
		if err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
		if !tt.check(err) {
			t.Errorf("%s: predicate failed for %v", tt.name, err)
		}

		apiErr, ok := APIError(err)
		if !ok {
			t.Fatalf("%s: expected APIError", tt.name)
		}
		if apiErr.Detail != tt.detail {
			t.Errorf("%s: expected detail %q passed through, got %q", tt.name, tt.detail, apiErr.Detail)
		}
	}
}

func TestNetworkErrorIsNotAPIError(t *testing.T) {
	c := New(WithBaseURL("http://127.0.0.1:1"), WithTimeout(100*time.Millisecond))

	_, err := c.Notes.Get(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNetwork(err) {
		t.Errorf("expected network error, got %v", err)
	}
	if IsAuth(err) || IsNotFound(err) || IsValidation(err) {
		t.Error("network error must not satisfy API predicates")
	}
}

func TestListDerivesPages(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"notes":    []any{},
			"total":    25,
			"page":     1,
			"per_page": 12,
		})
	})

	page, err := c.Notes.List(context.Background(), ListNotesOptions{Page: 1, PerPage: 12})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Pages != 3 {
		t.Errorf("expected 3 pages for 25/12, got %d", page.Pages)
	}
}

func TestDerivePages(t *testing.T) {
	tests := []struct {
		total   int64
		perPage int
		want    int
	}{
		{25, 12, 3},
		{14, 6, 3},
		{12, 12, 1},
		{13, 12, 2},
		{0, 12, 1},
		{5, 0, 1},
	}
	for _, tt := range tests {
		if got := derivePages(tt.total, tt.perPage); got != tt.want {
			t.Errorf("derivePages(%d, %d) = %d, want %d", tt.total, tt.perPage, got, tt.want)
		}
	}
}

func TestPaginationLastPartialPage(t *testing.T) {
	// 14 notes at 6 per page: page 3 holds the final 2.
	all := make([]map[string]any, 14)
	for i := range all {
		all[i] = map[string]any{"id": i + 1, "title": "n", "content": "c", "subject_id": 1, "author_id": 1, "is_published": true}
	}

	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("page"); got != "3" {
			t.Errorf("expected page=3, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"notes":    all[12:],
			"total":    14,
			"page":     3,
			"per_page": 6,
		})
	})

	page, err := c.Notes.List(context.Background(), ListNotesOptions{Page: 3, PerPage: 6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Pages != 3 {
		t.Errorf("expected 3 pages, got %d", page.Pages)
	}
	if len(page.Notes) != 2 {
		t.Errorf("expected 2 notes on the last page, got %d", len(page.Notes))
	}
}

func TestSearchEncodesQueryOnce(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		// The decoded query must be the original string.
		if got := r.URL.Query().Get("q"); got != "physics & waves" {
			t.Errorf("expected decoded query, got %q", got)
		}
		// The raw query must be encoded exactly once, not twice.
		if strings.Contains(r.URL.RawQuery, "%25") {
			t.Errorf("query was double-encoded: %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{"results": []any{}, "query": "physics & waves"})
	})

	if _, err := c.Notes.Search(context.Background(), "physics & waves", SearchOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNoteListRemove(t *testing.T) {
	list := NoteList{{ID: 1}, {ID: 2}, {ID: 3}}

	if !list.Remove(2) {
		t.Fatal("expected removal")
	}
	if len(list) != 2 || list[0].ID != 1 || list[1].ID != 3 {
		t.Errorf("unexpected list after remove: %+v", list)
	}
	if list.Remove(42) {
		t.Error("expected no removal for missing id")
	}
}

func TestNoteListSetPublished(t *testing.T) {
	list := NoteList{{ID: 1, IsPublished: true}, {ID: 2, IsPublished: false}}

	if !list.SetPublished(2, true) {
		t.Fatal("expected update")
	}
	if !list[1].IsPublished {
		t.Error("publish flag not flipped in place")
	}
	if list.SetPublished(42, true) {
		t.Error("expected no update for missing id")
	}
}

func TestCreateWithFileCompensation(t *testing.T) {
	var deleted bool
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/upload":
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"file_url": "/uploads/x.pdf", "filename": "x.pdf"})
		case r.Method == http.MethodPost && r.URL.Path == "/notes":
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Subject not found"})
		case r.Method == http.MethodDelete && r.URL.Path == "/upload/x.pdf":
			deleted = true
			json.NewEncoder(w).Encode(map[string]string{"message": "File deleted"})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	_, err := c.Notes.CreateWithFile(context.Background(), NoteInput{Title: "t", Content: "c", SubjectID: 99}, "x.pdf", strings.NewReader("data"))
	if err == nil {
		t.Fatal("expected create error")
	}
	if !IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if !deleted {
		t.Error("expected orphaned upload to be deleted")
	}
}

func TestAdminTogglePublish(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/admin/notes/7/publish" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 7, "is_published": false})
	})

	published, err := c.Admin.TogglePublish(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if published {
		t.Error("expected unpublished")
	}
}

func TestUploadToNoteSendsNoteID(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("note_id"); got != "7" {
			t.Errorf("expected note_id=7, got %q", got)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"file_url": "/uploads/20260901_abc.pdf",
			"filename": "20260901_abc.pdf",
		})
	})
	c.SetToken("tok-123")

	fileURL, err := c.Notes.UploadToNote(context.Background(), 7, "paper.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fileURL != "/uploads/20260901_abc.pdf" {
		t.Errorf("unexpected file_url %q", fileURL)
	}
}

func TestAdminUpdateUserOmitsUnsetFlags(t *testing.T) {
	var body map[string]any
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 5, "is_admin": true})
	})

	if _, err := c.Admin.UpdateUser(context.Background(), 5, UserFlags{IsAdmin: Bool(true)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := body["is_admin"]; !ok || got != true {
		t.Errorf("expected is_admin=true in body, got %v", body)
	}
	if _, ok := body["is_verified"]; ok {
		t.Error("unset is_verified flag must not be sent")
	}
}
