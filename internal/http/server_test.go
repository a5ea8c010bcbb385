package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"slnotes/internal/auth"
	"slnotes/internal/config"
	"slnotes/internal/db"
	"slnotes/internal/mail"
	"slnotes/internal/repository"
	"slnotes/internal/storage"
)

func TestBearerToken(t *testing.T) {
	if got := bearerToken("Bearer abc"); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	if got := bearerToken("Basic abc"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if got := bearerToken(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestWriteDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDetail(rec, http.StatusNotFound, "Note not found")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body["detail"] != "Note not found" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestAuthAndNoteFlow(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()

	cfg := config.Config{
		HTTPAddr:       ":0",
		JWTSecret:      "test-secret",
		JWTIssuer:      "test-issuer",
		AccessTokenTTL: 15 * time.Minute,
		MaxUploadSize:  10 << 20,
		FrontendURL:    "http://localhost:5173",
	}
	uploads, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewStore(pool)
	server := NewServer(cfg, store, uploads, mail.NewLogMailer(logger), nil, logger)
	app := httptest.NewServer(server.Router())
	defer app.Close()

	email := "student." + time.Now().Format("150405.000") + "@example.lk"

	// Register.
	resp := doReq(t, http.MethodPost, app.URL+"/auth/register", "", map[string]any{
		"full_name": "Test Student",
		"email":     email,
		"password":  "secret123",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}
	var registered struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&registered); err != nil {
		t.Fatalf("decode register: %v", err)
	}
	if registered.Message == "" || registered.Detail == "" {
		t.Fatalf("unexpected register body: %+v", registered)
	}

	// Duplicate email rejected.
	resp = doReq(t, http.MethodPost, app.URL+"/auth/register", "", map[string]any{
		"full_name": "Test Student",
		"email":     email,
		"password":  "secret123",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate register: expected 400, got %d", resp.StatusCode)
	}

	// Login blocked until verified.
	resp = doForm(t, app.URL+"/auth/login", url.Values{"username": {email}, "password": {"secret123"}})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("unverified login: expected 403, got %d", resp.StatusCode)
	}

	// Verify via the stored token, then log in.
	user, err := store.GetUserByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	resp = doReq(t, http.MethodGet, app.URL+"/auth/verify/"+*user.VerificationToken, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d", resp.StatusCode)
	}

	resp = doForm(t, app.URL+"/auth/login", url.Values{"username": {email}, "password": {"secret123"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	var loginBody struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginBody); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if loginBody.TokenType != "bearer" || loginBody.AccessToken == "" {
		t.Fatalf("unexpected login body: %+v", loginBody)
	}
	token := loginBody.AccessToken

	// Whoami.
	resp = doReq(t, http.MethodGet, app.URL+"/auth/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", resp.StatusCode)
	}

	// Bad credentials.
	resp = doForm(t, app.URL+"/auth/login", url.Values{"username": {email}, "password": {"wrong"}})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", resp.StatusCode)
	}

	// Short search query rejected.
	resp = doReq(t, http.MethodGet, app.URL+"/search?q=a", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("short search: expected 400, got %d", resp.StatusCode)
	}
}

func TestNoteServingAndTopicMatching(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()

	cfg := config.Config{
		HTTPAddr:       ":0",
		JWTSecret:      "test-secret",
		JWTIssuer:      "test-issuer",
		AccessTokenTTL: 15 * time.Minute,
		MaxUploadSize:  10 << 20,
		FrontendURL:    "http://localhost:5173",
	}
	uploads, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewStore(pool)
	server := NewServer(cfg, store, uploads, mail.NewLogMailer(logger), nil, logger)
	app := httptest.NewServer(server.Router())
	defer app.Close()

	ctx := context.Background()
	stamp := time.Now().Format("150405.000")
	author, err := store.CreateUser(ctx, "Author", "author."+stamp+"@example.lk", "x", "tok-"+stamp)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := store.MarkUserVerified(ctx, author.ID); err != nil {
		t.Fatalf("verify user: %v", err)
	}
	subject, err := store.CreateSubject(ctx, "Physics "+stamp, "AL", nil)
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}
	topic := "Wave Mechanics"
	note, err := store.CreateNote(ctx, "Interference Patterns", "Double slit interference explained at length.", subject.ID, &topic, author.ID, nil)
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	noteURL := fmt.Sprintf("%s/notes/%d", app.URL, note.ID)

	// Reading a published note counts the view.
	resp := doReq(t, http.MethodGet, noteURL, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get note: expected 200, got %d", resp.StatusCode)
	}
	got, err := store.GetNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if got.ViewCount != 1 {
		t.Fatalf("expected view_count 1, got %d", got.ViewCount)
	}

	// Unpublished notes are still served, just not counted.
	if _, err := store.TogglePublish(ctx, note.ID); err != nil {
		t.Fatalf("toggle publish: %v", err)
	}
	resp = doReq(t, http.MethodGet, noteURL, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get unpublished note: expected 200, got %d", resp.StatusCode)
	}
	got, err = store.GetNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if got.ViewCount != 1 {
		t.Fatalf("unpublished read must not count, got view_count %d", got.ViewCount)
	}
	if _, err := store.TogglePublish(ctx, note.ID); err != nil {
		t.Fatalf("toggle publish: %v", err)
	}

	// Topic filter is a case-insensitive partial match.
	listURL := fmt.Sprintf("%s/notes?subject_id=%d&topic=wave", app.URL, subject.ID)
	resp = doReq(t, http.MethodGet, listURL, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list notes: expected 200, got %d", resp.StatusCode)
	}
	var listBody struct {
		Notes []struct {
			ID int64 `json:"id"`
		} `json:"notes"`
		Total int64 `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listBody); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if listBody.Total != 1 || len(listBody.Notes) != 1 || listBody.Notes[0].ID != note.ID {
		t.Fatalf("topic filter missed the note: %+v", listBody)
	}

	// Search matches the topic, not only title and content.
	searchURL := fmt.Sprintf("%s/search?q=mechanics&subject_id=%d", app.URL, subject.ID)
	resp = doReq(t, http.MethodGet, searchURL, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", resp.StatusCode)
	}
	var searchBody struct {
		Results []struct {
			ID int64 `json:"id"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchBody); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if len(searchBody.Results) != 1 || searchBody.Results[0].ID != note.ID {
		t.Fatalf("topic search missed the note: %+v", searchBody)
	}

	// Uploading with note_id attaches the file to the owned note.
	token, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, author.ID, author.Email)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "paper.pdf")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	uploadReq, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/upload?note_id=%d", app.URL, note.ID), &buf)
	if err != nil {
		t.Fatalf("upload request: %v", err)
	}
	uploadReq.Header.Set("Authorization", "Bearer "+token)
	uploadReq.Header.Set("Content-Type", mw.FormDataContentType())
	uploadResp, err := http.DefaultClient.Do(uploadReq)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer uploadResp.Body.Close()
	if uploadResp.StatusCode != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d", uploadResp.StatusCode)
	}
	got, err = store.GetNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if got.FileURL == nil {
		t.Fatal("expected upload attached to the note")
	}

	// Partial admin update leaves unmentioned flags alone.
	adminUser, err := store.CreateUser(ctx, "Moderator", "mod."+stamp+"@example.lk", "x", "modtok-"+stamp)
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	enable := true
	if _, err := store.UpdateUserFlags(ctx, adminUser.ID, &enable, &enable); err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	adminToken, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, adminUser.ID, adminUser.Email)
	if err != nil {
		t.Fatalf("mint admin token: %v", err)
	}
	resp = doReq(t, http.MethodPut, fmt.Sprintf("%s/admin/users/%d", app.URL, author.ID), adminToken, map[string]any{
		"is_admin": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin update: expected 200, got %d", resp.StatusCode)
	}
	updated, err := store.GetUserByID(ctx, author.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !updated.IsAdmin {
		t.Fatal("expected is_admin set")
	}
	if !updated.IsVerified {
		t.Fatal("unmentioned is_verified flag must keep its value")
	}
}

func openTestDB(t *testing.T) *pgxpool.Pool {
	dbURL := os.Getenv("SLNOTES_TEST_DB")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("SLNOTES_TEST_DB or DATABASE_URL not set")
		return nil
	}
	pool, err := db.NewPool(context.Background(), dbURL)
	if err != nil {
		t.Skipf("db unavailable: %v", err)
		return nil
	}
	if err := db.RunMigrations(dbURL); err != nil {
		pool.Close()
		t.Skipf("migrations failed: %v", err)
		return nil
	}
	return pool
}

func doReq(t *testing.T, method, reqURL, token string, body any) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode error: %v", err)
		}
	}
	req, err := http.NewRequest(method, reqURL, &buf)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func doForm(t *testing.T, reqURL string, form url.Values) *http.Response {
	resp, err := http.Post(reqURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
