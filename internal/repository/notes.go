package repository

import (
	"context"

	"slnotes/internal/model"
)

const noteColumns = `id, title, content, subject_id, topic, author_id, file_url, is_published, view_count, created_at, updated_at`

const notePrefixedColumns = `n.id, n.title, n.content, n.subject_id, n.topic, n.author_id, n.file_url, n.is_published, n.view_count, n.created_at, n.updated_at`

// NoteFilter narrows the note listing. Page is 1-based.
type NoteFilter struct {
	SubjectID     *int64
	ExamType      *string
	Topic         *string
	PublishedOnly bool
	Page          int
	PerPage       int
}

func scanNote(row interface{ Scan(dest ...any) error }) (model.Note, error) {
	var note model.Note
	err := row.Scan(
		&note.ID,
		&note.Title,
		&note.Content,
		&note.SubjectID,
		&note.Topic,
		&note.AuthorID,
		&note.FileURL,
		&note.IsPublished,
		&note.ViewCount,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	return note, err
}

func collectNotes(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}) ([]model.Note, error) {
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// ListNotes returns one page of notes plus the total match count.
func (s *Store) ListNotes(ctx context.Context, filter NoteFilter) ([]model.Note, int64, error) {
	where := `
		  ($1::bigint IS NULL OR n.subject_id = $1)
		  AND ($2::text IS NULL OR s.exam_type = $2)
		  AND ($3::text IS NULL OR n.topic ILIKE '%' || $3 || '%')
		  AND (NOT $4::boolean OR n.is_published)
	`
	args := []any{filter.SubjectID, filter.ExamType, filter.Topic, filter.PublishedOnly}

	var total int64
	row := s.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM notes n JOIN subjects s ON s.id = n.subject_id
		WHERE `+where, args...)
	if err := row.Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PerPage
	rows, err := s.pool.Query(ctx, `
		SELECT `+notePrefixedColumns+`
		FROM notes n JOIN subjects s ON s.id = n.subject_id
		WHERE `+where+`
		ORDER BY n.created_at DESC
		LIMIT $5 OFFSET $6
	`, append(args, filter.PerPage, offset)...)
	if err != nil {
		return nil, 0, err
	}
	notes, err := collectNotes(rows)
	return notes, total, err
}

func (s *Store) GetNote(ctx context.Context, noteID int64) (model.Note, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE id = $1
	`, noteID)
	return scanNote(row)
}

// GetNoteIncrementingViews returns the note and bumps the view counter in
// one statement. Unpublished notes are served but not counted.
func (s *Store) GetNoteIncrementingViews(ctx context.Context, noteID int64) (model.Note, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE notes
		SET view_count = view_count + CASE WHEN is_published THEN 1 ELSE 0 END
		WHERE id = $1
		RETURNING `+noteColumns+`
	`, noteID)
	return scanNote(row)
}

func (s *Store) CreateNote(ctx context.Context, title, content string, subjectID int64, topic *string, authorID int64, fileURL *string) (model.Note, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO notes (title, content, subject_id, topic, author_id, file_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+noteColumns+`
	`, title, content, subjectID, topic, authorID, fileURL)
	return scanNote(row)
}

func (s *Store) UpdateNote(ctx context.Context, noteID int64, title, content string, subjectID int64, topic *string, fileURL *string) (model.Note, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE notes
		SET title = $1, content = $2, subject_id = $3, topic = $4, file_url = $5, updated_at = now()
		WHERE id = $6
		RETURNING `+noteColumns+`
	`, title, content, subjectID, topic, fileURL, noteID)
	return scanNote(row)
}

func (s *Store) DeleteNote(ctx context.Context, noteID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, noteID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) NotesByAuthor(ctx context.Context, authorID int64) ([]model.Note, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE author_id = $1
		ORDER BY created_at DESC
	`, authorID)
	if err != nil {
		return nil, err
	}
	return collectNotes(rows)
}

// SearchFilter narrows a note search beyond the query string.
type SearchFilter struct {
	SubjectID *int64
	ExamType  *string
	Limit     int
}

// SearchNotes matches published notes by title, content or topic, most
// viewed first.
func (s *Store) SearchNotes(ctx context.Context, query string, filter SearchFilter) ([]model.Note, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+notePrefixedColumns+`
		FROM notes n JOIN subjects s ON s.id = n.subject_id
		WHERE n.is_published
		  AND (n.title ILIKE '%' || $1 || '%'
		       OR n.content ILIKE '%' || $1 || '%'
		       OR n.topic ILIKE '%' || $1 || '%')
		  AND ($2::bigint IS NULL OR n.subject_id = $2)
		  AND ($3::text IS NULL OR s.exam_type = $3)
		ORDER BY n.view_count DESC, n.created_at DESC
		LIMIT $4
	`, query, filter.SubjectID, filter.ExamType, filter.Limit)
	if err != nil {
		return nil, err
	}
	return collectNotes(rows)
}

// AllNotes returns every note regardless of publish state, for moderation.
func (s *Store) AllNotes(ctx context.Context) ([]model.Note, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return collectNotes(rows)
}

// TogglePublish flips is_published and returns the new value.
func (s *Store) TogglePublish(ctx context.Context, noteID int64) (bool, error) {
	var published bool
	row := s.pool.QueryRow(ctx, `
		UPDATE notes SET is_published = NOT is_published
		WHERE id = $1
		RETURNING is_published
	`, noteID)
	err := row.Scan(&published)
	return published, err
}

// SetNoteFileURL attaches an upload to a note without touching other fields.
func (s *Store) SetNoteFileURL(ctx context.Context, noteID int64, fileURL string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notes SET file_url = $1, updated_at = now() WHERE id = $2
	`, fileURL, noteID)
	return err
}

// FileURLInUse reports whether any note still references the given upload.
func (s *Store) FileURLInUse(ctx context.Context, fileURL string) (bool, error) {
	var count int64
	row := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notes WHERE file_url = $1`, fileURL)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// NoteFileURLs lists every file_url currently referenced by a note.
func (s *Store) NoteFileURLs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT file_url FROM notes WHERE file_url IS NOT NULL
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	urls := []string{}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}
