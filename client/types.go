package client

import "time"

// User is an account on the platform.
type User struct {
	ID         int64     `json:"id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
	IsAdmin    bool      `json:"is_admin"`
	CreatedAt  time.Time `json:"created_at"`
}

// Subject is an exam subject notes are filed under.
type Subject struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ExamType    string    `json:"exam_type"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Note is a study note.
type Note struct {
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

// Stats is the admin dashboard summary.
type Stats struct {
	TotalUsers     int64 `json:"total_users"`
	VerifiedUsers  int64 `json:"verified_users"`
	TotalNotes     int64 `json:"total_notes"`
	PublishedNotes int64 `json:"published_notes"`
	TotalSubjects  int64 `json:"total_subjects"`
	TotalViews     int64 `json:"total_views"`
}

// NotePage is one page of a note listing. Pages is derived client-side from
// Total and PerPage; the backend does not send it.
type NotePage struct {
	Notes   []Note `json:"notes"`
	Total   int64  `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	Pages   int    `json:"-"`
}

// NoteList is a mutable local list of notes that mirrors server state after
// mutations without a refetch.
type NoteList []Note

// Remove deletes the note with the given ID in place. Returns true when the
// note was present.
func (l *NoteList) Remove(id int64) bool {
	for i, note := range *l {
		if note.ID == id {
			*l = append((*l)[:i], (*l)[i+1:]...)
			return true
		}
	}
	return false
}

// SetPublished updates the publish flag of the note with the given ID in
// place. Returns true when the note was present.
func (l NoteList) SetPublished(id int64, published bool) bool {
	for i := range l {
		if l[i].ID == id {
			l[i].IsPublished = published
			return true
		}
	}
	return false
}
