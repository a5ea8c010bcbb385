package model

import "time"

type User struct {
	ID                int64
	FullName          string
	Email             string
	PasswordHash      string
	IsVerified        bool
	IsAdmin           bool
	VerificationToken *string
	CreatedAt         time.Time
}

type Subject struct {
	ID          int64
	Name        string
	ExamType    string
	Description *string
	IsActive    bool
	CreatedAt   time.Time
}

type Note struct {
	ID          int64
	Title       string
	Content     string
	SubjectID   int64
	Topic       *string
	AuthorID    int64
	FileURL     *string
	IsPublished bool
	ViewCount   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Stats struct {
	TotalUsers     int64
	TotalNotes     int64
	TotalSubjects  int64
	VerifiedUsers  int64
	PublishedNotes int64
	TotalViews     int64
}
