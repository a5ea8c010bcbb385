package repository

import (
	"context"

	"slnotes/internal/model"
)

const subjectColumns = `id, name, exam_type, description, is_active, created_at`

func scanSubject(row interface{ Scan(dest ...any) error }) (model.Subject, error) {
	var subject model.Subject
	err := row.Scan(
		&subject.ID,
		&subject.Name,
		&subject.ExamType,
		&subject.Description,
		&subject.IsActive,
		&subject.CreatedAt,
	)
	return subject, err
}

func (s *Store) ListSubjects(ctx context.Context, examType *string, activeOnly bool) ([]model.Subject, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+subjectColumns+`
		FROM subjects
		WHERE ($1::text IS NULL OR exam_type = $1)
		  AND (NOT $2::boolean OR is_active)
		ORDER BY name, exam_type
	`, examType, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjects := []model.Subject{}
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}
	return subjects, rows.Err()
}

func (s *Store) GetSubject(ctx context.Context, subjectID int64) (model.Subject, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+subjectColumns+`
		FROM subjects
		WHERE id = $1
	`, subjectID)
	return scanSubject(row)
}

func (s *Store) CreateSubject(ctx context.Context, name, examType string, description *string) (model.Subject, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO subjects (name, exam_type, description)
		VALUES ($1, $2, $3)
		RETURNING `+subjectColumns+`
	`, name, examType, description)
	return scanSubject(row)
}

func (s *Store) UpdateSubject(ctx context.Context, subjectID int64, name, examType string, description *string, isActive bool) (model.Subject, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE subjects
		SET name = $1, exam_type = $2, description = $3, is_active = $4
		WHERE id = $5
		RETURNING `+subjectColumns+`
	`, name, examType, description, isActive, subjectID)
	return scanSubject(row)
}

func (s *Store) DeleteSubject(ctx context.Context, subjectID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, subjectID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) SearchSubjects(ctx context.Context, query string) ([]model.Subject, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+subjectColumns+`
		FROM subjects
		WHERE is_active AND (name ILIKE '%' || $1 || '%' OR exam_type ILIKE '%' || $1 || '%')
		ORDER BY name, exam_type
	`, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjects := []model.Subject{}
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}
	return subjects, rows.Err()
}
