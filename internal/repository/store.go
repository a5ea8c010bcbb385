package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"slnotes/internal/model"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Stats aggregates platform-wide counters for the admin dashboard.
func (s *Store) Stats(ctx context.Context) (model.Stats, error) {
	var stats model.Stats
	row := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_verified),
			(SELECT COUNT(*) FROM notes),
			(SELECT COUNT(*) FROM notes WHERE is_published),
			(SELECT COUNT(*) FROM subjects),
			(SELECT COALESCE(SUM(view_count), 0) FROM notes)
	`)
	err := row.Scan(
		&stats.TotalUsers,
		&stats.VerifiedUsers,
		&stats.TotalNotes,
		&stats.PublishedNotes,
		&stats.TotalSubjects,
		&stats.TotalViews,
	)
	return stats, err
}
