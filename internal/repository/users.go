package repository

import (
	"context"

	"slnotes/internal/model"
)

const userColumns = `id, full_name, email, password_hash, is_verified, is_admin, verification_token, created_at`

func scanUser(row interface{ Scan(dest ...any) error }) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.PasswordHash,
		&user.IsVerified,
		&user.IsAdmin,
		&user.VerificationToken,
		&user.CreatedAt,
	)
	return user, err
}

func (s *Store) CreateUser(ctx context.Context, fullName, email, passwordHash, verificationToken string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (full_name, email, password_hash, verification_token)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns+`
	`, fullName, email, passwordHash, verificationToken)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row)
}

func (s *Store) GetUserByID(ctx context.Context, userID int64) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, userID)
	return scanUser(row)
}

func (s *Store) GetUserByVerificationToken(ctx context.Context, token string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE verification_token = $1
	`, token)
	return scanUser(row)
}

func (s *Store) MarkUserVerified(ctx context.Context, userID int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET is_verified = TRUE, verification_token = NULL WHERE id = $1
	`, userID)
	return err
}

func (s *Store) UpdateUserName(ctx context.Context, userID int64, fullName string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users SET full_name = $1 WHERE id = $2
		RETURNING `+userColumns+`
	`, fullName, userID)
	return scanUser(row)
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUserFlags sets the verification and admin flags. Nil fields keep
// their current value.
func (s *Store) UpdateUserFlags(ctx context.Context, userID int64, isVerified, isAdmin *bool) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users
		SET is_verified = COALESCE($1, is_verified), is_admin = COALESCE($2, is_admin)
		WHERE id = $3
		RETURNING `+userColumns+`
	`, isVerified, isAdmin, userID)
	return scanUser(row)
}

func (s *Store) DeleteUser(ctx context.Context, userID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
