package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"coreseed/internal/dbx"
	"coreseed/internal/domain"
	"coreseed/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	picture TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	profile_id INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	deleted INTEGER NOT NULL DEFAULT 0,
	locked INTEGER NOT NULL DEFAULT 0,
	hidden INTEGER NOT NULL DEFAULT 0
);
`

const userColumns = `id, username, name, email, phone, picture, password_hash, profile_id, created_at, updated_at, deleted, locked, hidden`

type UserRepository struct{}

func NewUserRepository() repository.UserRepository {
	return &UserRepository{}
}

func (r *UserRepository) Init(ctx context.Context, q dbx.DBTX) error {
	if _, err := q.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, q dbx.DBTX, user *domain.User) (int64, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := q.ExecContext(ctx, `
INSERT INTO users (username, name, email, phone, picture, password_hash, profile_id, created_at, updated_at, deleted, locked, hidden)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.Name,
		user.Email,
		user.Phone,
		user.Picture,
		user.PasswordHash,
		user.ProfileID,
		user.CreatedAt,
		user.UpdatedAt,
		user.Deleted,
		user.Locked,
		user.Hidden,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.ErrUserExists
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user last insert id: %w", err)
	}
	user.ID = id
	return id, nil
}

func (r *UserRepository) Update(ctx context.Context, q dbx.DBTX, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()

	res, err := q.ExecContext(ctx, `
UPDATE users
SET name = ?, email = ?, phone = ?, profile_id = ?, updated_at = ?, deleted = ?, locked = ?, hidden = ?
WHERE id = ?`,
		user.Name,
		user.Email,
		user.Phone,
		user.ProfileID,
		user.UpdatedAt,
		user.Deleted,
		user.Locked,
		user.Hidden,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireAffected(res)
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, q dbx.DBTX, id int64, hash string) error {
	res, err := q.ExecContext(ctx, `
UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return requireAffected(res)
}

func (r *UserRepository) SetPicture(ctx context.Context, q dbx.DBTX, id int64, picture string) error {
	res, err := q.ExecContext(ctx, `
UPDATE users SET picture = ?, updated_at = ? WHERE id = ?`,
		picture, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set picture: %w", err)
	}
	return requireAffected(res)
}

func (r *UserRepository) Delete(ctx context.Context, q dbx.DBTX, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res)
}

func (r *UserRepository) GetByUsername(ctx context.Context, q dbx.DBTX, username string) (*domain.User, error) {
	row := q.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE username = ?`,
		username,
	)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, q dbx.DBTX, id int64) (*domain.User, error) {
	row := q.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

func (r *UserRepository) ListByProfile(ctx context.Context, q dbx.DBTX, profileID int64) ([]domain.User, error) {
	rows, err := q.QueryContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE profile_id = ?
ORDER BY id`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list users by profile: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *UserRepository) CountByProfile(ctx context.Context, q dbx.DBTX, profileID int64) (int64, error) {
	var n int64
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE profile_id = ?`, profileID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users by profile: %w", err)
	}
	return n, nil
}

func (r *UserRepository) ListSummaries(ctx context.Context, q dbx.DBTX) ([]domain.UserSummary, error) {
	rows, err := q.QueryContext(ctx, `
SELECT u.id, u.username, u.name, u.email, u.phone, u.picture, u.profile_id, COALESCE(p.name, '')
FROM users u
LEFT JOIN user_profiles p ON p.id = u.profile_id
ORDER BY u.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list user summaries: %w", err)
	}
	defer rows.Close()

	var summaries []domain.UserSummary
	for rows.Next() {
		var s domain.UserSummary
		if err := rows.Scan(
			&s.ID,
			&s.Username,
			&s.Name,
			&s.Email,
			&s.Phone,
			&s.Picture,
			&s.ProfileID,
			&s.ProfileName,
		); err != nil {
			return nil, fmt.Errorf("scan user summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Picture,
		&user.PasswordHash,
		&user.ProfileID,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Deleted,
		&user.Locked,
		&user.Hidden,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
