package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"coreseed/internal/dbx"
	"coreseed/internal/domain"
	"coreseed/internal/repository"
)

const createProfilesTable = `
CREATE TABLE IF NOT EXISTS user_profiles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	privileges TEXT NOT NULL DEFAULT '',
	locked INTEGER NOT NULL DEFAULT 0,
	hidden INTEGER NOT NULL DEFAULT 0
);
`

type ProfileRepository struct{}

func NewProfileRepository() repository.ProfileRepository {
	return &ProfileRepository{}
}

func (r *ProfileRepository) Init(ctx context.Context, q dbx.DBTX) error {
	if _, err := q.ExecContext(ctx, createProfilesTable); err != nil {
		return fmt.Errorf("create user_profiles table: %w", err)
	}
	return nil
}

func (r *ProfileRepository) Create(ctx context.Context, q dbx.DBTX, profile *domain.Profile) (int64, error) {
	res, err := q.ExecContext(ctx, `
INSERT INTO user_profiles (name, description, privileges, locked, hidden)
VALUES (?, ?, ?, ?, ?)`,
		profile.Name,
		profile.Description,
		joinPrivileges(profile.Privileges),
		profile.Locked,
		profile.Hidden,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.ErrProfileExists
		}
		return 0, fmt.Errorf("insert profile: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("profile last insert id: %w", err)
	}
	profile.ID = id
	return id, nil
}

func (r *ProfileRepository) Update(ctx context.Context, q dbx.DBTX, profile *domain.Profile) error {
	res, err := q.ExecContext(ctx, `
UPDATE user_profiles
SET name = ?, description = ?, privileges = ?, locked = ?, hidden = ?
WHERE id = ?`,
		profile.Name,
		profile.Description,
		joinPrivileges(profile.Privileges),
		profile.Locked,
		profile.Hidden,
		profile.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrProfileExists
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return requireAffected(res)
}

func (r *ProfileRepository) Delete(ctx context.Context, q dbx.DBTX, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM user_profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return requireAffected(res)
}

func (r *ProfileRepository) Get(ctx context.Context, q dbx.DBTX, id int64) (*domain.Profile, error) {
	row := q.QueryRowContext(ctx, `
SELECT id, name, description, privileges, locked, hidden
FROM user_profiles
WHERE id = ?`,
		id,
	)
	return scanProfile(row)
}

func (r *ProfileRepository) GetByName(ctx context.Context, q dbx.DBTX, name string) (*domain.Profile, error) {
	row := q.QueryRowContext(ctx, `
SELECT id, name, description, privileges, locked, hidden
FROM user_profiles
WHERE name = ?`,
		name,
	)
	return scanProfile(row)
}

func (r *ProfileRepository) List(ctx context.Context, q dbx.DBTX) ([]domain.Profile, error) {
	rows, err := q.QueryContext(ctx, `
SELECT id, name, description, privileges, locked, hidden
FROM user_profiles
ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}
	return profiles, rows.Err()
}

func scanProfile(row interface {
	Scan(dest ...any) error
}) (*domain.Profile, error) {
	var (
		profile domain.Profile
		joined  string
	)
	if err := row.Scan(
		&profile.ID,
		&profile.Name,
		&profile.Description,
		&joined,
		&profile.Locked,
		&profile.Hidden,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	profile.Privileges = splitPrivileges(joined)
	return &profile, nil
}

// joinPrivileges stores the set comma-joined, matching the schema the rest of
// the system expects. Empty entries are dropped, values are trimmed.
func joinPrivileges(privileges []string) string {
	cleaned := make([]string, 0, len(privileges))
	for _, p := range privileges {
		p = strings.TrimSpace(p)
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return strings.Join(cleaned, ",")
}

func splitPrivileges(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	privileges := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			privileges = append(privileges, p)
		}
	}
	return privileges
}
