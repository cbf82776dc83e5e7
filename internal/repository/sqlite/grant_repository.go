package sqlite

import (
	"context"
	"fmt"

	"coreseed/internal/dbx"
	"coreseed/internal/repository"
)

const createGrantsTable = `
CREATE TABLE IF NOT EXISTS role_grants (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	UNIQUE (user_id, role)
);
`

type GrantRepository struct{}

func NewGrantRepository() repository.GrantRepository {
	return &GrantRepository{}
}

func (r *GrantRepository) Init(ctx context.Context, q dbx.DBTX) error {
	if _, err := q.ExecContext(ctx, createGrantsTable); err != nil {
		return fmt.Errorf("create role_grants table: %w", err)
	}
	return nil
}

// Grant adds the given roles to the user. INSERT OR IGNORE keeps the
// operation idempotent when a role is already granted.
func (r *GrantRepository) Grant(ctx context.Context, q dbx.DBTX, userID int64, roles []string) error {
	for _, role := range roles {
		if _, err := q.ExecContext(ctx, `
INSERT OR IGNORE INTO role_grants (user_id, role) VALUES (?, ?)`,
			userID, role,
		); err != nil {
			return fmt.Errorf("grant role %s: %w", role, err)
		}
	}
	return nil
}

func (r *GrantRepository) RevokeAll(ctx context.Context, q dbx.DBTX, userID int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM role_grants WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("revoke roles: %w", err)
	}
	return nil
}

func (r *GrantRepository) ListByUser(ctx context.Context, q dbx.DBTX, userID int64) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
SELECT role FROM role_grants WHERE user_id = ? ORDER BY role`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
