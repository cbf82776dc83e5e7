package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coreseed/internal/dbx"
	"coreseed/internal/domain"
	"coreseed/internal/repository"
)

const createSettingsTable = `
CREATE TABLE IF NOT EXISTS app_settings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	value TEXT NOT NULL DEFAULT ''
);
`

type SettingRepository struct{}

func NewSettingRepository() repository.SettingRepository {
	return &SettingRepository{}
}

func (r *SettingRepository) Init(ctx context.Context, q dbx.DBTX) error {
	if _, err := q.ExecContext(ctx, createSettingsTable); err != nil {
		return fmt.Errorf("create app_settings table: %w", err)
	}
	return nil
}

func (r *SettingRepository) Upsert(ctx context.Context, q dbx.DBTX, setting *domain.Setting) error {
	if _, err := q.ExecContext(ctx, `
INSERT INTO app_settings (name, value) VALUES (?, ?)
ON CONFLICT (name) DO UPDATE SET value = excluded.value`,
		setting.Name, setting.Value,
	); err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}

func (r *SettingRepository) GetByName(ctx context.Context, q dbx.DBTX, name string) (*domain.Setting, error) {
	row := q.QueryRowContext(ctx, `
SELECT id, name, value FROM app_settings WHERE name = ?`,
		name,
	)
	var setting domain.Setting
	if err := row.Scan(&setting.ID, &setting.Name, &setting.Value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan setting: %w", err)
	}
	return &setting, nil
}

func (r *SettingRepository) List(ctx context.Context, q dbx.DBTX) ([]domain.Setting, error) {
	rows, err := q.QueryContext(ctx, `
SELECT id, name, value FROM app_settings ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []domain.Setting
	for rows.Next() {
		var setting domain.Setting
		if err := rows.Scan(&setting.ID, &setting.Name, &setting.Value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings = append(settings, setting)
	}
	return settings, rows.Err()
}
