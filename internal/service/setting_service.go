package service

import (
	"context"
	"database/sql"
	"strings"

	"coreseed/internal/domain"
	"coreseed/internal/repository"
)

// SettingService manages organization-level settings.
type SettingService interface {
	Get(ctx context.Context, name string) (*domain.Setting, error)
	List(ctx context.Context) ([]domain.Setting, error)
	Put(ctx context.Context, name, value string) error
}

type settingService struct {
	db       *sql.DB
	settings repository.SettingRepository
}

func NewSettingService(db *sql.DB, settings repository.SettingRepository) SettingService {
	return &settingService{db: db, settings: settings}
}

func (s *settingService) Get(ctx context.Context, name string) (*domain.Setting, error) {
	return s.settings.GetByName(ctx, s.db, name)
}

func (s *settingService) List(ctx context.Context) ([]domain.Setting, error) {
	return s.settings.List(ctx, s.db)
}

func (s *settingService) Put(ctx context.Context, name, value string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewValidationError("name", "name is required")
	}
	return s.settings.Upsert(ctx, s.db, &domain.Setting{Name: name, Value: value})
}
