package repository

import (
	"context"

	"coreseed/internal/dbx"
	"coreseed/internal/domain"
)

// SettingRepository manages named organization settings.
type SettingRepository interface {
	Init(ctx context.Context, q dbx.DBTX) error
	Upsert(ctx context.Context, q dbx.DBTX, setting *domain.Setting) error
	GetByName(ctx context.Context, q dbx.DBTX, name string) (*domain.Setting, error)
	List(ctx context.Context, q dbx.DBTX) ([]domain.Setting, error)
}
