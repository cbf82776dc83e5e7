package repository

import (
	"context"

	"coreseed/internal/dbx"
	"coreseed/internal/domain"
)

// ProfileRepository exposes persistence operations for access profiles.
type ProfileRepository interface {
	Init(ctx context.Context, q dbx.DBTX) error
	Create(ctx context.Context, q dbx.DBTX, profile *domain.Profile) (int64, error)
	Update(ctx context.Context, q dbx.DBTX, profile *domain.Profile) error
	Delete(ctx context.Context, q dbx.DBTX, id int64) error
	Get(ctx context.Context, q dbx.DBTX, id int64) (*domain.Profile, error)
	GetByName(ctx context.Context, q dbx.DBTX, name string) (*domain.Profile, error)
	List(ctx context.Context, q dbx.DBTX) ([]domain.Profile, error)
}
