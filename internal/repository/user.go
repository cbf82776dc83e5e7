package repository

import (
	"context"

	"coreseed/internal/dbx"
	"coreseed/internal/domain"
)

// UserRepository defines persistence operations for User entities. Methods
// take an explicit dbx.DBTX handle so callers decide the transaction boundary.
type UserRepository interface {
	Init(ctx context.Context, q dbx.DBTX) error
	Create(ctx context.Context, q dbx.DBTX, user *domain.User) (int64, error)
	Update(ctx context.Context, q dbx.DBTX, user *domain.User) error
	UpdatePasswordHash(ctx context.Context, q dbx.DBTX, id int64, hash string) error
	Delete(ctx context.Context, q dbx.DBTX, id int64) error
	GetByUsername(ctx context.Context, q dbx.DBTX, username string) (*domain.User, error)
	GetByID(ctx context.Context, q dbx.DBTX, id int64) (*domain.User, error)
	ListByProfile(ctx context.Context, q dbx.DBTX, profileID int64) ([]domain.User, error)
	CountByProfile(ctx context.Context, q dbx.DBTX, profileID int64) (int64, error)
	ListSummaries(ctx context.Context, q dbx.DBTX) ([]domain.UserSummary, error)
	SetPicture(ctx context.Context, q dbx.DBTX, id int64, picture string) error
}
