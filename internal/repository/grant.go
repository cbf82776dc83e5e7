package repository

import (
	"context"

	"coreseed/internal/dbx"
)

// GrantRepository manages the role-grant ledger keyed by (user, role name).
type GrantRepository interface {
	Init(ctx context.Context, q dbx.DBTX) error
	Grant(ctx context.Context, q dbx.DBTX, userID int64, roles []string) error
	RevokeAll(ctx context.Context, q dbx.DBTX, userID int64) error
	ListByUser(ctx context.Context, q dbx.DBTX, userID int64) ([]string, error)
}
