package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"coreseed/internal/domain"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPrivilegesRoundTrip(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	repo := NewProfileRepository()
	require.NoError(t, repo.Init(ctx, db))

	id, err := repo.Create(ctx, db, &domain.Profile{
		Name:       "Editor",
		Privileges: []string{" Report ", "", "Dashboard"},
	})
	require.NoError(t, err)

	profile, err := repo.Get(ctx, db, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Report", "Dashboard"}, profile.Privileges)
}

func TestPrivilegesEmpty(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	repo := NewProfileRepository()
	require.NoError(t, repo.Init(ctx, db))

	id, err := repo.Create(ctx, db, &domain.Profile{Name: "Blank"})
	require.NoError(t, err)

	profile, err := repo.Get(ctx, db, id)
	require.NoError(t, err)
	assert.Nil(t, profile.Privileges)
}

func TestCreate_DuplicateName(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	repo := NewProfileRepository()
	require.NoError(t, repo.Init(ctx, db))

	_, err := repo.Create(ctx, db, &domain.Profile{Name: "Editor"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, db, &domain.Profile{Name: "Editor"})
	require.ErrorIs(t, err, domain.ErrProfileExists)
}

func TestUpdate_RenameToTakenName(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	repo := NewProfileRepository()
	require.NoError(t, repo.Init(ctx, db))

	_, err := repo.Create(ctx, db, &domain.Profile{Name: "Editor"})
	require.NoError(t, err)
	id, err := repo.Create(ctx, db, &domain.Profile{Name: "Viewer"})
	require.NoError(t, err)

	err = repo.Update(ctx, db, &domain.Profile{ID: id, Name: "Editor"})
	require.ErrorIs(t, err, domain.ErrProfileExists)
}

func TestGet_NotFound(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	repo := NewProfileRepository()
	require.NoError(t, repo.Init(ctx, db))

	_, err := repo.Get(ctx, db, 404)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
