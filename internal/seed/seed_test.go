package seed

import (
	"context"
	"database/sql"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"coreseed/internal/identity"
	"coreseed/internal/repository/sqlite"
)

func newSeeder(t *testing.T) (*Seeder, *sql.DB, identity.Provider) {
	t.Helper()

	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`PRAGMA foreign_keys = ON;`)
	require.NoError(t, err)

	ctx := context.Background()
	profiles := sqlite.NewProfileRepository()
	users := sqlite.NewUserRepository()
	grants := sqlite.NewGrantRepository()
	settings := sqlite.NewSettingRepository()
	require.NoError(t, profiles.Init(ctx, db))
	require.NoError(t, users.Init(ctx, db))
	require.NoError(t, grants.Init(ctx, db))
	require.NoError(t, settings.Init(ctx, db))

	idp := identity.NewProvider(grants, identity.DefaultCatalog())

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return New(db, profiles, users, settings, idp, logger), db, idp
}

func TestRun_SeedsAdminWithFullCatalog(t *testing.T) {
	seeder, db, idp := newSeeder(t)
	ctx := context.Background()

	require.NoError(t, seeder.Run(ctx, "admin@app"))

	profiles := sqlite.NewProfileRepository()
	profile, err := profiles.GetByName(ctx, db, "Administrator")
	require.NoError(t, err)
	assert.True(t, profile.Locked)
	assert.Equal(t, identity.DefaultCatalog().Names(), profile.Privileges)

	users := sqlite.NewUserRepository()
	admin, err := users.GetByUsername(ctx, db, "Admin")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, admin.ProfileID)

	roles, err := idp.ListRoles(ctx, db, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.DefaultCatalog().Names(), roles)

	settings := sqlite.NewSettingRepository()
	all, err := settings.List(ctx, db)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRun_Idempotent(t *testing.T) {
	seeder, db, _ := newSeeder(t)
	ctx := context.Background()

	require.NoError(t, seeder.Run(ctx, "admin@app"))
	require.NoError(t, seeder.Run(ctx, "admin@app"))

	var users, profiles, settings int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&users))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM user_profiles`).Scan(&profiles))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM app_settings`).Scan(&settings))
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, profiles)
	assert.Equal(t, 4, settings)
}

func TestRun_SkipsAdminUserWithoutPassword(t *testing.T) {
	seeder, db, _ := newSeeder(t)
	ctx := context.Background()

	require.NoError(t, seeder.Run(ctx, ""))

	var users int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&users))
	assert.Equal(t, 0, users)

	profiles := sqlite.NewProfileRepository()
	_, err := profiles.GetByName(ctx, db, "Administrator")
	require.NoError(t, err)
}
