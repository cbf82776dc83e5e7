package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"coreseed/internal/auth"
	"coreseed/internal/dbx"
	"coreseed/internal/identity"
	"coreseed/internal/repository"
	"coreseed/internal/repository/sqlite"
)

type testEnv struct {
	db       *sql.DB
	profiles repository.ProfileRepository
	users    repository.UserRepository
	grants   repository.GrantRepository
	idp      identity.Provider
	signer   *auth.Signer

	profileSvc ProfileService
	userSvc    UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
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
	require.NoError(t, profiles.Init(ctx, db))
	require.NoError(t, users.Init(ctx, db))
	require.NoError(t, grants.Init(ctx, db))

	idp := identity.NewProvider(grants, identity.DefaultCatalog())
	signer := auth.NewSigner([]byte("test-secret"), "coreseed", "coreseed", 24*time.Hour)

	return &testEnv{
		db:         db,
		profiles:   profiles,
		users:      users,
		grants:     grants,
		idp:        idp,
		signer:     signer,
		profileSvc: NewProfileService(db, profiles, users, idp),
		userSvc:    NewUserService(db, users, profiles, idp, signer),
	}
}

func (e *testEnv) createProfile(t *testing.T, name string, privileges ...string) int64 {
	t.Helper()
	id, err := e.profileSvc.Create(context.Background(), name, name+" profile", privileges)
	require.NoError(t, err)
	return id
}

func (e *testEnv) registerUser(t *testing.T, username string, profileID int64) int64 {
	t.Helper()
	id, err := e.userSvc.Register(context.Background(), RegisterParams{
		Username:  username,
		Name:      username + " name",
		Email:     username + "@example.com",
		Password:  "secret123",
		Phone:     "0000000000",
		ProfileID: profileID,
	})
	require.NoError(t, err)
	return id
}

func (e *testEnv) rolesOf(t *testing.T, userID int64) []string {
	t.Helper()
	roles, err := e.grants.ListByUser(context.Background(), e.db, userID)
	require.NoError(t, err)
	return roles
}

// failingProvider wraps a real provider and fails grant or revoke on demand,
// to exercise rollback paths.
type failingProvider struct {
	identity.Provider
	failGrant  bool
	failRevoke bool
}

var errProviderDown = errors.New("provider down")

func (p *failingProvider) GrantRoles(ctx context.Context, q dbx.DBTX, userID int64, roles []string) error {
	if p.failGrant {
		return errProviderDown
	}
	return p.Provider.GrantRoles(ctx, q, userID, roles)
}

func (p *failingProvider) RevokeAllRoles(ctx context.Context, q dbx.DBTX, userID int64) error {
	if p.failRevoke {
		return errProviderDown
	}
	return p.Provider.RevokeAllRoles(ctx, q, userID)
}
