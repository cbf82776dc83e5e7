package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coreseed/internal/domain"
	"coreseed/internal/identity"
)

func TestProfileCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.profileSvc.Create(ctx, "Editor", "content editors", []string{
		identity.PrivilegeReport, identity.PrivilegeDashboard,
	})
	require.NoError(t, err)
	require.Positive(t, id)

	profile, err := env.profileSvc.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Editor", profile.Name)
	assert.Equal(t, []string{identity.PrivilegeDashboard, identity.PrivilegeReport}, profile.Privileges)
}

func TestProfileCreate_EmptyName(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.profileSvc.Create(context.Background(), "  ", "", nil)
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestProfileCreate_DuplicateName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createProfile(t, "Editor", identity.PrivilegeReport)

	_, err := env.profileSvc.Create(ctx, "Editor", "", []string{identity.PrivilegeReport})
	require.ErrorIs(t, err, domain.ErrProfileExists)

	profiles, err := env.profileSvc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestProfileCreate_UnknownPrivilege(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.profileSvc.Create(context.Background(), "Editor", "", []string{"NotAPrivilege"})
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestProfileFind_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.profileSvc.Find(context.Background(), 404)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProfileUpdate_ResyncsAllMembers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	profileID := env.createProfile(t, "Editor", identity.PrivilegeReport)
	otherID := env.createProfile(t, "Viewer", identity.PrivilegeDashboard)

	alice := env.registerUser(t, "alice", profileID)
	bob := env.registerUser(t, "bob", profileID)
	carol := env.registerUser(t, "carol", otherID)

	err := env.profileSvc.Update(ctx, profileID, "Editor", "edited", []string{
		identity.PrivilegeReport, identity.PrivilegeDashboard, identity.PrivilegeMessagePortal,
	})
	require.NoError(t, err)

	want := []string{identity.PrivilegeDashboard, identity.PrivilegeMessagePortal, identity.PrivilegeReport}
	assert.Equal(t, want, env.rolesOf(t, alice))
	assert.Equal(t, want, env.rolesOf(t, bob))
	// members of other profiles are untouched
	assert.Equal(t, []string{identity.PrivilegeDashboard}, env.rolesOf(t, carol))

	profile, err := env.profileSvc.Find(ctx, profileID)
	require.NoError(t, err)
	assert.Equal(t, "edited", profile.Description)
	assert.Equal(t, want, profile.Privileges)
}

func TestProfileUpdate_ShrinkingSetRevokesRoles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	profileID := env.createProfile(t, "Editor", identity.PrivilegeReport, identity.PrivilegeDashboard)
	alice := env.registerUser(t, "alice", profileID)

	require.NoError(t, env.profileSvc.Update(ctx, profileID, "Editor", "", []string{identity.PrivilegeReport}))

	assert.Equal(t, []string{identity.PrivilegeReport}, env.rolesOf(t, alice))
}

func TestProfileUpdate_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	profileID := env.createProfile(t, "Editor", identity.PrivilegeReport, identity.PrivilegeDashboard)
	alice := env.registerUser(t, "alice", profileID)

	privileges := []string{identity.PrivilegeReport, identity.PrivilegeDashboard}
	require.NoError(t, env.profileSvc.Update(ctx, profileID, "Editor", "", privileges))
	require.NoError(t, env.profileSvc.Update(ctx, profileID, "Editor", "", privileges))

	assert.Equal(t, []string{identity.PrivilegeDashboard, identity.PrivilegeReport}, env.rolesOf(t, alice))
}

func TestProfileUpdate_NotFound(t *testing.T) {
	env := newTestEnv(t)

	err := env.profileSvc.Update(context.Background(), 404, "Ghost", "", nil)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProfileUpdate_RollbackOnGrantFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	profileID := env.createProfile(t, "Editor", identity.PrivilegeReport)
	alice := env.registerUser(t, "alice", profileID)

	broken := &failingProvider{Provider: env.idp, failGrant: true}
	svc := NewProfileService(env.db, env.profiles, env.users, broken)

	err := svc.Update(ctx, profileID, "Editor", "changed", []string{identity.PrivilegeDashboard})
	require.ErrorIs(t, err, domain.ErrPrivilegeSync)

	// the profile row and the member's roles are both rolled back
	profile, err := env.profileSvc.Find(ctx, profileID)
	require.NoError(t, err)
	assert.Equal(t, []string{identity.PrivilegeReport}, profile.Privileges)
	assert.Equal(t, "Editor profile", profile.Description)
	assert.Equal(t, []string{identity.PrivilegeReport}, env.rolesOf(t, alice))
}

func TestProfileUpdate_RollbackOnRevokeFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	profileID := env.createProfile(t, "Editor", identity.PrivilegeReport)
	alice := env.registerUser(t, "alice", profileID)

	broken := &failingProvider{Provider: env.idp, failRevoke: true}
	svc := NewProfileService(env.db, env.profiles, env.users, broken)

	err := svc.Update(ctx, profileID, "Editor", "", []string{identity.PrivilegeDashboard})
	require.ErrorIs(t, err, domain.ErrPrivilegeSync)
	assert.Equal(t, []string{identity.PrivilegeReport}, env.rolesOf(t, alice))
}

func TestProfileDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	profileID := env.createProfile(t, "Editor", identity.PrivilegeReport)

	require.NoError(t, env.profileSvc.Delete(ctx, profileID))

	_, err := env.profileSvc.Find(ctx, profileID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProfileDelete_BlockedWhileReferenced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	profileID := env.createProfile(t, "Editor", identity.PrivilegeReport)
	env.registerUser(t, "alice", profileID)

	err := env.profileSvc.Delete(ctx, profileID)
	require.ErrorIs(t, err, domain.ErrProfileInUse)

	_, err = env.profileSvc.Find(ctx, profileID)
	require.NoError(t, err)
}

func TestProfileDelete_NotFound(t *testing.T) {
	env := newTestEnv(t)

	err := env.profileSvc.Delete(context.Background(), 404)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
