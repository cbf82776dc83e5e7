package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"coreseed/internal/dbx"
	"coreseed/internal/domain"
	"coreseed/internal/identity"
	"coreseed/internal/repository"
)

// ProfileService manages access profiles and keeps member users' granted
// roles consistent with profile edits.
type ProfileService interface {
	Create(ctx context.Context, name, description string, privileges []string) (int64, error)
	Find(ctx context.Context, id int64) (*domain.Profile, error)
	List(ctx context.Context) ([]domain.Profile, error)
	Update(ctx context.Context, id int64, name, description string, privileges []string) error
	Delete(ctx context.Context, id int64) error
}

type profileService struct {
	db       *sql.DB
	profiles repository.ProfileRepository
	users    repository.UserRepository
	idp      identity.Provider
}

func NewProfileService(db *sql.DB, profiles repository.ProfileRepository, users repository.UserRepository, idp identity.Provider) ProfileService {
	return &profileService{
		db:       db,
		profiles: profiles,
		users:    users,
		idp:      idp,
	}
}

func (s *profileService) Create(ctx context.Context, name, description string, privileges []string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.NewValidationError("name", "name is required")
	}
	privileges = normalizePrivileges(privileges)
	if unknown := s.idp.Catalog().Validate(privileges); len(unknown) > 0 {
		return 0, domain.NewValidationError("privileges", fmt.Sprintf("unknown privileges: %v", unknown))
	}

	profile := &domain.Profile{
		Name:        name,
		Description: description,
		Privileges:  privileges,
	}
	return s.profiles.Create(ctx, s.db, profile)
}

func (s *profileService) Find(ctx context.Context, id int64) (*domain.Profile, error) {
	return s.profiles.Get(ctx, s.db, id)
}

func (s *profileService) List(ctx context.Context) ([]domain.Profile, error) {
	return s.profiles.List(ctx, s.db)
}

// Update overwrites the profile and resynchronizes the granted roles of every
// user referencing it. The record update and the per-user resync run in one
// transaction: a failed revoke or grant rolls everything back, so a user's
// role set never ends up matching neither the old nor the new privilege set.
func (s *profileService) Update(ctx context.Context, id int64, name, description string, privileges []string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewValidationError("name", "name is required")
	}
	privileges = normalizePrivileges(privileges)
	if unknown := s.idp.Catalog().Validate(privileges); len(unknown) > 0 {
		return domain.NewValidationError("privileges", fmt.Sprintf("unknown privileges: %v", unknown))
	}

	return dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		profile, err := s.profiles.Get(ctx, tx, id)
		if err != nil {
			return err
		}

		profile.Name = name
		profile.Description = description
		profile.Privileges = privileges
		if err := s.profiles.Update(ctx, tx, profile); err != nil {
			return err
		}

		members, err := s.users.ListByProfile(ctx, tx, id)
		if err != nil {
			return err
		}
		for i := range members {
			if err := s.resyncUser(ctx, tx, &members[i], privileges); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *profileService) resyncUser(ctx context.Context, tx dbx.DBTX, user *domain.User, privileges []string) error {
	if err := s.idp.RevokeAllRoles(ctx, tx, user.ID); err != nil {
		return fmt.Errorf("%w: revoke roles for %s: %v", domain.ErrPrivilegeSync, user.Username, err)
	}
	if err := s.idp.GrantRoles(ctx, tx, user.ID, privileges); err != nil {
		return fmt.Errorf("%w: grant roles for %s: %v", domain.ErrPrivilegeSync, user.Username, err)
	}
	return nil
}

// Delete removes a profile. Deletion is blocked while users still reference
// the profile; the check and the delete share a transaction so a concurrent
// assignment cannot leave a dangling reference.
func (s *profileService) Delete(ctx context.Context, id int64) error {
	return dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.users.CountByProfile(ctx, tx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrProfileInUse
		}
		return s.profiles.Delete(ctx, tx, id)
	})
}

// normalizePrivileges trims, deduplicates and sorts the requested set.
func normalizePrivileges(privileges []string) []string {
	seen := make(map[string]struct{}, len(privileges))
	out := make([]string, 0, len(privileges))
	for _, p := range privileges {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
