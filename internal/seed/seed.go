// Package seed provisions the records a fresh installation needs: the locked
// Administrator profile, the initial Admin account, and default org settings.
package seed

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sirupsen/logrus"

	"coreseed/internal/dbx"
	"coreseed/internal/domain"
	"coreseed/internal/identity"
	"coreseed/internal/repository"
)

const (
	adminProfileName = "Administrator"
	adminUsername    = "Admin"
)

// Seeder ensures baseline records exist. Every step is idempotent, so running
// it on each start is safe.
type Seeder struct {
	db       *sql.DB
	profiles repository.ProfileRepository
	users    repository.UserRepository
	settings repository.SettingRepository
	idp      identity.Provider
	logger   *logrus.Logger
}

func New(db *sql.DB, profiles repository.ProfileRepository, users repository.UserRepository, settings repository.SettingRepository, idp identity.Provider, logger *logrus.Logger) *Seeder {
	return &Seeder{
		db:       db,
		profiles: profiles,
		users:    users,
		settings: settings,
		idp:      idp,
		logger:   logger,
	}
}

// Run seeds the admin profile, the admin user (when adminPassword is set) and
// the default organization settings.
func (s *Seeder) Run(ctx context.Context, adminPassword string) error {
	profileID, err := s.ensureAdminProfile(ctx)
	if err != nil {
		return err
	}

	if adminPassword == "" {
		s.logger.Warn("admin password not configured, skipping admin user seed")
	} else if err := s.ensureAdminUser(ctx, profileID, adminPassword); err != nil {
		return err
	}

	return s.ensureSettings(ctx)
}

func (s *Seeder) ensureAdminProfile(ctx context.Context) (int64, error) {
	profile, err := s.profiles.GetByName(ctx, s.db, adminProfileName)
	if err == nil {
		return profile.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return 0, err
	}

	id, err := s.profiles.Create(ctx, s.db, &domain.Profile{
		Name:        adminProfileName,
		Description: "Administrator Role",
		Privileges:  s.idp.Catalog().Names(),
		Locked:      true,
	})
	if err != nil {
		return 0, err
	}
	s.logger.Infof("seeded profile %q", adminProfileName)
	return id, nil
}

func (s *Seeder) ensureAdminUser(ctx context.Context, profileID int64, password string) error {
	if _, err := s.users.GetByUsername(ctx, s.db, adminUsername); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := s.idp.HashPassword(password)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		user := &domain.User{
			Username:     adminUsername,
			Name:         "Administrator",
			Email:        "info@coreseed.local",
			Phone:        "0000000000",
			PasswordHash: hash,
			ProfileID:    profileID,
		}
		if _, err := s.users.Create(ctx, tx, user); err != nil {
			return err
		}
		return s.idp.GrantRoles(ctx, tx, user.ID, s.idp.Catalog().Names())
	})
	if err != nil {
		return err
	}
	s.logger.Infof("seeded user %q", adminUsername)
	return nil
}

func (s *Seeder) ensureSettings(ctx context.Context) error {
	defaults := []domain.Setting{
		{Name: domain.SettingOrganizationName, Value: "Seed Ltd"},
		{Name: domain.SettingOrganizationAddress, Value: ""},
		{Name: domain.SettingOrganizationEmail, Value: "info@coreseed.local"},
		{Name: domain.SettingOrganizationTelephone, Value: ""},
	}

	for i := range defaults {
		if _, err := s.settings.GetByName(ctx, s.db, defaults[i].Name); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if err := s.settings.Upsert(ctx, s.db, &defaults[i]); err != nil {
			return err
		}
	}
	return nil
}
