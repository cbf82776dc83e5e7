package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"coreseed/internal/auth"
	"coreseed/internal/dbx"
	"coreseed/internal/domain"
	"coreseed/internal/identity"
	"coreseed/internal/repository"
)

const minPasswordLength = 6

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Username string
	Token    string
}

// RegisterParams carries the fields for provisioning a new user.
type RegisterParams struct {
	Username  string
	Name      string
	Email     string
	Password  string
	Phone     string
	ProfileID int64
}

// UpdateParams carries the fields for maintaining an existing user.
// NewPassword is optional; when empty the credential is left untouched.
type UpdateParams struct {
	Username    string
	Name        string
	Email       string
	Phone       string
	ProfileID   int64
	NewPassword string
}

// UserService verifies credentials, issues claims tokens, and maintains user
// accounts while keeping role grants consistent with the assigned profile.
type UserService interface {
	Authenticate(ctx context.Context, username, password string) (*LoginResult, error)
	Register(ctx context.Context, params RegisterParams) (int64, error)
	Update(ctx context.Context, params UpdateParams) error
	Delete(ctx context.Context, username string) error
	Get(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.UserSummary, error)
	SetPicture(ctx context.Context, username, picture string) error
	Privileges() []string
}

type userService struct {
	db       *sql.DB
	users    repository.UserRepository
	profiles repository.ProfileRepository
	idp      identity.Provider
	signer   *auth.Signer
}

func NewUserService(db *sql.DB, users repository.UserRepository, profiles repository.ProfileRepository, idp identity.Provider, signer *auth.Signer) UserService {
	return &userService{
		db:       db,
		users:    users,
		profiles: profiles,
		idp:      idp,
		signer:   signer,
	}
}

// Authenticate verifies the credentials and mints a signed claims token.
// An unknown username and a wrong password are indistinguishable to the caller.
func (s *userService) Authenticate(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, s.db, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.idp.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	roles, err := s.idp.ListRoles(ctx, s.db, user.ID)
	if err != nil {
		return nil, err
	}

	profileName := ""
	if profile, err := s.profiles.Get(ctx, s.db, user.ProfileID); err == nil {
		profileName = profile.Name
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	token, err := s.signer.Sign(auth.Claims{
		Roles:    roles,
		Username: user.Username,
		Profile:  profileName,
		Email:    user.Email,
		Phone:    user.Phone,
		FullName: user.Name,
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{Username: user.Username, Token: token}, nil
}

// Register creates the identity record and grants the referenced profile's
// privilege set to the new user, all in one transaction.
func (s *userService) Register(ctx context.Context, params RegisterParams) (int64, error) {
	params.Username = strings.TrimSpace(params.Username)
	params.Name = strings.TrimSpace(params.Name)

	var reasons []string
	if params.Username == "" {
		reasons = append(reasons, "username is required")
	}
	if params.Name == "" {
		reasons = append(reasons, "name is required")
	}
	if len(params.Password) < minPasswordLength {
		reasons = append(reasons, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if len(reasons) > 0 {
		return 0, &domain.RegistrationError{Reasons: reasons}
	}

	hash, err := s.idp.HashPassword(params.Password)
	if err != nil {
		return 0, err
	}

	user := &domain.User{
		Username:     params.Username,
		Name:         params.Name,
		Email:        params.Email,
		Phone:        params.Phone,
		PasswordHash: hash,
		ProfileID:    params.ProfileID,
	}

	err = dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.users.Create(ctx, tx, user); err != nil {
			if errors.Is(err, domain.ErrUserExists) {
				return &domain.RegistrationError{Reasons: []string{"username is already taken"}}
			}
			return err
		}
		return s.syncProfileRoles(ctx, tx, user)
	})
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// Update applies field changes, resynchronizes the user's roles with the
// (possibly new) profile, and optionally replaces the password credential.
// The hash overwrite is a single statement inside the same transaction, so a
// failed update never leaves the user without a password.
func (s *userService) Update(ctx context.Context, params UpdateParams) error {
	params.Username = strings.TrimSpace(params.Username)
	if params.Username == "" {
		return domain.NewValidationError("username", "username is required")
	}
	if params.NewPassword != "" && len(params.NewPassword) < minPasswordLength {
		return domain.NewValidationError("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	return dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.users.GetByUsername(ctx, tx, params.Username)
		if err != nil {
			return err
		}

		user.Name = params.Name
		user.Email = params.Email
		user.Phone = params.Phone
		user.ProfileID = params.ProfileID
		if err := s.users.Update(ctx, tx, user); err != nil {
			return err
		}

		if err := s.syncProfileRoles(ctx, tx, user); err != nil {
			return err
		}

		if params.NewPassword != "" {
			hash, err := s.idp.HashPassword(params.NewPassword)
			if err != nil {
				return err
			}
			if err := s.users.UpdatePasswordHash(ctx, tx, user.ID, hash); err != nil {
				return err
			}
		}
		return nil
	})
}

// syncProfileRoles clears the user's granted roles and grants exactly the
// current privilege set of the user's profile. A missing profile row leaves
// the user with no roles rather than stale ones.
func (s *userService) syncProfileRoles(ctx context.Context, tx dbx.DBTX, user *domain.User) error {
	if err := s.idp.RevokeAllRoles(ctx, tx, user.ID); err != nil {
		return fmt.Errorf("%w: revoke roles for %s: %v", domain.ErrPrivilegeSync, user.Username, err)
	}

	profile, err := s.profiles.Get(ctx, tx, user.ProfileID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.idp.GrantRoles(ctx, tx, user.ID, profile.Privileges); err != nil {
		return fmt.Errorf("%w: grant roles for %s: %v", domain.ErrPrivilegeSync, user.Username, err)
	}
	return nil
}

func (s *userService) Delete(ctx context.Context, username string) error {
	return dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.users.GetByUsername(ctx, tx, username)
		if err != nil {
			return err
		}
		// role grants cascade with the user row
		return s.users.Delete(ctx, tx, user.ID)
	})
}

func (s *userService) Get(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, s.db, username)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) List(ctx context.Context) ([]domain.UserSummary, error) {
	return s.users.ListSummaries(ctx, s.db)
}

func (s *userService) SetPicture(ctx context.Context, username, picture string) error {
	user, err := s.users.GetByUsername(ctx, s.db, username)
	if err != nil {
		return err
	}
	return s.users.SetPicture(ctx, s.db, user.ID, picture)
}

// Privileges returns the full catalog of role names known to the identity provider.
func (s *userService) Privileges() []string {
	return s.idp.Catalog().Names()
}
