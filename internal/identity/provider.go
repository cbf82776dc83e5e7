// Package identity implements the identity-provider collaborator: password
// hashing/verification and the role-grant ledger, plus the privilege catalog.
package identity

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"coreseed/internal/dbx"
	"coreseed/internal/domain"
	"coreseed/internal/repository"
)

// Provider bundles credential primitives with role-grant bookkeeping.
// Grant operations take an explicit handle so callers can run them inside the
// same transaction as the surrounding user or profile mutation.
type Provider interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) error
	GrantRoles(ctx context.Context, q dbx.DBTX, userID int64, roles []string) error
	RevokeAllRoles(ctx context.Context, q dbx.DBTX, userID int64) error
	ListRoles(ctx context.Context, q dbx.DBTX, userID int64) ([]string, error)
	Catalog() *Catalog
}

type provider struct {
	grants  repository.GrantRepository
	catalog *Catalog
}

// NewProvider wires the grant ledger and the privilege catalog into a Provider.
func NewProvider(grants repository.GrantRepository, catalog *Catalog) Provider {
	return &provider{grants: grants, catalog: catalog}
}

func (p *provider) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (p *provider) VerifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GrantRoles grants the given roles after checking them against the catalog.
func (p *provider) GrantRoles(ctx context.Context, q dbx.DBTX, userID int64, roles []string) error {
	if unknown := p.catalog.Validate(roles); len(unknown) > 0 {
		return domain.NewValidationError("privileges", fmt.Sprintf("unknown privileges: %v", unknown))
	}
	return p.grants.Grant(ctx, q, userID, roles)
}

func (p *provider) RevokeAllRoles(ctx context.Context, q dbx.DBTX, userID int64) error {
	return p.grants.RevokeAll(ctx, q, userID)
}

func (p *provider) ListRoles(ctx context.Context, q dbx.DBTX, userID int64) ([]string, error) {
	return p.grants.ListByUser(ctx, q, userID)
}

func (p *provider) Catalog() *Catalog {
	return p.catalog
}
