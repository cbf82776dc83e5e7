package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrProfileExists is returned when a profile name is already taken.
	ErrProfileExists = errors.New("profile already exists")
	// ErrProfileInUse is returned when deleting a profile still referenced by users.
	ErrProfileInUse = errors.New("profile is referenced by users")
	// ErrUserExists is returned when a username is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials indicates a failed login. It is deliberately the
	// same for an unknown username and a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrPrivilegeSync indicates a role-resync step failed and the operation
	// was rolled back to the prior consistent state.
	ErrPrivilegeSync = errors.New("privilege sync failed")
	// ErrStorageNotConfigured indicates no object storage bucket is configured.
	ErrStorageNotConfigured = errors.New("object storage not configured")
)

// ValidationError reports malformed or missing input for a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RegistrationError aggregates the reasons the identity layer rejected a
// registration or update, e.g. a weak password plus a taken username.
type RegistrationError struct {
	Reasons []string
}

func (e *RegistrationError) Error() string {
	return "registration failed: " + strings.Join(e.Reasons, "; ")
}
