package domain

import "time"

// User represents an account managed by the backend. Every user references
// exactly one access profile; the roles granted to the user are kept in sync
// with that profile's privilege set.
type User struct {
	ID           int64
	Username     string
	Name         string
	Email        string
	Phone        string
	Picture      string
	PasswordHash string
	ProfileID    int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Deleted      bool
	Locked       bool
	Hidden       bool
}

// UserSummary is the listing projection of a user joined with its profile name.
type UserSummary struct {
	ID          int64
	Username    string
	Name        string
	Email       string
	Phone       string
	Picture     string
	ProfileID   int64
	ProfileName string
}
