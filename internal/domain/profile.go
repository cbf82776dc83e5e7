package domain

// Profile is a named, reusable bundle of privileges assignable to many users.
// Privileges are stored comma-joined on the row; the domain type carries them
// as a slice with set semantics (order irrelevant, no duplicates).
type Profile struct {
	ID          int64
	Name        string
	Description string
	Privileges  []string
	Locked      bool
	Hidden      bool
}
