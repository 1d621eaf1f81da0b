package domain

import "time"

// Role enumerates account roles in the marketplace.
type Role string

const (
	RoleConsumer Role = "consumer"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the enumerated values.
func (r Role) Valid() bool {
	switch r {
	case RoleConsumer, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

// Account is the identity record behind every marketplace principal.
// The password hash is opaque and never serialized outward; the role is
// assigned at registration and immutable afterwards.
type Account struct {
	ID           int64
	Email        string
	PhoneNumber  *string
	PasswordHash string
	Role         Role
	Active       bool
	Verified     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
