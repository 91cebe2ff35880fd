package model

import (
	"fmt"
	"time"
)

// User represents an authentication user.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	AllowedUnits []string   `json:"allowed_units"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Principal is the part of a user that access decisions depend on.
type Principal struct {
	Username     string
	Role         string
	AllowedUnits []string
}

// Principal returns the access-relevant view of the user.
func (u *User) Principal() Principal {
	return Principal{Username: u.Username, Role: u.Role, AllowedUnits: u.AllowedUnits}
}

// Roles.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleEditor || role == RoleViewer
}

// NormalizeRole maps missing or unknown roles to the most restrictive one.
func NormalizeRole(role string) string {
	if ValidRole(role) {
		return role
	}
	return RoleViewer
}

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:  3,
		RoleEditor: 2,
		RoleViewer: 1,
	}
	have, ok := levels[role]
	need, known := levels[minimum]
	return ok && known && have >= need
}

// ValidatePassword checks the password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
