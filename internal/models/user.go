package models

import "time"

// UserRole gates access to admin and submission endpoints
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleAnalyst UserRole = "analyst"
	RoleViewer  UserRole = "viewer"
)

// User is a dashboard account. Passwords are stored as bcrypt hashes.
type User struct {
	Username     string     `json:"username" badgerhold:"key"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         UserRole   `json:"role"`
	IsActive     bool       `json:"isActive"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// CanSubmit reports whether the role may create or retry exports
func (r UserRole) CanSubmit() bool {
	return r == RoleAdmin || r == RoleAnalyst
}

// CanAdminister reports whether the role may use admin endpoints
func (r UserRole) CanAdminister() bool {
	return r == RoleAdmin
}
