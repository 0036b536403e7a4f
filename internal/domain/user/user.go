// Package user defines the user domain model for authentication.
package user

import (
	"errors"
	"net/mail"
	"time"

	"github.com/openshelf/openshelf/internal/domain/actor"
)

// User represents a registered account. A super-admin is an admin-role user
// with no tenant assigned.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"` // never serialized
	Role         actor.Role `json:"role"`
	TenantID     string     `json:"tenant_id,omitempty"`
	Enabled      bool       `json:"enabled"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsSuperAdmin reports whether this account is a platform operator.
func (u *User) IsSuperAdmin() bool {
	return u.Role == actor.RoleAdmin && u.TenantID == ""
}

// Actor returns the request principal this user authenticates as.
func (u *User) Actor() actor.Actor {
	if u.IsSuperAdmin() {
		return actor.SuperAdmin(u.ID)
	}
	return actor.TenantUser(u.ID, u.TenantID, u.Role)
}

// CreateRequest is the input for registering a new user.
type CreateRequest struct {
	Email    string     `json:"email"`
	Name     string     `json:"name"`
	Password string     `json:"password"`
	Role     actor.Role `json:"role"`
	TenantID string     `json:"tenant_id,omitempty"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if len(r.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if !actor.ValidRoles[r.Role] {
		return errors.New("invalid role: must be user, manager, or admin")
	}
	return nil
}

// LoginRequest is the input for authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks required fields.
func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}
