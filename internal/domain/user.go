package domain

import (
	"context"
	"time"
)

// Role determines which dashboard subtree a viewer may access.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ValidRoles returns all known roles
func ValidRoles() []Role {
	return []Role{RolePatient, RoleDoctor, RoleAdmin}
}

// IsValid checks if the role is one of the known roles
func (r Role) IsValid() bool {
	for _, valid := range ValidRoles() {
		if r == valid {
			return true
		}
	}
	return false
}

type User struct {
	ID        string    `json:"id"` // Supabase UUID
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, user *User) error
}

// Viewer is the identity plus profile state resolved for one request.
// Profile is nil when no profile row exists yet; ProfileErr is set when the
// profile could not be read at all.
type Viewer struct {
	User       *User    `json:"user"`
	Profile    *Profile `json:"profile,omitempty"`
	ProfileErr error    `json:"-"`
}

type AuthUsecase interface {
	EnsureUserExists(ctx context.Context, user *User) error
	AssignRole(ctx context.Context, userID string, role Role) error
	GetCurrentUser(ctx context.Context, id string) (*User, error)
	ResolveViewer(ctx context.Context, userID string) (*Viewer, error)
}
