package domain

import (
	"strings"
	"time"
)

// Role enumerates the two caller roles.
type Role string

const (
	RolePassenger Role = "passenger"
	RoleStaff     Role = "staff"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RolePassenger || r == RoleStaff
}

// User is an account in the identity store.
type User struct {
	ID                  string
	Name                string
	Email               string
	PasswordHash        string
	Role                Role
	StaffID             *string
	Department          *Department
	Phone               *string
	ResetToken          *string
	ResetTokenExpiresAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Identity returns the caller identity carried in tokens for this user.
func (u *User) Identity() Identity {
	id := Identity{
		SubjectID: u.ID,
		Role:      u.Role,
		Name:      u.Name,
		Email:     u.Email,
	}
	if u.StaffID != nil {
		id.StaffID = *u.StaffID
	}
	if u.Department != nil {
		id.Department = *u.Department
	}
	return id
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
