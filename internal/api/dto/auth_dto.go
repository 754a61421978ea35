package dto

import (
	"time"

	"github.com/spec-kit/incident-service/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Password   string            `json:"password"`
	Role       domain.Role       `json:"role"`
	Department domain.Department `json:"department"`
	Phone      string            `json:"phone"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordResetRequest payload to start the reset flow.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload to finish the reset flow.
type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ChangePasswordRequest payload for authenticated password changes.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// PublicUser is the account view returned to clients.
type PublicUser struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Email      string             `json:"email"`
	Role       domain.Role        `json:"role"`
	StaffID    *string            `json:"staffId,omitempty"`
	Department *domain.Department `json:"department,omitempty"`
	Phone      *string            `json:"phone,omitempty"`
}

// AuthResponse standard response for register and login.
type AuthResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      PublicUser `json:"user"`
}

// IdentityResponse describes the caller as carried by the token.
type IdentityResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Role       domain.Role       `json:"role"`
	StaffID    string            `json:"staffId,omitempty"`
	Department domain.Department `json:"department,omitempty"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewPublicUser maps a stored user to its public view.
func NewPublicUser(user *domain.User) PublicUser {
	return PublicUser{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		StaffID:    user.StaffID,
		Department: user.Department,
		Phone:      user.Phone,
	}
}

// NewIdentityResponse maps a caller identity.
func NewIdentityResponse(identity *domain.Identity) IdentityResponse {
	return IdentityResponse{
		ID:         identity.SubjectID,
		Name:       identity.Name,
		Email:      identity.Email,
		Role:       identity.Role,
		StaffID:    identity.StaffID,
		Department: identity.Department,
	}
}
