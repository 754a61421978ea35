package repository

import (
	"errors"

	"github.com/spec-kit/incident-service/internal/domain"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken is returned when a user with the same email exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrStaffIDTaken is returned when a generated staff id collides.
	ErrStaffIDTaken = errors.New("staff id already assigned")
	// ErrClaimConflict is returned when another staff member holds the incident.
	ErrClaimConflict = errors.New("incident claimed by another staff member")
	// ErrAlreadyResolved is returned when claiming or resolving a green incident.
	ErrAlreadyResolved = errors.New("incident already resolved")
	// ErrNotClaimed is returned when resolving an incident that is not yellow.
	ErrNotClaimed = errors.New("incident not claimed")
	// ErrNotAssignee is returned when resolving an incident held by someone else.
	ErrNotAssignee = errors.New("incident not assigned to caller")
	// ErrInvalidResetToken is returned for unknown or expired reset tokens.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)

// resolveRefusal explains why current cannot be resolved by staffID.
func resolveRefusal(current *domain.Incident, staffID string) error {
	switch {
	case !current.AssignedTo(staffID):
		return ErrNotAssignee
	case current.Status == domain.StatusGreen:
		return ErrAlreadyResolved
	default:
		return ErrNotClaimed
	}
}
