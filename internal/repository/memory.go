package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/visibility"
)

// MemoryUserRepository is an in-process identity store used when no database
// is configured and in tests. It implements UserRepository and
// PasswordResetRepository.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
	now   func() time.Time
}

// NewMemoryUserRepository returns an empty store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.User), now: time.Now}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := domain.NormalizeEmail(user.Email)
	for _, existing := range r.users {
		if existing.Email == email {
			return ErrEmailTaken
		}
		if user.StaffID != nil && existing.StaffID != nil && *existing.StaffID == *user.StaffID {
			return ErrStaffIDTaken
		}
	}

	now := r.now()
	user.ID = uuid.NewString()
	user.Email = email
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *MemoryUserRepository) GetByStaffID(_ context.Context, staffID string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.StaffID != nil && *u.StaffID == staffID })
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = r.now()
	r.users[id] = user
	return nil
}

func (r *MemoryUserRepository) Issue(_ context.Context, userID, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.ResetToken = &token
	user.ResetTokenExpiresAt = &expiresAt
	user.UpdatedAt = r.now()
	r.users[userID] = user
	return nil
}

func (r *MemoryUserRepository) Consume(_ context.Context, token, passwordHash string, now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, user := range r.users {
		if user.ResetToken == nil || *user.ResetToken != token {
			continue
		}
		if user.ResetTokenExpiresAt == nil || !user.ResetTokenExpiresAt.After(now) {
			return "", ErrInvalidResetToken
		}
		user.PasswordHash = passwordHash
		user.ResetToken = nil
		user.ResetTokenExpiresAt = nil
		user.UpdatedAt = r.now()
		r.users[id] = user
		return id, nil
	}
	return "", ErrInvalidResetToken
}

func (r *MemoryUserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		user := user
		if match(&user) {
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

// MemoryIncidentRepository is an in-process incident store. Every mutation
// runs under one lock, which gives Claim and Resolve the same
// compare-and-swap semantics as the conditional UPDATE in Postgres.
type MemoryIncidentRepository struct {
	mu        sync.RWMutex
	incidents map[string]domain.Incident
	now       func() time.Time
}

// NewMemoryIncidentRepository returns an empty store.
func NewMemoryIncidentRepository() *MemoryIncidentRepository {
	return &MemoryIncidentRepository{incidents: make(map[string]domain.Incident), now: time.Now}
}

func (r *MemoryIncidentRepository) Create(_ context.Context, incident *domain.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	incident.ID = uuid.NewString()
	incident.CreatedAt = now
	incident.UpdatedAt = now
	r.incidents[incident.ID] = *incident
	return nil
}

func (r *MemoryIncidentRepository) GetByID(_ context.Context, id string) (*domain.Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	incident, ok := r.incidents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &incident, nil
}

func (r *MemoryIncidentRepository) List(_ context.Context, predicate visibility.Predicate) ([]domain.Incident, error) {
	r.mu.RLock()
	result := []domain.Incident{}
	for _, incident := range r.incidents {
		incident := incident
		if predicate.Matches(&incident) {
			result = append(result, incident)
		}
	}
	r.mu.RUnlock()

	visibility.Sort(result)
	limit := predicate.Limit
	if limit <= 0 {
		limit = visibility.DefaultLimit
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *MemoryIncidentRepository) Update(_ context.Context, id string, fields []string, changes *domain.Incident) (*domain.Incident, error) {
	resolved, err := lookupIncidentFields(fields)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.incidents[id]
	if !ok {
		return nil, ErrNotFound
	}
	if len(resolved) == 0 {
		return &current, nil
	}
	for _, field := range resolved {
		field.copy(&current, changes)
	}
	current.UpdatedAt = r.now()
	r.incidents[id] = current
	return &current, nil
}

func (r *MemoryIncidentRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.incidents[id]; !ok {
		return ErrNotFound
	}
	delete(r.incidents, id)
	return nil
}

func (r *MemoryIncidentRepository) Claim(_ context.Context, id string, claimant domain.Claimant) (*domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	incident, ok := r.incidents[id]
	if !ok {
		return nil, ErrNotFound
	}
	if incident.Status == domain.StatusGreen {
		return &incident, ErrAlreadyResolved
	}
	if incident.AssignedStaffID != nil && *incident.AssignedStaffID != claimant.StaffID {
		return &incident, ErrClaimConflict
	}

	staffID, name := claimant.StaffID, claimant.Name
	incident.AssignedStaffID = &staffID
	incident.AssignedStaffName = &name
	incident.AssignedDepartment = nullIfEmpty(claimant.Department)
	incident.Status = domain.StatusYellow
	incident.UpdatedAt = r.now()
	r.incidents[id] = incident
	return &incident, nil
}

func (r *MemoryIncidentRepository) Resolve(_ context.Context, id, staffID, notes string, resolvedAt time.Time) (*domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	incident, ok := r.incidents[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !incident.AssignedTo(staffID) || incident.Status != domain.StatusYellow {
		return &incident, resolveRefusal(&incident, staffID)
	}
	incident.Status = domain.StatusGreen
	incident.ResolutionNotes = &notes
	incident.ActualResolutionTime = &resolvedAt
	incident.UpdatedAt = r.now()
	r.incidents[id] = incident
	return &incident, nil
}
