// Package visibility computes which incidents a caller may read.
//
// The role rules are expressed as a Predicate value so they can be unit tested
// without a store, evaluated in memory, or rendered as SQL by the repository.
package visibility

import (
	"sort"
	"strings"

	"github.com/spec-kit/incident-service/internal/domain"
	apperrors "github.com/spec-kit/incident-service/pkg/util/errorutil"
)

// DefaultLimit caps list results.
const DefaultLimit = 200

// Query carries the optional caller supplied filters.
type Query struct {
	Statuses        []domain.Status
	Priorities      []domain.Priority
	Sectors         []domain.Sector
	SubCategory     string
	AssignedStaffID string
	Search          string
}

// StaffScope is the staff triage clause: own sector OR own assignment OR unclaimed.
type StaffScope struct {
	Sector  domain.Sector
	StaffID string
}

// Predicate is the full read filter: a role clause intersected with the
// caller's explicit filters.
type Predicate struct {
	AllowedStatuses []domain.Status
	AllowedSectors  []domain.Sector
	Staff           *StaffScope

	Statuses        []domain.Status
	Priorities      []domain.Priority
	Sectors         []domain.Sector
	SubCategory     string
	AssignedStaffID string
	Search          string

	Limit int
}

// Compute builds the predicate for identity. limit <= 0 selects DefaultLimit.
func Compute(identity domain.Identity, q Query, limit int) (Predicate, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	p := Predicate{
		Statuses:        q.Statuses,
		Priorities:      q.Priorities,
		Sectors:         q.Sectors,
		SubCategory:     strings.TrimSpace(q.SubCategory),
		AssignedStaffID: strings.TrimSpace(q.AssignedStaffID),
		Search:          strings.TrimSpace(q.Search),
		Limit:           limit,
	}

	switch identity.Role {
	case domain.RolePassenger:
		p.AllowedStatuses = []domain.Status{domain.StatusRed, domain.StatusGreen}
		p.AllowedSectors = append([]domain.Sector(nil), domain.PassengerSectors...)
	case domain.RoleStaff:
		scope := &StaffScope{StaffID: identity.StaffID}
		if sector, ok := identity.Department.Sector(); ok {
			scope.Sector = sector
		}
		p.Staff = scope
	default:
		return Predicate{}, apperrors.NewForbidden("unknown role")
	}
	return p, nil
}

// Matches evaluates the predicate against a single incident.
func (p Predicate) Matches(inc *domain.Incident) bool {
	if len(p.AllowedStatuses) > 0 && !containsStatus(p.AllowedStatuses, inc.Status) {
		return false
	}
	if len(p.AllowedSectors) > 0 && !containsSector(p.AllowedSectors, inc.Sector) {
		return false
	}
	if p.Staff != nil && !p.Staff.matches(inc) {
		return false
	}
	if len(p.Statuses) > 0 && !containsStatus(p.Statuses, inc.Status) {
		return false
	}
	if len(p.Priorities) > 0 && !containsPriority(p.Priorities, inc.Priority) {
		return false
	}
	if len(p.Sectors) > 0 && !containsSector(p.Sectors, inc.Sector) {
		return false
	}
	if p.SubCategory != "" && !strings.EqualFold(p.SubCategory, inc.SubCategory) {
		return false
	}
	if p.AssignedStaffID != "" && !inc.AssignedTo(p.AssignedStaffID) {
		return false
	}
	if p.Search != "" {
		term := strings.ToLower(p.Search)
		if !strings.Contains(strings.ToLower(inc.Title), term) &&
			!strings.Contains(strings.ToLower(inc.Description), term) &&
			!strings.Contains(strings.ToLower(inc.Location), term) {
			return false
		}
	}
	return true
}

func (s *StaffScope) matches(inc *domain.Incident) bool {
	if inc.Status == domain.StatusRed {
		return true
	}
	if s.Sector != "" && inc.Sector == s.Sector {
		return true
	}
	return s.StaffID != "" && inc.AssignedTo(s.StaffID)
}

// Sort orders incidents by priority, then emergencies, then newest first.
func Sort(incidents []domain.Incident) {
	sort.SliceStable(incidents, func(i, j int) bool {
		a, b := incidents[i], incidents[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		if a.IsEmergency != b.IsEmergency {
			return a.IsEmergency
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func containsStatus(list []domain.Status, v domain.Status) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsSector(list []domain.Sector, v domain.Sector) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.Priority, v domain.Priority) bool {
	for _, p := range list {
		if p == v {
			return true
		}
	}
	return false
}
