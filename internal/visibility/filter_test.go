package visibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/incident-service/internal/domain"
	apperrors "github.com/spec-kit/incident-service/pkg/util/errorutil"
)

func strPtr(s string) *string { return &s }

func fixture() []domain.Incident {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var out []domain.Incident
	i := 0
	for _, sector := range domain.Sectors {
		for _, status := range []domain.Status{domain.StatusRed, domain.StatusYellow, domain.StatusGreen} {
			inc := domain.Incident{
				ID:        string(sector) + "-" + string(status),
				Title:     "issue in " + string(sector),
				Location:  "Gate B12",
				Sector:    sector,
				Status:    status,
				Priority:  domain.PriorityMedium,
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}
			if status != domain.StatusRed {
				inc.AssignedStaffID = strPtr("STF-OTHER1")
			}
			out = append(out, inc)
			i++
		}
	}
	return out
}

func TestPassengerNeverSeesYellowOrInternalSectors(t *testing.T) {
	p, err := Compute(domain.Identity{Role: domain.RolePassenger}, Query{}, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, p.Limit)

	seen := 0
	for _, inc := range fixture() {
		inc := inc
		if !p.Matches(&inc) {
			continue
		}
		seen++
		assert.NotEqual(t, domain.StatusYellow, inc.Status)
		assert.Contains(t, domain.PassengerSectors, inc.Sector)
	}
	assert.Equal(t, 6, seen)
}

func TestPassengerExplicitYellowFilterYieldsNothing(t *testing.T) {
	p, err := Compute(domain.Identity{Role: domain.RolePassenger}, Query{Statuses: []domain.Status{domain.StatusYellow}}, 0)
	require.NoError(t, err)
	for _, inc := range fixture() {
		inc := inc
		assert.False(t, p.Matches(&inc), inc.ID)
	}
}

func TestStaffSeesOwnSectorOwnAssignmentsAndUnclaimed(t *testing.T) {
	identity := domain.Identity{Role: domain.RoleStaff, StaffID: "STF-ME0001", Department: domain.DepartmentSecurity}
	p, err := Compute(identity, Query{}, 0)
	require.NoError(t, err)

	mine := domain.Incident{Sector: domain.SectorSanitation, Status: domain.StatusYellow, AssignedStaffID: strPtr("STF-ME0001")}
	assert.True(t, p.Matches(&mine))

	for _, inc := range fixture() {
		inc := inc
		want := inc.Status == domain.StatusRed || inc.Sector == domain.SectorSecurity
		assert.Equal(t, want, p.Matches(&inc), inc.ID)
	}
}

func TestMaintenanceStaffHasNoSectorClause(t *testing.T) {
	identity := domain.Identity{Role: domain.RoleStaff, StaffID: "STF-MAINT1", Department: domain.DepartmentMaintenance}
	p, err := Compute(identity, Query{}, 0)
	require.NoError(t, err)

	for _, inc := range fixture() {
		inc := inc
		assert.Equal(t, inc.Status == domain.StatusRed, p.Matches(&inc), inc.ID)
	}
}

func TestStaffStatusFilterNarrows(t *testing.T) {
	identity := domain.Identity{Role: domain.RoleStaff, StaffID: "STF-ME0001", Department: domain.DepartmentSecurity}
	p, err := Compute(identity, Query{Statuses: []domain.Status{domain.StatusGreen}}, 0)
	require.NoError(t, err)

	for _, inc := range fixture() {
		inc := inc
		want := inc.Status == domain.StatusGreen && inc.Sector == domain.SectorSecurity
		assert.Equal(t, want, p.Matches(&inc), inc.ID)
	}
}

func TestOptionalFiltersIntersect(t *testing.T) {
	identity := domain.Identity{Role: domain.RoleStaff, StaffID: "STF-ME0001", Department: domain.DepartmentSecurity}
	p, err := Compute(identity, Query{
		Priorities:  []domain.Priority{domain.PriorityHigh},
		SubCategory: "unattended baggage",
		Search:      "carousel",
	}, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, p.Limit)

	hit := domain.Incident{
		Sector: domain.SectorSecurity, Status: domain.StatusRed, Priority: domain.PriorityHigh,
		SubCategory: "Unattended baggage", Location: "Carousel 4",
	}
	assert.True(t, p.Matches(&hit))

	miss := hit
	miss.Priority = domain.PriorityLow
	assert.False(t, p.Matches(&miss))

	noText := hit
	noText.Location = "Gate A1"
	assert.False(t, p.Matches(&noText))
}

func TestAssignedStaffFilter(t *testing.T) {
	p, err := Compute(domain.Identity{Role: domain.RoleStaff, StaffID: "STF-ME0001"}, Query{AssignedStaffID: "STF-OTHER1"}, 0)
	require.NoError(t, err)

	claimed := domain.Incident{Status: domain.StatusRed, AssignedStaffID: strPtr("STF-OTHER1")}
	assert.True(t, p.Matches(&claimed))
	unclaimed := domain.Incident{Status: domain.StatusRed}
	assert.False(t, p.Matches(&unclaimed))
}

func TestUnknownRoleIsForbidden(t *testing.T) {
	_, err := Compute(domain.Identity{Role: "admin"}, Query{}, 0)
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN"))
}

func TestSortOrdersByPriorityEmergencyThenNewest(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	list := []domain.Incident{
		{ID: "low-new", Priority: domain.PriorityLow, CreatedAt: base.Add(3 * time.Hour)},
		{ID: "high-old", Priority: domain.PriorityHigh, CreatedAt: base},
		{ID: "high-new", Priority: domain.PriorityHigh, CreatedAt: base.Add(time.Hour)},
		{ID: "high-emergency", Priority: domain.PriorityHigh, IsEmergency: true, CreatedAt: base},
		{ID: "sos", Priority: domain.PrioritySOS, IsEmergency: true, CreatedAt: base},
	}
	Sort(list)

	ids := make([]string, 0, len(list))
	for _, inc := range list {
		ids = append(ids, inc.ID)
	}
	assert.Equal(t, []string{"sos", "high-emergency", "high-new", "high-old", "low-new"}, ids)
}

func TestParseQuery(t *testing.T) {
	q, err := ParseQuery(map[string]string{
		"status":          "red, green",
		"priority":        "sos",
		"sector":          "security",
		"subCategory":     " Lost child ",
		"assignedStaffId": "STF-ABC123",
		"q":               "gate",
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Status{domain.StatusRed, domain.StatusGreen}, q.Statuses)
	assert.Equal(t, []domain.Priority{domain.PrioritySOS}, q.Priorities)
	assert.Equal(t, []domain.Sector{domain.SectorSecurity}, q.Sectors)
	assert.Equal(t, "Lost child", q.SubCategory)
	assert.Equal(t, "STF-ABC123", q.AssignedStaffID)
	assert.Equal(t, "gate", q.Search)

	_, err = ParseQuery(map[string]string{"status": "blue"})
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
	_, err = ParseQuery(map[string]string{"priority": "urgent"})
	assert.Error(t, err)
	_, err = ParseQuery(map[string]string{"sector": "lounge"})
	assert.Error(t, err)
}
