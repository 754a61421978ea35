package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/visibility"
)

func TestBuildIncidentWherePassenger(t *testing.T) {
	p, err := visibility.Compute(domain.Identity{Role: domain.RolePassenger}, visibility.Query{}, 0)
	require.NoError(t, err)

	where, args := buildIncidentWhere(p)
	assert.Equal(t, "1=1 AND status = ANY($1) AND sector = ANY($2)", where)
	require.Len(t, args, 2)
	assert.Equal(t, []string{"red", "green"}, args[0])
	assert.Equal(t, []string{"passenger_boarding", "passenger_arrivals", "sos_portal"}, args[1])
}

func TestBuildIncidentWhereStaffScope(t *testing.T) {
	identity := domain.Identity{Role: domain.RoleStaff, StaffID: "STF-AB12CD", Department: domain.DepartmentSanitation}
	p, err := visibility.Compute(identity, visibility.Query{Statuses: []domain.Status{domain.StatusYellow}}, 0)
	require.NoError(t, err)

	where, args := buildIncidentWhere(p)
	assert.Equal(t,
		"1=1 AND (status = 'red' OR sector = $1 OR assigned_staff_id = $2) AND status = ANY($3)", where)
	assert.Equal(t, []any{"sanitation", "STF-AB12CD", []string{"yellow"}}, args)
}

func TestBuildIncidentWhereMaintenanceOmitsSector(t *testing.T) {
	identity := domain.Identity{Role: domain.RoleStaff, StaffID: "STF-MNT001", Department: domain.DepartmentMaintenance}
	p, err := visibility.Compute(identity, visibility.Query{}, 0)
	require.NoError(t, err)

	where, args := buildIncidentWhere(p)
	assert.Equal(t, "1=1 AND (status = 'red' OR assigned_staff_id = $1)", where)
	assert.Equal(t, []any{"STF-MNT001"}, args)
}

func TestBuildIncidentWhereOptionalFilters(t *testing.T) {
	p := visibility.Predicate{
		Priorities:      []domain.Priority{domain.PrioritySOS, domain.PriorityCritical},
		Sectors:         []domain.Sector{domain.SectorSecurity},
		SubCategory:     "Lost child",
		AssignedStaffID: "STF-XY99ZZ",
		Search:          "50%_off",
	}
	where, args := buildIncidentWhere(p)
	assert.Equal(t,
		"1=1 AND priority = ANY($1) AND sector = ANY($2) AND LOWER(sub_category) = LOWER($3)"+
			" AND assigned_staff_id = $4"+
			" AND (LOWER(title) LIKE $5 OR LOWER(description) LIKE $5 OR LOWER(location) LIKE $5)",
		where)
	require.Len(t, args, 5)
	assert.Equal(t, `%50\%\_off%`, args[4])
}

func TestBuildIncidentUpdateWritesNamedColumnsOnly(t *testing.T) {
	changes := &domain.Incident{Title: "Spill cleaned", Sector: domain.SectorSOSPortal, Priority: domain.PrioritySOS}
	query, args, err := buildIncidentUpdate("inc-1", []string{"title", "sector", "priority", "title"}, changes)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(query,
		"UPDATE incidents SET title=$1, sector=$2, priority=$3, updated_at=NOW() WHERE id=$4 RETURNING "))
	assert.NotContains(t, query, "status=")
	assert.NotContains(t, query, "assigned_staff_id=")
	assert.Equal(t, []any{"Spill cleaned", "sos_portal", "sos", "inc-1"}, args)
}

func TestBuildIncidentUpdateRejectsUnknownField(t *testing.T) {
	_, _, err := buildIncidentUpdate("inc-1", []string{"reporterId"}, &domain.Incident{})
	assert.Error(t, err)
}
