package repository

import (
	"fmt"
	"strings"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/visibility"
)

const incidentOrderBy = `CASE priority
            WHEN 'sos' THEN 5 WHEN 'critical' THEN 4 WHEN 'high' THEN 3
            WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END DESC,
        is_emergency DESC, created_at DESC`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildIncidentWhere renders a visibility predicate as a SQL condition with
// positional arguments. It mirrors visibility.Predicate.Matches.
func buildIncidentWhere(p visibility.Predicate) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	bind := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(p.AllowedStatuses) > 0 {
		clauses = append(clauses, "status = ANY("+bind(statusStrings(p.AllowedStatuses))+")")
	}
	if len(p.AllowedSectors) > 0 {
		clauses = append(clauses, "sector = ANY("+bind(sectorStrings(p.AllowedSectors))+")")
	}
	if p.Staff != nil {
		scope := []string{"status = 'red'"}
		if p.Staff.Sector != "" {
			scope = append(scope, "sector = "+bind(string(p.Staff.Sector)))
		}
		if p.Staff.StaffID != "" {
			scope = append(scope, "assigned_staff_id = "+bind(p.Staff.StaffID))
		}
		clauses = append(clauses, "("+strings.Join(scope, " OR ")+")")
	}
	if len(p.Statuses) > 0 {
		clauses = append(clauses, "status = ANY("+bind(statusStrings(p.Statuses))+")")
	}
	if len(p.Priorities) > 0 {
		values := make([]string, len(p.Priorities))
		for i, pr := range p.Priorities {
			values[i] = string(pr)
		}
		clauses = append(clauses, "priority = ANY("+bind(values)+")")
	}
	if len(p.Sectors) > 0 {
		clauses = append(clauses, "sector = ANY("+bind(sectorStrings(p.Sectors))+")")
	}
	if p.SubCategory != "" {
		clauses = append(clauses, "LOWER(sub_category) = LOWER("+bind(p.SubCategory)+")")
	}
	if p.AssignedStaffID != "" {
		clauses = append(clauses, "assigned_staff_id = "+bind(p.AssignedStaffID))
	}
	if p.Search != "" {
		placeholder := bind("%" + likeEscaper.Replace(strings.ToLower(p.Search)) + "%")
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(title) LIKE %[1]s OR LOWER(description) LIKE %[1]s OR LOWER(location) LIKE %[1]s)", placeholder))
	}

	return strings.Join(clauses, " AND "), args
}

// buildIncidentUpdate renders an UPDATE that writes only the named fields of
// changes, so concurrent claims and resolves on other columns survive.
func buildIncidentUpdate(id string, fields []string, changes *domain.Incident) (string, []any, error) {
	resolved, err := lookupIncidentFields(fields)
	if err != nil {
		return "", nil, err
	}
	sets := make([]string, 0, len(resolved)+1)
	args := make([]any, 0, len(resolved)+1)
	for _, field := range resolved {
		args = append(args, field.value(changes))
		sets = append(sets, fmt.Sprintf("%s=$%d", field.column, len(args)))
	}
	sets = append(sets, "updated_at=NOW()")
	args = append(args, id)
	query := fmt.Sprintf("UPDATE incidents SET %s WHERE id=$%d RETURNING %s",
		strings.Join(sets, ", "), len(args), incidentColumns)
	return query, args, nil
}

func statusStrings(list []domain.Status) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = string(s)
	}
	return out
}

func sectorStrings(list []domain.Sector) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = string(s)
	}
	return out
}
