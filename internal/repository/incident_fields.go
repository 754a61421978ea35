package repository

import (
	"fmt"

	"github.com/spec-kit/incident-service/internal/domain"
)

// incidentField binds an updatable incident attribute, named as in the JSON
// payload, to its column.
type incidentField struct {
	column string
	value  func(*domain.Incident) any
	copy   func(dst, src *domain.Incident)
}

var incidentFields = map[string]incidentField{
	"title": {"title",
		func(i *domain.Incident) any { return i.Title },
		func(dst, src *domain.Incident) { dst.Title = src.Title }},
	"description": {"description",
		func(i *domain.Incident) any { return i.Description },
		func(dst, src *domain.Incident) { dst.Description = src.Description }},
	"location": {"location",
		func(i *domain.Incident) any { return i.Location },
		func(dst, src *domain.Incident) { dst.Location = src.Location }},
	"sector": {"sector",
		func(i *domain.Incident) any { return string(i.Sector) },
		func(dst, src *domain.Incident) { dst.Sector = src.Sector }},
	"subCategory": {"sub_category",
		func(i *domain.Incident) any { return i.SubCategory },
		func(dst, src *domain.Incident) { dst.SubCategory = src.SubCategory }},
	"priority": {"priority",
		func(i *domain.Incident) any { return string(i.Priority) },
		func(dst, src *domain.Incident) { dst.Priority = src.Priority }},
	"status": {"status",
		func(i *domain.Incident) any { return string(i.Status) },
		func(dst, src *domain.Incident) { dst.Status = src.Status }},
	"reporterName": {"reporter_name",
		func(i *domain.Incident) any { return i.ReporterName },
		func(dst, src *domain.Incident) { dst.ReporterName = src.ReporterName }},
	"reporterContact": {"reporter_contact",
		func(i *domain.Incident) any { return i.ReporterContact },
		func(dst, src *domain.Incident) { dst.ReporterContact = src.ReporterContact }},
	"assignedStaffId": {"assigned_staff_id",
		func(i *domain.Incident) any { return i.AssignedStaffID },
		func(dst, src *domain.Incident) { dst.AssignedStaffID = src.AssignedStaffID }},
	"assignedStaffName": {"assigned_staff_name",
		func(i *domain.Incident) any { return i.AssignedStaffName },
		func(dst, src *domain.Incident) { dst.AssignedStaffName = src.AssignedStaffName }},
	"assignedDepartment": {"assigned_department",
		func(i *domain.Incident) any { return i.AssignedDepartment },
		func(dst, src *domain.Incident) { dst.AssignedDepartment = src.AssignedDepartment }},
	"resolutionNotes": {"resolution_notes",
		func(i *domain.Incident) any { return i.ResolutionNotes },
		func(dst, src *domain.Incident) { dst.ResolutionNotes = src.ResolutionNotes }},
	"isEmergency": {"is_emergency",
		func(i *domain.Incident) any { return i.IsEmergency },
		func(dst, src *domain.Incident) { dst.IsEmergency = src.IsEmergency }},
	"estimatedResolutionTime": {"estimated_resolution_time",
		func(i *domain.Incident) any { return i.EstimatedResolutionTime },
		func(dst, src *domain.Incident) { dst.EstimatedResolutionTime = src.EstimatedResolutionTime }},
	"actualResolutionTime": {"actual_resolution_time",
		func(i *domain.Incident) any { return i.ActualResolutionTime },
		func(dst, src *domain.Incident) { dst.ActualResolutionTime = src.ActualResolutionTime }},
}

// lookupIncidentFields resolves names in order, dropping duplicates.
func lookupIncidentFields(names []string) ([]incidentField, error) {
	seen := make(map[string]bool, len(names))
	out := make([]incidentField, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		field, ok := incidentFields[name]
		if !ok {
			return nil, fmt.Errorf("incident field %q is not updatable", name)
		}
		seen[name] = true
		out = append(out, field)
	}
	return out, nil
}
