package dto

import (
	"time"

	"github.com/spec-kit/incident-service/internal/domain"
)

// CreateIncidentRequest payload.
type CreateIncidentRequest struct {
	Title                   string          `json:"title"`
	Description             string          `json:"description"`
	Location                string          `json:"location"`
	Sector                  domain.Sector   `json:"sector"`
	SubCategory             string          `json:"subCategory"`
	Priority                domain.Priority `json:"priority"`
	Status                  domain.Status   `json:"status"`
	ReporterName            string          `json:"reporterName"`
	ReporterContact         string          `json:"reporterContact"`
	IsEmergency             bool            `json:"isEmergency"`
	EstimatedResolutionTime *time.Time      `json:"estimatedResolutionTime"`
}

// UpdateIncidentRequest is a partial update; omitted fields are unchanged.
type UpdateIncidentRequest struct {
	Title                   *string          `json:"title"`
	Description             *string          `json:"description"`
	Location                *string          `json:"location"`
	Sector                  *domain.Sector   `json:"sector"`
	SubCategory             *string          `json:"subCategory"`
	Priority                *domain.Priority `json:"priority"`
	Status                  *domain.Status   `json:"status"`
	ReporterName            *string          `json:"reporterName"`
	ReporterContact         *string          `json:"reporterContact"`
	AssignedStaffID         *string          `json:"assignedStaffId"`
	AssignedStaffName       *string          `json:"assignedStaffName"`
	AssignedDepartment      *string          `json:"assignedDepartment"`
	ResolutionNotes         *string          `json:"resolutionNotes"`
	IsEmergency             *bool            `json:"isEmergency"`
	EstimatedResolutionTime *time.Time       `json:"estimatedResolutionTime"`
	ActualResolutionTime    *time.Time       `json:"actualResolutionTime"`
}

// ResolveIncidentRequest payload.
type ResolveIncidentRequest struct {
	ResolutionNotes string `json:"resolutionNotes"`
}

// SOSRequest payload for the public SOS portal.
type SOSRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	SubCategory     string `json:"subCategory"`
	ReporterName    string `json:"reporterName"`
	ReporterContact string `json:"reporterContact"`
	// Sector and Priority are accepted for form compatibility and ignored.
	Sector   string `json:"sector"`
	Priority string `json:"priority"`
}

// IncidentResponse is the incident view returned to clients.
type IncidentResponse struct {
	ID                      string          `json:"id"`
	Title                   string          `json:"title"`
	Description             string          `json:"description"`
	Location                string          `json:"location"`
	Sector                  domain.Sector   `json:"sector"`
	SubCategory             string          `json:"subCategory"`
	Priority                domain.Priority `json:"priority"`
	Status                  domain.Status   `json:"status"`
	ReporterName            string          `json:"reporterName,omitempty"`
	ReporterContact         string          `json:"reporterContact,omitempty"`
	ReporterID              *string         `json:"reporterId,omitempty"`
	AssignedStaffID         *string         `json:"assignedStaffId"`
	AssignedStaffName       *string         `json:"assignedStaffName"`
	AssignedDepartment      *string         `json:"assignedDepartment"`
	ResolutionNotes         *string         `json:"resolutionNotes"`
	IsEmergency             bool            `json:"isEmergency"`
	EstimatedResolutionTime *time.Time      `json:"estimatedResolutionTime,omitempty"`
	ActualResolutionTime    *time.Time      `json:"actualResolutionTime,omitempty"`
	CreatedAt               time.Time       `json:"createdAt"`
	UpdatedAt               time.Time       `json:"updatedAt"`
}

// NewIncidentResponse maps a domain incident.
func NewIncidentResponse(incident *domain.Incident) IncidentResponse {
	return IncidentResponse{
		ID:                      incident.ID,
		Title:                   incident.Title,
		Description:             incident.Description,
		Location:                incident.Location,
		Sector:                  incident.Sector,
		SubCategory:             incident.SubCategory,
		Priority:                incident.Priority,
		Status:                  incident.Status,
		ReporterName:            incident.ReporterName,
		ReporterContact:         incident.ReporterContact,
		ReporterID:              incident.ReporterID,
		AssignedStaffID:         incident.AssignedStaffID,
		AssignedStaffName:       incident.AssignedStaffName,
		AssignedDepartment:      incident.AssignedDepartment,
		ResolutionNotes:         incident.ResolutionNotes,
		IsEmergency:             incident.IsEmergency,
		EstimatedResolutionTime: incident.EstimatedResolutionTime,
		ActualResolutionTime:    incident.ActualResolutionTime,
		CreatedAt:               incident.CreatedAt,
		UpdatedAt:               incident.UpdatedAt,
	}
}

// NewIncidentList maps a slice of incidents.
func NewIncidentList(incidents []domain.Incident) []IncidentResponse {
	items := make([]IncidentResponse, 0, len(incidents))
	for i := range incidents {
		items = append(items, NewIncidentResponse(&incidents[i]))
	}
	return items
}
