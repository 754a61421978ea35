package domain

import "time"

// Status is the tri-color incident lifecycle stage.
type Status string

const (
	StatusRed    Status = "red"
	StatusYellow Status = "yellow"
	StatusGreen  Status = "green"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusRed || s == StatusYellow || s == StatusGreen
}

// Sector is the area an incident belongs to.
type Sector string

const (
	SectorCabinCrew         Sector = "cabin_crew"
	SectorSanitation        Sector = "sanitation"
	SectorSecurity          Sector = "security"
	SectorPassengerBoarding Sector = "passenger_boarding"
	SectorPassengerArrivals Sector = "passenger_arrivals"
	SectorSOSPortal         Sector = "sos_portal"
)

// Sectors lists every sector in catalog order.
var Sectors = []Sector{
	SectorCabinCrew,
	SectorSanitation,
	SectorSecurity,
	SectorPassengerBoarding,
	SectorPassengerArrivals,
	SectorSOSPortal,
}

// PassengerSectors are the sectors passengers may see.
var PassengerSectors = []Sector{
	SectorPassengerBoarding,
	SectorPassengerArrivals,
	SectorSOSPortal,
}

// Valid reports whether s is a known sector.
func (s Sector) Valid() bool {
	for _, known := range Sectors {
		if s == known {
			return true
		}
	}
	return false
}

// Priority enumerates incident urgency.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
	PrioritySOS      Priority = "sos"
)

// Rank orders priorities; higher is more urgent. Unknown values rank zero.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityCritical:
		return 4
	case PrioritySOS:
		return 5
	}
	return 0
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Incident is the aggregate owned by the incident store.
type Incident struct {
	ID                      string
	Title                   string
	Description             string
	Location                string
	Sector                  Sector
	SubCategory             string
	Priority                Priority
	Status                  Status
	ReporterName            string
	ReporterContact         string
	ReporterID              *string
	AssignedStaffID         *string
	AssignedStaffName       *string
	AssignedDepartment      *string
	ResolutionNotes         *string
	IsEmergency             bool
	EstimatedResolutionTime *time.Time
	ActualResolutionTime    *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// ApplySOSOverride forces the emergency fields for SOS portal submissions.
func (i *Incident) ApplySOSOverride() {
	if i.Sector == SectorSOSPortal {
		i.Priority = PrioritySOS
		i.IsEmergency = true
	}
}

// AssignedTo reports whether staffID currently holds the incident.
func (i *Incident) AssignedTo(staffID string) bool {
	return i.AssignedStaffID != nil && *i.AssignedStaffID == staffID
}

// Claimant describes the staff member taking ownership of an incident.
type Claimant struct {
	StaffID    string
	Name       string
	Department string
}
