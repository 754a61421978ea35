package events

import (
	"time"

	"github.com/spec-kit/incident-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIncidentCreated  EventType = "incident_created"
	EventIncidentUpdated  EventType = "incident_updated"
	EventIncidentClaimed  EventType = "incident_claimed"
	EventIncidentResolved EventType = "incident_resolved"
	EventIncidentDeleted  EventType = "incident_deleted"
)

// AllIncidentEvents lists every incident event type.
var AllIncidentEvents = []EventType{
	EventIncidentCreated,
	EventIncidentUpdated,
	EventIncidentClaimed,
	EventIncidentResolved,
	EventIncidentDeleted,
}

// Actor encapsulates actor metadata for an event. Public SOS submissions have no subject.
type Actor struct {
	Role      domain.Role `json:"role,omitempty"`
	SubjectID string      `json:"subject_id,omitempty"`
	StaffID   string      `json:"staff_id,omitempty"`
}

// ActorFrom builds an Actor from a caller identity.
func ActorFrom(identity *domain.Identity) Actor {
	if identity == nil {
		return Actor{}
	}
	return Actor{Role: identity.Role, SubjectID: identity.SubjectID, StaffID: identity.StaffID}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	IncidentID string      `json:"incident_id"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// IncidentSnapshot is the payload for created, claimed and resolved events.
type IncidentSnapshot struct {
	Title       string          `json:"title"`
	Sector      domain.Sector   `json:"sector"`
	Priority    domain.Priority `json:"priority"`
	Status      domain.Status   `json:"status"`
	IsEmergency bool            `json:"is_emergency"`
	AssignedTo  string          `json:"assigned_to,omitempty"`
}

// SnapshotOf copies the notification-relevant fields of an incident.
func SnapshotOf(incident *domain.Incident) IncidentSnapshot {
	snapshot := IncidentSnapshot{
		Title:       incident.Title,
		Sector:      incident.Sector,
		Priority:    incident.Priority,
		Status:      incident.Status,
		IsEmergency: incident.IsEmergency,
	}
	if incident.AssignedStaffID != nil {
		snapshot.AssignedTo = *incident.AssignedStaffID
	}
	return snapshot
}

// IncidentUpdatedPayload lists the fields a generic update touched.
type IncidentUpdatedPayload struct {
	Fields           []string `json:"fields"`
	TouchedLifecycle bool     `json:"touched_lifecycle"`
	IncidentSnapshot
}
