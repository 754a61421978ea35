package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/config"
	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/events"
	"github.com/spec-kit/incident-service/internal/repository"
	"github.com/spec-kit/incident-service/internal/visibility"
	apperrors "github.com/spec-kit/incident-service/pkg/util/errorutil"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9\-\s()]{6,24}$`)

// IncidentService coordinates the incident lifecycle.
type IncidentService struct {
	incidents       repository.IncidentRepository
	dispatcher      events.Dispatcher
	sosLimiter      RateLimiter
	logger          *zap.Logger
	listLimit       int
	lockStateFields bool
	now             func() time.Time
}

// IncidentDependencies bundles collaborators for the incident service.
type IncidentDependencies struct {
	IncidentRepo repository.IncidentRepository
	Dispatcher   events.Dispatcher
	SOSLimiter   RateLimiter
	Logger       *zap.Logger
}

// CreateIncidentInput describes an incident submission. Status is validated
// when supplied but new incidents always start red.
type CreateIncidentInput struct {
	Title                   string
	Description             string
	Location                string
	Sector                  domain.Sector
	SubCategory             string
	Priority                domain.Priority
	Status                  domain.Status
	ReporterName            string
	ReporterContact         string
	IsEmergency             bool
	EstimatedResolutionTime *time.Time
}

// SOSInput is a public emergency submission.
type SOSInput struct {
	Title           string
	Description     string
	Location        string
	SubCategory     string
	ReporterName    string
	ReporterContact string
}

// UpdateIncidentInput is a partial update; nil fields are left unchanged.
type UpdateIncidentInput struct {
	Title                   *string
	Description             *string
	Location                *string
	Sector                  *domain.Sector
	SubCategory             *string
	Priority                *domain.Priority
	Status                  *domain.Status
	ReporterName            *string
	ReporterContact         *string
	AssignedStaffID         *string
	AssignedStaffName       *string
	AssignedDepartment      *string
	ResolutionNotes         *string
	IsEmergency             *bool
	EstimatedResolutionTime *time.Time
	ActualResolutionTime    *time.Time
}

// NewIncidentService builds the service.
func NewIncidentService(cfg config.Config, deps IncidentDependencies) *IncidentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncidentService{
		incidents:       deps.IncidentRepo,
		dispatcher:      deps.Dispatcher,
		sosLimiter:      deps.SOSLimiter,
		logger:          logger,
		listLimit:       cfg.Incidents.ListLimit,
		lockStateFields: cfg.Incidents.LockStateFields,
		now:             time.Now,
	}
}

// Create records a new red incident reported by caller.
func (s *IncidentService) Create(ctx context.Context, caller domain.Identity, in CreateIncidentInput) (*domain.Incident, error) {
	incident := &domain.Incident{
		Title:                   strings.TrimSpace(in.Title),
		Description:             strings.TrimSpace(in.Description),
		Location:                strings.TrimSpace(in.Location),
		Sector:                  in.Sector,
		SubCategory:             strings.TrimSpace(in.SubCategory),
		Priority:                in.Priority,
		ReporterName:            strings.TrimSpace(in.ReporterName),
		ReporterContact:         strings.TrimSpace(in.ReporterContact),
		IsEmergency:             in.IsEmergency,
		EstimatedResolutionTime: in.EstimatedResolutionTime,
	}
	if incident.Priority == "" {
		incident.Priority = domain.PriorityMedium
	}

	details := validateIncident(incident)
	if in.Status != "" && !in.Status.Valid() {
		details["status"] = "must be one of red, yellow, green"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid incident", details)
	}

	if incident.ReporterName == "" {
		incident.ReporterName = caller.Name
	}
	if incident.ReporterContact == "" {
		incident.ReporterContact = caller.Email
	}
	if caller.SubjectID != "" {
		reporterID := caller.SubjectID
		incident.ReporterID = &reporterID
	}
	incident.Status = domain.StatusRed
	incident.ApplySOSOverride()

	if err := s.incidents.Create(ctx, incident); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("incident created",
		zap.String("incident_id", incident.ID),
		zap.String("sector", string(incident.Sector)),
		zap.String("priority", string(incident.Priority)),
	)
	s.publish(ctx, events.EventIncidentCreated, incident.ID, &caller, events.SnapshotOf(incident))
	return incident, nil
}

// CreateSOS records an unauthenticated SOS portal submission. clientKey
// identifies the submitter for rate limiting.
func (s *IncidentService) CreateSOS(ctx context.Context, clientKey string, in SOSInput) (*domain.Incident, error) {
	if s.sosLimiter != nil {
		allowed, err := s.sosLimiter.Allow(ctx, clientKey)
		if err != nil {
			s.logger.Warn("sos rate limiter unavailable", zap.Error(err))
		}
		if !allowed {
			return nil, apperrors.NewTooManyRequests("too many SOS submissions; contact security directly")
		}
	}

	incident := &domain.Incident{
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		Location:        strings.TrimSpace(in.Location),
		Sector:          domain.SectorSOSPortal,
		SubCategory:     strings.TrimSpace(in.SubCategory),
		Priority:        domain.PrioritySOS,
		ReporterName:    strings.TrimSpace(in.ReporterName),
		ReporterContact: strings.TrimSpace(in.ReporterContact),
	}

	details := validateIncident(incident)
	if incident.ReporterName == "" {
		details["reporterName"] = "required"
	}
	if !phonePattern.MatchString(incident.ReporterContact) {
		details["reporterContact"] = "must be a phone number"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid SOS submission", details)
	}

	incident.Status = domain.StatusRed
	incident.ApplySOSOverride()

	if err := s.incidents.Create(ctx, incident); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Warn("sos incident raised",
		zap.String("incident_id", incident.ID),
		zap.String("location", incident.Location),
	)
	s.publish(ctx, events.EventIncidentCreated, incident.ID, nil, events.SnapshotOf(incident))
	return incident, nil
}

// Get returns an incident the caller is allowed to see. Incidents outside the
// caller's visibility are reported as not found.
func (s *IncidentService) Get(ctx context.Context, caller domain.Identity, id string) (*domain.Incident, error) {
	return s.loadVisible(ctx, caller, id)
}

// List returns the caller's feed, most urgent first.
func (s *IncidentService) List(ctx context.Context, caller domain.Identity, q visibility.Query) ([]domain.Incident, error) {
	predicate, err := visibility.Compute(caller, q, s.listLimit)
	if err != nil {
		return nil, err
	}
	incidents, err := s.incidents.List(ctx, predicate)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return incidents, nil
}

// Update merges the supplied fields into the incident. Status and assignment
// can be changed here outside claim/resolve unless state fields are locked.
// Only the supplied fields are written, so a concurrent claim or resolve on
// the same incident is preserved.
func (s *IncidentService) Update(ctx context.Context, caller domain.Identity, id string, in UpdateIncidentInput) (*domain.Incident, error) {
	incident, err := s.loadVisible(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	touchesLifecycle := in.touchesLifecycle()
	if touchesLifecycle && s.lockStateFields {
		return nil, apperrors.NewForbidden("status and assignment change only through claim and resolve")
	}

	fields := in.apply(incident)
	if len(fields) == 0 {
		return incident, nil
	}

	details := validateIncident(incident)
	if !incident.Status.Valid() {
		details["status"] = "must be one of red, yellow, green"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid incident", details)
	}
	priority, emergency := incident.Priority, incident.IsEmergency
	incident.ApplySOSOverride()
	if incident.Priority != priority {
		fields = appendField(fields, "priority")
	}
	if incident.IsEmergency != emergency {
		fields = appendField(fields, "isEmergency")
	}

	if touchesLifecycle {
		s.logger.Warn("incident lifecycle fields changed by generic update",
			zap.String("incident_id", id),
			zap.String("subject_id", caller.SubjectID),
			zap.Strings("fields", fields),
		)
	}

	updated, err := s.incidents.Update(ctx, incident.ID, fields, incident)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, incidentNotFound(id)
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventIncidentUpdated, updated.ID, &caller, events.IncidentUpdatedPayload{
		Fields:           fields,
		TouchedLifecycle: touchesLifecycle,
		IncidentSnapshot: events.SnapshotOf(updated),
	})
	return updated, nil
}

// Claim assigns the incident to the calling staff member. Re-claiming one's
// own incident succeeds without change.
func (s *IncidentService) Claim(ctx context.Context, caller domain.Identity, id string) (*domain.Incident, error) {
	if !caller.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}

	incident, err := s.incidents.Claim(ctx, id, domain.Claimant{
		StaffID:    caller.StaffID,
		Name:       caller.Name,
		Department: string(caller.Department),
	})
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return nil, incidentNotFound(id)
	case errors.Is(err, repository.ErrClaimConflict):
		details := map[string]any{}
		if incident != nil && incident.AssignedStaffID != nil {
			details["assignedStaffId"] = *incident.AssignedStaffID
		}
		return nil, apperrors.NewConflict("incident already claimed by another staff member", details)
	case errors.Is(err, repository.ErrAlreadyResolved):
		return nil, apperrors.NewConflict("incident already resolved", nil)
	default:
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("incident claimed",
		zap.String("incident_id", incident.ID),
		zap.String("staff_id", caller.StaffID),
	)
	s.publish(ctx, events.EventIncidentClaimed, incident.ID, &caller, events.SnapshotOf(incident))
	return incident, nil
}

// Resolve closes an incident held by the calling staff member.
func (s *IncidentService) Resolve(ctx context.Context, caller domain.Identity, id, notes string) (*domain.Incident, error) {
	if !caller.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, apperrors.NewValidationError("invalid resolution", map[string]any{"resolutionNotes": "required"})
	}

	incident, err := s.incidents.Resolve(ctx, id, caller.StaffID, notes, s.now().UTC())
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return nil, incidentNotFound(id)
	case errors.Is(err, repository.ErrNotAssignee):
		return nil, apperrors.NewForbidden("only the assigned staff member can resolve this incident")
	case errors.Is(err, repository.ErrAlreadyResolved):
		return nil, apperrors.NewConflict("incident already resolved", nil)
	case errors.Is(err, repository.ErrNotClaimed):
		return nil, apperrors.NewConflict("incident must be claimed before it is resolved", nil)
	default:
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("incident resolved",
		zap.String("incident_id", incident.ID),
		zap.String("staff_id", caller.StaffID),
	)
	s.publish(ctx, events.EventIncidentResolved, incident.ID, &caller, events.SnapshotOf(incident))
	return incident, nil
}

// Delete removes an incident. Staff only.
func (s *IncidentService) Delete(ctx context.Context, caller domain.Identity, id string) error {
	if !caller.IsStaff() {
		return apperrors.NewForbidden("staff role required")
	}
	if err := s.incidents.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return incidentNotFound(id)
		}
		return apperrors.NewInternalError(err)
	}

	s.logger.Info("incident deleted", zap.String("incident_id", id), zap.String("staff_id", caller.StaffID))
	s.publish(ctx, events.EventIncidentDeleted, id, &caller, nil)
	return nil
}

// Categories returns the static sector to sub-category catalog.
func (s *IncidentService) Categories() map[domain.Sector][]string {
	return domain.Categories()
}

func (s *IncidentService) load(ctx context.Context, id string) (*domain.Incident, error) {
	incident, err := s.incidents.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, incidentNotFound(id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return incident, nil
}

func (s *IncidentService) loadVisible(ctx context.Context, caller domain.Identity, id string) (*domain.Incident, error) {
	predicate, err := visibility.Compute(caller, visibility.Query{}, s.listLimit)
	if err != nil {
		return nil, err
	}
	incident, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !predicate.Matches(incident) {
		return nil, incidentNotFound(id)
	}
	return incident, nil
}

func (s *IncidentService) publish(ctx context.Context, eventType events.EventType, incidentID string, caller *domain.Identity, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		IncidentID: incidentID,
		Actor:      events.ActorFrom(caller),
		Timestamp:  s.now().UTC(),
		Payload:    payload,
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func (in UpdateIncidentInput) touchesLifecycle() bool {
	return in.Status != nil ||
		in.AssignedStaffID != nil ||
		in.AssignedStaffName != nil ||
		in.AssignedDepartment != nil ||
		in.ResolutionNotes != nil ||
		in.ActualResolutionTime != nil
}

// apply merges non-nil fields into incident and returns their names.
func (in UpdateIncidentInput) apply(incident *domain.Incident) []string {
	var fields []string
	setString := func(name string, src *string, dst *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
			fields = append(fields, name)
		}
	}
	setOptional := func(name string, src *string, dst **string) {
		if src == nil {
			return
		}
		fields = append(fields, name)
		value := strings.TrimSpace(*src)
		if value == "" {
			*dst = nil
			return
		}
		*dst = &value
	}

	setString("title", in.Title, &incident.Title)
	setString("description", in.Description, &incident.Description)
	setString("location", in.Location, &incident.Location)
	setString("subCategory", in.SubCategory, &incident.SubCategory)
	setString("reporterName", in.ReporterName, &incident.ReporterName)
	setString("reporterContact", in.ReporterContact, &incident.ReporterContact)
	setOptional("assignedStaffId", in.AssignedStaffID, &incident.AssignedStaffID)
	setOptional("assignedStaffName", in.AssignedStaffName, &incident.AssignedStaffName)
	setOptional("assignedDepartment", in.AssignedDepartment, &incident.AssignedDepartment)
	setOptional("resolutionNotes", in.ResolutionNotes, &incident.ResolutionNotes)

	if in.Sector != nil {
		incident.Sector = *in.Sector
		fields = append(fields, "sector")
	}
	if in.Priority != nil {
		incident.Priority = *in.Priority
		fields = append(fields, "priority")
	}
	if in.Status != nil {
		incident.Status = *in.Status
		fields = append(fields, "status")
	}
	if in.IsEmergency != nil {
		incident.IsEmergency = *in.IsEmergency
		fields = append(fields, "isEmergency")
	}
	if in.EstimatedResolutionTime != nil {
		incident.EstimatedResolutionTime = in.EstimatedResolutionTime
		fields = append(fields, "estimatedResolutionTime")
	}
	if in.ActualResolutionTime != nil {
		incident.ActualResolutionTime = in.ActualResolutionTime
		fields = append(fields, "actualResolutionTime")
	}
	return fields
}

func appendField(fields []string, name string) []string {
	for _, f := range fields {
		if f == name {
			return fields
		}
	}
	return append(fields, name)
}

func validateIncident(incident *domain.Incident) map[string]any {
	details := map[string]any{}
	if incident.Title == "" {
		details["title"] = "required"
	}
	if incident.Description == "" {
		details["description"] = "required"
	}
	if incident.Location == "" {
		details["location"] = "required"
	}
	if incident.SubCategory == "" {
		details["subCategory"] = "required"
	}
	if !incident.Sector.Valid() {
		details["sector"] = "must be one of cabin_crew, sanitation, security, passenger_boarding, passenger_arrivals, sos_portal"
	}
	if !incident.Priority.Valid() {
		details["priority"] = "must be one of low, medium, high, critical, sos"
	}
	return details
}

func incidentNotFound(id string) error {
	return apperrors.NewNotFound("incident", map[string]any{"id": id})
}
