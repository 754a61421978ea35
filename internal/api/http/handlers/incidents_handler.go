package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/incident-service/internal/api/dto"
	"github.com/spec-kit/incident-service/internal/service"
	"github.com/spec-kit/incident-service/internal/visibility"
)

// IncidentsHandler manages incident endpoints.
type IncidentsHandler struct {
	service *service.IncidentService
}

// NewIncidentsHandler constructs handler.
func NewIncidentsHandler(incidentService *service.IncidentService) *IncidentsHandler {
	return &IncidentsHandler{service: incidentService}
}

// CreateIncident POST /incidents.
func (h *IncidentsHandler) CreateIncident(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req dto.CreateIncidentRequest
	if err := decodeStrict(c, &req); err != nil {
		return err
	}

	incident, err := h.service.Create(c.UserContext(), identity, service.CreateIncidentInput{
		Title:                   req.Title,
		Description:             req.Description,
		Location:                req.Location,
		Sector:                  req.Sector,
		SubCategory:             req.SubCategory,
		Priority:                req.Priority,
		Status:                  req.Status,
		ReporterName:            req.ReporterName,
		ReporterContact:         req.ReporterContact,
		IsEmergency:             req.IsEmergency,
		EstimatedResolutionTime: req.EstimatedResolutionTime,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewIncidentResponse(incident)})
}

// CreateSOS POST /sos. Public.
func (h *IncidentsHandler) CreateSOS(c *fiber.Ctx) error {
	var req dto.SOSRequest
	if err := decodeStrict(c, &req); err != nil {
		return err
	}
	incident, err := h.service.CreateSOS(c.UserContext(), c.IP(), service.SOSInput{
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		SubCategory:     req.SubCategory,
		ReporterName:    req.ReporterName,
		ReporterContact: req.ReporterContact,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewIncidentResponse(incident)})
}

// ListIncidents GET /incidents.
func (h *IncidentsHandler) ListIncidents(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	query, err := visibility.ParseQuery(c.Queries())
	if err != nil {
		return err
	}
	incidents, err := h.service.List(c.UserContext(), identity, query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentList(incidents)})
}

// GetIncident GET /incidents/:id.
func (h *IncidentsHandler) GetIncident(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	incident, err := h.service.Get(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentResponse(incident)})
}

// UpdateIncident PUT /incidents/:id.
func (h *IncidentsHandler) UpdateIncident(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req dto.UpdateIncidentRequest
	if err := decodeStrict(c, &req); err != nil {
		return err
	}

	incident, err := h.service.Update(c.UserContext(), identity, c.Params("id"), service.UpdateIncidentInput{
		Title:                   req.Title,
		Description:             req.Description,
		Location:                req.Location,
		Sector:                  req.Sector,
		SubCategory:             req.SubCategory,
		Priority:                req.Priority,
		Status:                  req.Status,
		ReporterName:            req.ReporterName,
		ReporterContact:         req.ReporterContact,
		AssignedStaffID:         req.AssignedStaffID,
		AssignedStaffName:       req.AssignedStaffName,
		AssignedDepartment:      req.AssignedDepartment,
		ResolutionNotes:         req.ResolutionNotes,
		IsEmergency:             req.IsEmergency,
		EstimatedResolutionTime: req.EstimatedResolutionTime,
		ActualResolutionTime:    req.ActualResolutionTime,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentResponse(incident)})
}

// ClaimIncident POST /incidents/:id/claim.
func (h *IncidentsHandler) ClaimIncident(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	incident, err := h.service.Claim(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentResponse(incident)})
}

// ResolveIncident POST /incidents/:id/resolve.
func (h *IncidentsHandler) ResolveIncident(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req dto.ResolveIncidentRequest
	if err := decodeStrict(c, &req); err != nil {
		return err
	}
	incident, err := h.service.Resolve(c.UserContext(), identity, c.Params("id"), req.ResolutionNotes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentResponse(incident)})
}

// DeleteIncident DELETE /incidents/:id.
func (h *IncidentsHandler) DeleteIncident(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), identity, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Categories GET /incidents/meta/categories.
func (h *IncidentsHandler) Categories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.service.Categories()})
}
