package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/helcity/homesales/cmd/salesapi/middleware"
	"github.com/helcity/homesales/cmd/salesapi/repository"
	"github.com/helcity/homesales/cmd/salesapi/service"
	"github.com/helcity/homesales/common/apperr"
)

// UnitHandler exposes the per-unit reservation queue
type UnitHandler struct {
	queueSvc *service.QueueService
	units    *repository.UnitRepository
	audit    *service.AuditService
}

// NewUnitHandler creates a new unit handler
func NewUnitHandler(queueSvc *service.QueueService, units *repository.UnitRepository, audit *service.AuditService) *UnitHandler {
	return &UnitHandler{queueSvc: queueSvc, units: units, audit: audit}
}

// queueEntryResponse is one row of a unit's active queue
type queueEntryResponse struct {
	ReservationID   int64     `json:"reservation_id"`
	ApplicationUUID uuid.UUID `json:"application_uuid"`
	LinkUUID        uuid.UUID `json:"link_uuid"`
	QueuePosition   int       `json:"queue_position"`
	State           string    `json:"state"`
	Regime          string    `json:"regime"`
	SubmittedLate   bool      `json:"submitted_late"`
}

// Queue returns the active reservation queue for a unit, ordered by position
// GET /api/v1/units/:id/queue
func (h *UnitHandler) Queue(c echo.Context) error {
	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid unit id: %v", err))
	}

	// 404 for a unit this service has never seen, rather than an empty queue
	if _, err := h.units.GetByID(c.Request().Context(), unitID); err != nil {
		return respondError(c, err)
	}

	entries, err := h.queueSvc.ActiveQueue(c.Request().Context(), unitID)
	if err != nil {
		return respondError(c, err)
	}

	h.audit.Read(c.Request().Context(), middleware.GetActor(c), fmt.Sprintf("unit:%s", unitID))

	resp := make([]queueEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, queueEntryResponse{
			ReservationID:   entry.ReservationID,
			ApplicationUUID: entry.ApplicationUUID,
			LinkUUID:        entry.LinkUUID,
			QueuePosition:   entry.Position,
			State:           string(entry.State),
			Regime:          string(entry.Regime),
			SubmittedLate:   entry.SubmittedLate,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"unit_uuid": unitID,
		"queue":     resp,
	})
}

// ByProject lists the units of a project that have taken applications
// GET /api/v1/projects/:id/units
func (h *UnitHandler) ByProject(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid project id: %v", err))
	}

	units, err := h.units.ListByProject(c.Request().Context(), projectID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"project_uuid": projectID,
		"units":        units,
	})
}
