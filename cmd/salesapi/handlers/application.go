package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/helcity/homesales/cmd/salesapi/middleware"
	"github.com/helcity/homesales/cmd/salesapi/models"
	"github.com/helcity/homesales/cmd/salesapi/service"
	"github.com/helcity/homesales/common/apperr"
)

// ApplicationHandler handles application registration requests
type ApplicationHandler struct {
	apps *service.ApplicationService
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(apps *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{apps: apps}
}

// createApplicationRequest is the POST body for application registration
type createApplicationRequest struct {
	ApplicationUUID uuid.UUID                `json:"application_uuid"`
	Regime          models.ApplicationRegime `json:"regime"`
	PriorityKey     int                      `json:"priority_key"`
	SubmittedLate   bool                     `json:"submitted_late"`
	UnitUUIDs       []uuid.UUID              `json:"unit_uuids"`
	Comment         string                   `json:"comment"`
}

// Create registers an application and adds it to its units' queues
// POST /api/v1/applications
func (h *ApplicationHandler) Create(c echo.Context) error {
	var req createApplicationRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.Validationf("invalid request body: %v", err))
	}

	if req.ApplicationUUID == uuid.Nil {
		req.ApplicationUUID = uuid.New()
	}

	app := &models.Application{
		ApplicationUUID: req.ApplicationUUID,
		Regime:          req.Regime,
		PriorityKey:     req.PriorityKey,
		SubmittedLate:   req.SubmittedLate,
	}

	actor := middleware.GetActor(c)
	if err := h.apps.Register(c.Request().Context(), app, req.UnitUUIDs, actor, req.Comment); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"application_uuid": app.ApplicationUUID,
	})
}

// Get retrieves an application with its unit links
// GET /api/v1/applications/:id
func (h *ApplicationHandler) Get(c echo.Context) error {
	appID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid application id: %v", err))
	}

	app, links, err := h.apps.Application(c.Request().Context(), appID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"application": app,
		"unit_links":  links,
	})
}
