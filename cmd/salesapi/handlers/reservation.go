package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/helcity/homesales/cmd/salesapi/middleware"
	"github.com/helcity/homesales/cmd/salesapi/models"
	"github.com/helcity/homesales/cmd/salesapi/service"
	"github.com/helcity/homesales/common/apperr"
)

// ReservationHandler handles reservation lifecycle requests
type ReservationHandler struct {
	apps      *service.ApplicationService
	queueSvc  *service.QueueService
	stateSvc  *service.StateService
	listing   service.ListingLookup
	contracts service.ContractGenerator
	audit     *service.AuditService
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(
	apps *service.ApplicationService,
	queueSvc *service.QueueService,
	stateSvc *service.StateService,
	listing service.ListingLookup,
	contracts service.ContractGenerator,
	audit *service.AuditService,
) *ReservationHandler {
	return &ReservationHandler{
		apps:      apps,
		queueSvc:  queueSvc,
		stateSvc:  stateSvc,
		listing:   listing,
		contracts: contracts,
		audit:     audit,
	}
}

// setStateRequest is the POST body for a state transition
type setStateRequest struct {
	State   models.ReservationState    `json:"state"`
	Comment string                     `json:"comment"`
	Reason  *models.CancellationReason `json:"cancellation_reason,omitempty"`
}

// cancelRequest is the POST body for a cancellation
type cancelRequest struct {
	Reason  models.CancellationReason `json:"cancellation_reason"`
	Comment string                    `json:"comment"`
}

// removeFromQueueRequest is the DELETE body for a queue removal
type removeFromQueueRequest struct {
	Comment string                    `json:"comment"`
	Reason  models.CancellationReason `json:"cancellation_reason"`
}

// Get retrieves a reservation with its state history
// GET /api/v1/reservations/:id
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return respondError(c, err)
	}

	res, history, err := h.stateSvc.ReservationWithHistory(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	h.audit.Read(c.Request().Context(), middleware.GetActor(c), fmt.Sprintf("reservation:%d", id))

	return c.JSON(http.StatusOK, map[string]interface{}{
		"reservation":   res,
		"state_history": history,
	})
}

// SetState transitions a reservation's state
// POST /api/v1/reservations/:id/set_state
func (h *ReservationHandler) SetState(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req setStateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.Validationf("invalid request body: %v", err))
	}

	event, err := h.stateSvc.SetReservationState(
		c.Request().Context(),
		id,
		req.State,
		middleware.GetActor(c),
		req.Comment,
		req.Reason,
	)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, event)
}

// Cancel cancels a reservation with a reason
// POST /api/v1/reservations/:id/cancel
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.Validationf("invalid request body: %v", err))
	}
	if req.Reason == "" {
		req.Reason = models.ReasonCanceled
	}

	event, err := h.stateSvc.CancelReservation(
		c.Request().Context(),
		id,
		middleware.GetActor(c),
		req.Comment,
		req.Reason,
	)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, event)
}

// RemoveFromQueue removes an application-unit link's reservation from its
// unit's queue
// DELETE /api/v1/reservations/queue/:linkID
func (h *ReservationHandler) RemoveFromQueue(c echo.Context) error {
	linkID, err := uuid.Parse(c.Param("linkID"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid link id: %v", err))
	}

	var req removeFromQueueRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.Validationf("invalid request body: %v", err))
	}
	if req.Reason == "" {
		req.Reason = models.ReasonCanceled
	}

	link, err := h.apps.Link(c.Request().Context(), linkID)
	if err != nil {
		return respondError(c, err)
	}

	event, err := h.queueSvc.RemoveFromQueue(
		c.Request().Context(),
		link,
		middleware.GetActor(c),
		req.Comment,
		req.Reason,
	)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, event)
}

// Contract renders the contract artifact for a finalized reservation
// GET /api/v1/reservations/:id/contract
func (h *ReservationHandler) Contract(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return respondError(c, err)
	}

	res, _, err := h.stateSvc.ReservationWithHistory(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	unit, err := h.listing.GetUnit(c.Request().Context(), res.UnitUUID)
	if err != nil {
		return respondError(c, err)
	}

	filename, data, err := h.contracts.Render(res, unit)
	if err != nil {
		return respondError(c, err)
	}

	h.audit.Read(c.Request().Context(), middleware.GetActor(c), fmt.Sprintf("reservation:%d", id))

	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.txt", filename))
	return c.Blob(http.StatusOK, "text/plain", data)
}

func reservationID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperr.Validationf("invalid reservation id: %v", err)
	}
	return id, nil
}
