package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/helcity/homesales/cmd/salesapi/service"
	"github.com/helcity/homesales/common/apperr"
)

// LotteryHandler handles lottery execution requests
type LotteryHandler struct {
	lottery *service.LotteryService
}

// NewLotteryHandler creates a new lottery handler
func NewLotteryHandler(lottery *service.LotteryService) *LotteryHandler {
	return &LotteryHandler{lottery: lottery}
}

// executeLotteryRequest is the POST body for a lottery run
type executeLotteryRequest struct {
	ProjectUUID uuid.UUID `json:"project_uuid"`
}

// Execute runs the lottery for the given project
// POST /api/v1/lottery/execute
func (h *LotteryHandler) Execute(c echo.Context) error {
	var req executeLotteryRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.Validationf("invalid request body: %v", err))
	}
	if req.ProjectUUID == uuid.Nil {
		return respondError(c, apperr.Validationf("project_uuid is required"))
	}

	events, err := h.lottery.RunLottery(c.Request().Context(), req.ProjectUUID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "success",
		"events": events,
	})
}
