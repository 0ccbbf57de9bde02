package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/helcity/homesales/cmd/salesapi/container"
	"github.com/helcity/homesales/cmd/salesapi/handlers"
	"github.com/helcity/homesales/cmd/salesapi/middleware"
)

// RegisterReservationRoutes registers reservation lifecycle routes
func RegisterReservationRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewReservationHandler(
		c.ApplicationService,
		c.QueueService,
		c.StateService,
		c.ListingService,
		c.Contracts,
		c.AuditService,
	)

	res := e.Group("/api/v1/reservations")
	res.Use(middleware.RequireSalesperson(c.AuditService))
	{
		res.GET("/:id", h.Get)                          // GET /api/v1/reservations/{id}
		res.POST("/:id/set_state", h.SetState)          // POST /api/v1/reservations/{id}/set_state
		res.POST("/:id/cancel", h.Cancel)               // POST /api/v1/reservations/{id}/cancel
		res.GET("/:id/contract", h.Contract)            // GET /api/v1/reservations/{id}/contract
		res.DELETE("/queue/:linkID", h.RemoveFromQueue) // DELETE /api/v1/reservations/queue/{link_uuid}
	}
}
