package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/helcity/homesales/cmd/salesapi/container"
	"github.com/helcity/homesales/cmd/salesapi/handlers"
)

// RegisterUnitRoutes registers unit and project inspection routes
func RegisterUnitRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewUnitHandler(c.QueueService, c.UnitRepo, c.AuditService)

	units := e.Group("/api/v1/units")
	{
		units.GET("/:id/queue", h.Queue) // GET /api/v1/units/{id}/queue
	}

	projects := e.Group("/api/v1/projects")
	{
		projects.GET("/:id/units", h.ByProject) // GET /api/v1/projects/{id}/units
	}
}
