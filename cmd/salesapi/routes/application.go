package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/helcity/homesales/cmd/salesapi/container"
	"github.com/helcity/homesales/cmd/salesapi/handlers"
	"github.com/helcity/homesales/cmd/salesapi/middleware"
)

// RegisterApplicationRoutes registers application intake routes
func RegisterApplicationRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewApplicationHandler(c.ApplicationService)

	apps := e.Group("/api/v1/applications")
	apps.Use(middleware.RequireSalesperson(c.AuditService))
	{
		apps.POST("", h.Create) // POST /api/v1/applications
		apps.GET("/:id", h.Get) // GET /api/v1/applications/{id}
	}
}
