package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/helcity/homesales/cmd/salesapi/container"
	"github.com/helcity/homesales/cmd/salesapi/handlers"
	"github.com/helcity/homesales/cmd/salesapi/middleware"
)

// RegisterLotteryRoutes registers lottery execution routes
func RegisterLotteryRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewLotteryHandler(c.LotteryService)

	lottery := e.Group("/api/v1/lottery")
	lottery.Use(middleware.RequireSalesperson(c.AuditService))
	{
		lottery.POST("/execute", h.Execute) // POST /api/v1/lottery/execute
	}
}
