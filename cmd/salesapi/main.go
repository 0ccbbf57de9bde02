package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/helcity/homesales/cmd/salesapi/container"
	salesmiddleware "github.com/helcity/homesales/cmd/salesapi/middleware"
	"github.com/helcity/homesales/cmd/salesapi/repository"
	"github.com/helcity/homesales/cmd/salesapi/routes"
	"github.com/helcity/homesales/common/bootstrap"
	commonmiddleware "github.com/helcity/homesales/common/middleware"
	"github.com/helcity/homesales/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (DB, logger, queue, cache, telemetry)
	components, err := bootstrap.Setup(ctx, "salesapi",
		bootstrap.WithDBInitHook(repository.ApplySchema),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap salesapi: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	// Initialize Echo server
	e := setupEcho()

	// Setup middleware
	setupMiddleware(e, serviceContainer)

	// Setup health check
	setupHealthCheck(e, serviceContainer)

	// Register all routes
	registerRoutes(e, serviceContainer)

	// Start server
	startServer(e, components)
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo, c *container.Container) {
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.RequestID())
	e.Use(salesmiddleware.ExtractActor())
	e.Use(commonmiddleware.RateLimit(c.Limiter, c.Components.Config.RateLimit))
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, c *container.Container) {
	e.GET("/health", func(ec echo.Context) error {
		if err := c.Components.Health(ec.Request().Context()); err != nil {
			return ec.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":  "degraded",
				"service": "salesapi",
				"error":   err.Error(),
			})
		}
		return ec.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "salesapi",
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterApplicationRoutes(e, serviceContainer)
	routes.RegisterReservationRoutes(e, serviceContainer)
	routes.RegisterUnitRoutes(e, serviceContainer)
	routes.RegisterLotteryRoutes(e, serviceContainer)
}

// startServer starts the HTTP server with graceful shutdown
func startServer(e *echo.Echo, components *bootstrap.Components) {
	port := components.Config.Service.Port
	srv := server.New("salesapi", port, e, components.Logger)

	if err := srv.Start(); err != nil {
		components.Logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
