package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/helcity/homesales/cmd/salesapi/models"
	"github.com/helcity/homesales/cmd/salesapi/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ActorKey is the context key for the authenticated actor
	ActorKey ContextKey = "actor"

	// RoleSalesperson is the role required for queue mutations
	RoleSalesperson = "salesperson"
)

// ExtractActor reads the X-User-ID header and stores it in the request
// context. Identity verification happens upstream at the gateway; this
// service only consumes the propagated headers.
func ExtractActor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if actor := c.Request().Header.Get("X-User-ID"); actor != "" {
				c.Set(string(ActorKey), actor)
			}
			return next(c)
		}
	}
}

// RequireSalesperson rejects mutation requests whose actor lacks the
// salesperson role. The rejection itself is recorded as a FORBIDDEN audit
// entry before the error reaches the client.
func RequireSalesperson(audit *service.AuditService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := GetActor(c)
			if actor == "" {
				audit.Forbidden(c.Request().Context(), "anonymous", operationFor(c.Request().Method), c.Path())
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error": "authentication required",
				})
			}

			if c.Request().Header.Get("X-User-Role") != RoleSalesperson {
				audit.Forbidden(c.Request().Context(), actor, operationFor(c.Request().Method), c.Path())
				return c.JSON(http.StatusForbidden, map[string]interface{}{
					"error": "salesperson role required",
				})
			}

			return next(c)
		}
	}
}

// GetActor retrieves the actor from the request context
// Returns empty string if not set
func GetActor(c echo.Context) string {
	actor := c.Get(string(ActorKey))
	if actor == nil {
		return ""
	}
	return actor.(string)
}

func operationFor(method string) models.AuditOperation {
	switch method {
	case http.MethodPost:
		return models.AuditCreate
	case http.MethodPut, http.MethodPatch:
		return models.AuditUpdate
	case http.MethodDelete:
		return models.AuditDelete
	default:
		return models.AuditRead
	}
}
