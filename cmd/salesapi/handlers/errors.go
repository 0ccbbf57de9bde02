package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/helcity/homesales/common/apperr"
)

// respondError maps the service error taxonomy onto HTTP statuses.
// Concurrency conflicts carry a retry hint; everything else is terminal
// for the request.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrUnsupportedApplicationType),
		errors.Is(err, apperr.ErrProjectHasNoApplications),
		errors.Is(err, apperr.ErrApplicationPeriodNotClosed):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidStateTransition):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrConcurrencyConflict):
		status = http.StatusServiceUnavailable
		c.Response().Header().Set("Retry-After", "1")
	}

	return c.JSON(status, map[string]interface{}{
		"error":     err.Error(),
		"retriable": apperr.Retriable(err),
	})
}
